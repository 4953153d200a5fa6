package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryTTLExpiry(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "sess", []byte("x"), time.Minute))

	_, ok, _ := m.Get(ctx, "sess")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "sess")
	assert.False(t, ok, "entry past its deadline reads as absent")
}

func TestMemoryKeysSkipsExpired(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "p:a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "p:b", []byte("2"), time.Hour))
	require.NoError(t, m.Set(ctx, "q:c", []byte("3"), 0))

	now = now.Add(30 * time.Minute)
	keys, err := m.Keys(ctx, "p:")
	require.NoError(t, err)
	assert.Equal(t, []string{"p:b"}, keys)
}

func TestSetJSONGetJSON(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	require.NoError(t, SetJSON(ctx, m, "j", payload{Name: "ubi", N: 7}, 0))

	var out payload
	ok, err := GetJSON(ctx, m, "j", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "ubi", N: 7}, out)

	ok, err = GetJSON(ctx, m, "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
