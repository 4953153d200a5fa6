package lite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilite/store"
)

func TestResponseCacheRoundTrip(t *testing.T) {
	c := NewResponseCache(store.NewMemory())
	ctx := context.Background()
	payload := []byte(`{"tiles":[{"x":1,"y":2,"z":14}]}`)

	etag, err := c.Set(ctx, "tiles:q1", payload, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, etag)

	got, gotTag, notModified, ok, err := c.Get(ctx, "tiles:q1", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, notModified)
	assert.Equal(t, payload, got)
	assert.Equal(t, etag, gotTag)
}

func TestResponseCacheNotModified(t *testing.T) {
	c := NewResponseCache(store.NewMemory())
	ctx := context.Background()

	etag, err := c.Set(ctx, "tiles:q1", []byte("body"), time.Minute)
	require.NoError(t, err)

	payload, gotTag, notModified, ok, err := c.Get(ctx, "tiles:q1", etag)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, notModified)
	assert.Nil(t, payload)
	assert.Equal(t, etag, gotTag)

	// A stale client tag still gets the body.
	payload, _, notModified, ok, err = c.Get(ctx, "tiles:q1", "deadbeef")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, notModified)
	assert.Equal(t, []byte("body"), payload)
}

func TestResponseCacheMiss(t *testing.T) {
	c := NewResponseCache(store.NewMemory())
	_, _, _, ok, err := c.Get(context.Background(), "nope", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestETagForIsDeterministic(t *testing.T) {
	a := ETagFor([]byte("payload"))
	b := ETagFor([]byte("payload"))
	c := ETagFor([]byte("other"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
