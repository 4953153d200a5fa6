package lite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilite/models"
	"ubilite/store"
)

// scriptedSource serves canned per-entity change logs the way the platform
// feeds do: oldest first, filtered by version, capped by limit.
type scriptedSource struct {
	logs map[string][]models.EntityChange
	err  error
}

func (s *scriptedSource) Changes(_ context.Context, _, entity string, sinceVersion int64, limit int) ([]models.EntityChange, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.EntityChange
	for _, ch := range s.logs[entity] {
		if ch.Version <= sinceVersion {
			continue
		}
		out = append(out, ch)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func tripChanges(n int, payload string) []models.EntityChange {
	changes := make([]models.EntityChange, n)
	for i := range changes {
		changes[i] = models.EntityChange{
			Entity:  "trips",
			ID:      fmt.Sprintf("trip-%d", i+1),
			Action:  "update",
			Data:    map[string]string{"status": "completed", "note": payload},
			Version: int64(i + 1),
		}
	}
	return changes
}

func TestBatchSize(t *testing.T) {
	assert.Equal(t, 5, BatchSize(models.NETWORK_GPRS))
	assert.Equal(t, 10, BatchSize(models.NETWORK_EDGE))
	assert.Equal(t, 10, BatchSize(models.NETWORK_2G))
	assert.Equal(t, 25, BatchSize(models.NETWORK_3G))
	assert.Equal(t, 50, BatchSize(models.NETWORK_4G))
	assert.Equal(t, 50, BatchSize(models.NETWORK_WIFI))
	assert.Equal(t, 20, BatchSize("carrier-pigeon"))
}

func TestSlowNetwork(t *testing.T) {
	assert.True(t, SlowNetwork(models.NETWORK_GPRS))
	assert.True(t, SlowNetwork(models.NETWORK_EDGE))
	assert.True(t, SlowNetwork(models.NETWORK_2G))
	assert.False(t, SlowNetwork(models.NETWORK_3G))
	assert.False(t, SlowNetwork(models.NETWORK_WIFI))
}

func TestDeltaSyncOnWifi(t *testing.T) {
	source := &scriptedSource{logs: map[string][]models.EntityChange{
		"trips": tripChanges(30, "ok"),
	}}
	e := NewEngine(store.NewMemory(), source)

	resp, err := e.DeltaSync(context.Background(), models.SyncRequest{
		UserID: "u-1", Entities: []string{"trips"}, NetworkType: models.NETWORK_WIFI,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Changes, 30)
	assert.False(t, resp.HasMore)
	assert.False(t, resp.Compressed)
	assert.Greater(t, resp.ServerVersion, int64(0))
}

func TestDeltaSyncCompressesOnSlowNetwork(t *testing.T) {
	source := &scriptedSource{logs: map[string][]models.EntityChange{
		"trips": tripChanges(30, "ok"),
	}}
	e := NewEngine(store.NewMemory(), source)

	resp, err := e.DeltaSync(context.Background(), models.SyncRequest{
		UserID: "u-1", Entities: []string{"trips"}, NetworkType: models.NETWORK_GPRS,
	})
	require.NoError(t, err)
	// Five-change batch, 25 left behind.
	assert.True(t, resp.HasMore)
	assert.True(t, resp.Compressed)
	assert.Nil(t, resp.Changes)
	assert.NotEmpty(t, resp.Payload)

	v, err := Decompress(resp.Encoding, resp.Payload)
	require.NoError(t, err)
	list, ok := v.([]interface{})
	require.True(t, ok)
	assert.Len(t, list, 5)
}

func TestDeltaSyncSizeCap(t *testing.T) {
	big := strings.Repeat("x", 1500)
	source := &scriptedSource{logs: map[string][]models.EntityChange{
		"trips": tripChanges(30, big),
	}}
	e := NewEngine(store.NewMemory(), source)

	resp, err := e.DeltaSync(context.Background(), models.SyncRequest{
		UserID: "u-1", Entities: []string{"trips"}, NetworkType: models.NETWORK_WIFI,
	})
	require.NoError(t, err)
	assert.True(t, resp.HasMore)
	assert.Less(t, len(resp.Changes), 30)
	assert.NotEmpty(t, resp.Changes)
}

func TestDeltaSyncHonorsSinceVersion(t *testing.T) {
	source := &scriptedSource{logs: map[string][]models.EntityChange{
		"trips": tripChanges(10, "ok"),
	}}
	e := NewEngine(store.NewMemory(), source)

	resp, err := e.DeltaSync(context.Background(), models.SyncRequest{
		UserID: "u-1", Entities: []string{"trips"}, LastSyncVersion: 7,
		NetworkType: models.NETWORK_WIFI,
	})
	require.NoError(t, err)
	require.Len(t, resp.Changes, 3)
	assert.Equal(t, int64(8), resp.Changes[0].Version)
}

func TestDeltaSyncAdvancesCursor(t *testing.T) {
	source := &scriptedSource{logs: map[string][]models.EntityChange{
		"trips": tripChanges(3, "ok"),
	}}
	e := NewEngine(store.NewMemory(), source)
	ctx := context.Background()

	resp, err := e.DeltaSync(ctx, models.SyncRequest{
		UserID: "u-1", Entities: []string{"trips"}, LastSyncVersion: 2,
		NetworkType: models.NETWORK_WIFI,
	})
	require.NoError(t, err)

	state, err := e.SyncStateFor(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, resp.ServerVersion, state.ServerVersion)
	assert.Equal(t, int64(2), state.ClientVersion)
	assert.Equal(t, models.SYNC_STATUS_IDLE, state.Status)
	assert.False(t, state.LastSyncAt.IsZero())
}

func TestDeltaSyncRequiresUser(t *testing.T) {
	e := NewEngine(store.NewMemory(), &scriptedSource{})
	_, err := e.DeltaSync(context.Background(), models.SyncRequest{NetworkType: models.NETWORK_WIFI})
	assert.Error(t, err)
}

func TestDeltaSyncSourceFailureMarksError(t *testing.T) {
	e := NewEngine(store.NewMemory(), &scriptedSource{err: fmt.Errorf("feed down")})
	ctx := context.Background()

	_, err := e.DeltaSync(ctx, models.SyncRequest{UserID: "u-1", NetworkType: models.NETWORK_WIFI})
	require.Error(t, err)

	state, err := e.SyncStateFor(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, models.SYNC_STATUS_ERROR, state.Status)
	assert.Equal(t, 1, state.ErrorCount)
}

func TestOptimalPayloadSize(t *testing.T) {
	assert.Equal(t, 5*1024, OptimalPayloadSize(models.NETWORK_GPRS, ""))
	assert.Equal(t, 200*1024, OptimalPayloadSize(models.NETWORK_WIFI, ""))
	// Budgets only tighten, never widen.
	assert.Equal(t, 5*1024, OptimalPayloadSize(models.NETWORK_WIFI, models.DATA_BUDGET_ULTRA_SAVER))
	assert.Equal(t, 20*1024, OptimalPayloadSize(models.NETWORK_4G, models.DATA_BUDGET_SAVER))
	assert.Equal(t, 5*1024, OptimalPayloadSize(models.NETWORK_GPRS, models.DATA_BUDGET_SAVER))
}

func TestShouldIncludeImages(t *testing.T) {
	assert.True(t, ShouldIncludeImages(models.NETWORK_WIFI, models.DATA_BUDGET_NORMAL))
	assert.False(t, ShouldIncludeImages(models.NETWORK_WIFI, models.DATA_BUDGET_SAVER))
	assert.False(t, ShouldIncludeImages(models.NETWORK_GPRS, models.DATA_BUDGET_NORMAL))
}
