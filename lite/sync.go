package lite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ubilite/models"
	"ubilite/store"
)

// DefaultEntities is synced when the client doesn't name any.
var DefaultEntities = []string{"trips", "wallet", "notifications", "places"}

// A batch stops accumulating once its serialized size would pass this.
const maxDeltaBytes = 10000

const syncStateKeyPrefix = "sync:state:"

// ChangeSource yields entity changes newer than sinceVersion, oldest first,
// at most limit. Backed by the platform services' change feeds.
type ChangeSource interface {
	Changes(ctx context.Context, userID, entity string, sinceVersion int64, limit int) ([]models.EntityChange, error)
}

// Engine is the delta-sync engine.
type Engine struct {
	store  store.Store
	source ChangeSource
	now    func() time.Time
}

func NewEngine(s store.Store, source ChangeSource) *Engine {
	return &Engine{store: s, source: source, now: time.Now}
}

// BatchSize returns the per-entity change budget for a network type.
func BatchSize(networkType string) int {
	switch networkType {
	case models.NETWORK_GPRS:
		return 5
	case models.NETWORK_EDGE, models.NETWORK_2G:
		return 10
	case models.NETWORK_3G:
		return 25
	case models.NETWORK_4G, models.NETWORK_WIFI:
		return 50
	default:
		return 20
	}
}

// SlowNetwork reports whether the network type is in the 2G class, where
// every byte is contended.
func SlowNetwork(networkType string) bool {
	switch networkType {
	case models.NETWORK_GPRS, models.NETWORK_EDGE, models.NETWORK_2G:
		return true
	}
	return false
}

// DeltaSync collects changes since the client's version, sized to its
// network, and advances the user's sync cursor. On 2G-class networks the
// whole response body is additionally compressed.
func (e *Engine) DeltaSync(ctx context.Context, req models.SyncRequest) (*models.SyncResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("delta sync: user id required")
	}
	entities := req.Entities
	if len(entities) == 0 {
		entities = DefaultEntities
	}

	batch := BatchSize(req.NetworkType)
	serverVersion := e.now().UnixMilli()

	var (
		changes   []models.EntityChange
		totalSize int
		hasMore   bool
	)
	for _, entity := range entities {
		entityChanges, err := e.source.Changes(ctx, req.UserID, entity, req.LastSyncVersion, batch)
		if err != nil {
			e.recordError(ctx, req.UserID)
			return nil, fmt.Errorf("delta sync %s: %w", entity, err)
		}
		added := 0
		for _, ch := range entityChanges {
			raw, err := json.Marshal(ch)
			if err != nil {
				return nil, fmt.Errorf("delta sync %s: %w", entity, err)
			}
			if totalSize+len(raw) > maxDeltaBytes {
				// Size cap hit: keep what we have, stop this entity.
				hasMore = true
				break
			}
			changes = append(changes, ch)
			totalSize += len(raw)
			added++
		}
		if added == batch {
			hasMore = true
		}
	}

	resp := &models.SyncResponse{
		ServerVersion: serverVersion,
		Changes:       changes,
		HasMore:       hasMore,
		SyncedAt:      e.now(),
	}

	if SlowNetwork(req.NetworkType) && len(changes) > 0 {
		compressed, err := Compress(changes)
		if err != nil {
			return nil, fmt.Errorf("delta sync compress: %w", err)
		}
		resp.Compressed = true
		resp.Encoding = compressed.Encoding
		resp.Payload = compressed.Data
		resp.Changes = nil
	}

	e.updateCursor(ctx, req.UserID, serverVersion, req.LastSyncVersion, len(changes))
	return resp, nil
}

// SyncStateFor returns the stored cursor, zero-valued if none yet.
func (e *Engine) SyncStateFor(ctx context.Context, userID string) (models.SyncState, error) {
	var state models.SyncState
	ok, err := store.GetJSON(ctx, e.store, syncStateKeyPrefix+userID, &state)
	if err != nil {
		return state, err
	}
	if !ok {
		state = models.SyncState{UserID: userID, Status: models.SYNC_STATUS_IDLE}
	}
	return state, nil
}

func (e *Engine) updateCursor(ctx context.Context, userID string, serverVersion, clientVersion int64, synced int) {
	state, err := e.SyncStateFor(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("sync cursor read failed")
		return
	}
	state.LastSyncAt = e.now()
	if serverVersion > state.ServerVersion {
		state.ServerVersion = serverVersion
	}
	state.ClientVersion = clientVersion
	state.Status = models.SYNC_STATUS_IDLE
	state.PendingChanges -= synced
	if state.PendingChanges < 0 {
		state.PendingChanges = 0
	}
	if err := store.SetJSON(ctx, e.store, syncStateKeyPrefix+userID, state, 0); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("sync cursor write failed")
	}
}

func (e *Engine) recordError(ctx context.Context, userID string) {
	state, err := e.SyncStateFor(ctx, userID)
	if err != nil {
		return
	}
	state.Status = models.SYNC_STATUS_ERROR
	state.ErrorCount++
	_ = store.SetJSON(ctx, e.store, syncStateKeyPrefix+userID, state, 0)
}

// OptimalPayloadSize is the response-size ceiling in bytes for a network
// type, tightened further by the user's data budget.
func OptimalPayloadSize(networkType, dataBudget string) int {
	var size int
	switch networkType {
	case models.NETWORK_GPRS:
		size = 5 * 1024
	case models.NETWORK_EDGE, models.NETWORK_2G:
		size = 10 * 1024
	case models.NETWORK_3G:
		size = 50 * 1024
	case models.NETWORK_4G:
		size = 100 * 1024
	case models.NETWORK_WIFI:
		size = 200 * 1024
	default:
		size = 50 * 1024
	}
	switch dataBudget {
	case models.DATA_BUDGET_ULTRA_SAVER:
		if size > 5*1024 {
			size = 5 * 1024
		}
	case models.DATA_BUDGET_SAVER:
		if size > 20*1024 {
			size = 20 * 1024
		}
	}
	return size
}

// ShouldIncludeImages reports whether image payloads are worth sending at
// all. Saver budgets force images off regardless of network.
func ShouldIncludeImages(networkType, dataBudget string) bool {
	if dataBudget == models.DATA_BUDGET_SAVER || dataBudget == models.DATA_BUDGET_ULTRA_SAVER {
		return false
	}
	return !SlowNetwork(networkType)
}

// ImageQuality picks the tier for networks where images are on.
func ImageQuality(networkType string) string {
	switch networkType {
	case models.NETWORK_GPRS, models.NETWORK_EDGE, models.NETWORK_2G:
		return models.IMAGE_QUALITY_LOW
	case models.NETWORK_3G:
		return models.IMAGE_QUALITY_MEDIUM
	case models.NETWORK_4G, models.NETWORK_WIFI:
		return models.IMAGE_QUALITY_HIGH
	default:
		return models.IMAGE_QUALITY_MEDIUM
	}
}
