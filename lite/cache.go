package lite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"ubilite/store"
)

const cacheKeyPrefix = "cache:resp:"

// cacheEntry is what we persist: the gzipped payload plus its ETag. Expiry
// rides on the store's TTL; lookups after expiry simply miss.
type cacheEntry struct {
	Compressed []byte `json:"compressed"`
	ETag       string `json:"etag"`
}

// ResponseCache stores compressed API responses keyed by request identity,
// answering repeat requests with a not-modified signal when the client's
// ETag still matches.
type ResponseCache struct {
	store store.Store
}

func NewResponseCache(s store.Store) *ResponseCache {
	return &ResponseCache{store: s}
}

// ETagFor is a deterministic function of the uncompressed payload.
func ETagFor(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

// Set compresses and stores payload under key for ttl, returning its ETag.
func (c *ResponseCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) (string, error) {
	compressed, err := gzipBytes(payload)
	if err != nil {
		return "", fmt.Errorf("cache set %s: %w", key, err)
	}
	entry := cacheEntry{Compressed: compressed, ETag: ETagFor(payload)}
	if err := store.SetJSON(ctx, c.store, cacheKeyPrefix+key, entry, ttl); err != nil {
		return "", fmt.Errorf("cache set %s: %w", key, err)
	}
	return entry.ETag, nil
}

// Get returns the cached payload. When clientETag matches the stored one it
// returns notModified=true with a nil payload — the caller answers 304-style
// without shipping the body.
func (c *ResponseCache) Get(ctx context.Context, key, clientETag string) (payload []byte, etag string, notModified, ok bool, err error) {
	var entry cacheEntry
	found, err := store.GetJSON(ctx, c.store, cacheKeyPrefix+key, &entry)
	if err != nil || !found {
		return nil, "", false, false, err
	}
	if clientETag != "" && clientETag == entry.ETag {
		return nil, entry.ETag, true, true, nil
	}
	payload, err = gunzipBytes(entry.Compressed)
	if err != nil {
		return nil, "", false, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return payload, entry.ETag, false, true, nil
}
