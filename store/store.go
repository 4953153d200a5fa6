// Package store provides the keyed, TTL-expiring state store the channel
// protocols share. Sessions, pending confirmations, sync cursors and cached
// responses all live behind the same interface, so a single-instance
// in-memory map and a Redis deployment are interchangeable at the call site.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a key-value store with per-entry TTL. Expired entries behave as
// absent; implementations may evict them lazily.
type Store interface {
	// Get returns the value for key, or ok=false when absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key for ttl. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all live keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// GetJSON unmarshals the stored value into out. ok=false when absent.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}
