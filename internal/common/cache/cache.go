// Package cache wraps redis behind a small interface used for the live
// judge-status mirror.
package cache

import (
	"context"
	"math/rand"
	"time"
)

// Cache defines the unified interface for cache operations.
type Cache interface {
	// Get returns the string value for key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL (0 means no expiry).
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX stores value only when key is absent; returns whether it was set.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Del removes the given keys.
	Del(ctx context.Context, keys ...string) error

	Close() error
}

// JitterTTL spreads a TTL by up to 10% to avoid synchronized expiry.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := time.Duration(rand.Int63n(int64(ttl) / 10))
	return ttl + jitter
}
