// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"time"

	"github.com/luxfi/fhevm-sdk/cache"
)

// PublicKeyTTL is how long a fetched public key is served from cache.
const PublicKeyTTL = 5 * time.Minute

// DefaultPublicKeyCache is shared by instances that are not given their own
// cache. Tests should inject a cache or call ClearAll.
var DefaultPublicKeyCache = NewPublicKeyCache()

// PublicKeyFetcher retrieves the public key of a network.
type PublicKeyFetcher func(ctx context.Context) (string, error)

// PublicKeyCache maps a chain id to its gateway public key. Entries expire
// after PublicKeyTTL and are refetched, never served stale. Concurrent misses
// for the same chain share one fetch.
type PublicKeyCache struct {
	keys *cache.TTLCache[uint64, string]
}

func NewPublicKeyCache() *PublicKeyCache {
	return NewPublicKeyCacheWithClock(time.Now)
}

// NewPublicKeyCacheWithClock is NewPublicKeyCache with an explicit time
// source.
func NewPublicKeyCacheWithClock(now func() time.Time) *PublicKeyCache {
	return &PublicKeyCache{
		keys: cache.NewTTLCacheWithClock[uint64, string](PublicKeyTTL, now),
	}
}

// Get returns the live key for [chainID], calling [fetch] on a miss. The
// returned bool reports whether the value came from cache.
func (c *PublicKeyCache) Get(ctx context.Context, chainID uint64, fetch PublicKeyFetcher) (string, bool, error) {
	if key, ok := c.keys.Peek(chainID); ok {
		return key, true, nil
	}
	key, err := c.keys.Get(chainID, func(uint64) (string, error) {
		return fetch(ctx)
	}, false)
	return key, false, err
}

// Clear evicts the key of one chain.
func (c *PublicKeyCache) Clear(chainID uint64) {
	c.keys.Evict(chainID)
}

// ClearAll evicts every key.
func (c *PublicKeyCache) ClearAll() {
	c.keys.Purge()
}
