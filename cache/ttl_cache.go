// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type TTLCacheItem[V any] struct {
	value     V
	timestamp time.Time
}

// Cache with per-key TTL tracking and single-flight fetch
type TTLCache[K comparable, V any] struct {
	data    map[K]TTLCacheItem[V]
	ttl     time.Duration
	now     func() time.Time
	lock    sync.RWMutex
	sfGroup singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return NewTTLCacheWithClock[K, V](ttl, time.Now)
}

// NewTTLCacheWithClock is NewTTLCache with an explicit time source. Entries are
// timestamped and expired against [now].
func NewTTLCacheWithClock[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]TTLCacheItem[V]),
		ttl:  ttl,
		now:  now,
	}
}

// Get checks if the cached value is fresh for a given key, otherwise fetches
// the value using fetchFunc. Concurrent fetches for the same key are deduplicated.
// If [invalidate] is true, the value will be cleared from the cache prior to fetching.
// A failed fetch leaves the cache without an entry for [key].
func (c *TTLCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.Evict(key)
	} else if v, ok := c.Peek(key); ok {
		return v, nil
	}

	v, err, _ := c.sfGroup.Do(keyToString(key), func() (interface{}, error) {
		newValue, fetchErr := fetchFunc(key)
		if fetchErr != nil {
			return *new(V), fetchErr
		}

		c.lock.Lock()
		c.data[key] = TTLCacheItem[V]{
			value:     newValue,
			timestamp: c.now(),
		}
		c.lock.Unlock()

		return newValue, nil
	})
	if err != nil {
		return *new(V), err
	}

	return v.(V), nil
}

// Peek returns the value for [key] if it is present and still fresh. It never
// fetches. Expired entries are dropped.
func (c *TTLCache[K, V]) Peek(key K) (V, bool) {
	c.lock.RLock()
	item, exists := c.data[key]
	c.lock.RUnlock()
	if !exists {
		return *new(V), false
	}
	if c.now().Sub(item.timestamp) < c.ttl {
		return item.value, true
	}

	c.lock.Lock()
	if cur, ok := c.data[key]; ok && cur.timestamp.Equal(item.timestamp) {
		delete(c.data, key)
	}
	c.lock.Unlock()
	return *new(V), false
}

// Evict removes [key] from the cache.
func (c *TTLCache[K, V]) Evict(key K) {
	c.lock.Lock()
	delete(c.data, key)
	c.lock.Unlock()
}

// Purge removes every entry.
func (c *TTLCache[K, V]) Purge() {
	c.lock.Lock()
	c.data = make(map[K]TTLCacheItem[V])
	c.lock.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *TTLCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.data)
}

// keyToString is defined to allow for both fmt.Stringer and primitive string types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
