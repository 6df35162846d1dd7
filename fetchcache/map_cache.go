// Copyright 2026 The Fetch Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetchcache

import (
	"context"
	"sync"
)

// MapCache is the default, unbounded, in-memory Cache. It is the zero-value
// cache used by fetch.Run when the caller supplies none. Its own mutex
// guards the backing map, since the round interpreter dispatches a
// Concurrent request's Many branches and independent Sequential tasks as
// separate goroutines that may each hold a cache reference at once.
type MapCache struct {
	mu sync.RWMutex
	m  map[Key]any
}

// NewMapCache returns an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{m: make(map[Key]any)}
}

// Get implements Cache.
func (c *MapCache) Get(_ context.Context, key Key) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok, nil
}

// Put implements Cache. MapCache mutates its backing map and returns itself;
// it never forgets an entry.
func (c *MapCache) Put(_ context.Context, key Key, value any) (Cache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[Key]any)
	}
	c.m[key] = value
	return c, nil
}

// Len reports the number of cached entries. Mainly useful in tests.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// ForgetfulCache never retains anything: every Get misses and Put is a
// no-op that returns the same cache. Useful for disabling caching while
// keeping the same Cache-shaped wiring, and for exercising the "every
// identity is always missing" branch of the round interpreter in tests.
type ForgetfulCache struct{}

// Get always reports a miss.
func (ForgetfulCache) Get(context.Context, Key) (any, bool, error) { return nil, false, nil }

// Put is a no-op; the cache never changes.
func (f ForgetfulCache) Put(context.Context, Key, any) (Cache, error) { return f, nil }
