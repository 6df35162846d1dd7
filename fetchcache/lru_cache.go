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

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is a bounded Cache backed by hashicorp/golang-lru. Unlike
// MapCache it can voluntarily forget entries, so callers relying on I2
// (at-most-once fetch per identity) across a very long run should size it
// generously or accept re-fetches of evicted identities.
type LRUCache struct {
	c *lru.Cache[Key, any]
}

// NewLRUCache returns an LRUCache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[Key, any](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{c: c}, nil
}

// Get implements Cache.
func (c *LRUCache) Get(ctx context.Context, key Key) (any, bool, error) {
	v, ok := c.c.Get(key)
	return v, ok, nil
}

// Put implements Cache.
func (c *LRUCache) Put(ctx context.Context, key Key, value any) (Cache, error) {
	c.c.Add(key, value)
	return c, nil
}
