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

// Package fetchcache declares the cache contract consulted and updated by
// every round, plus a couple of ready-made implementations.
package fetchcache

import "context"

// Key identifies one cached value: a data source name paired with the
// identity requested from it. Both fields must be comparable so a Cache
// implementation can use Key as a map key directly.
type Key struct {
	Source   string
	Identity any
}

// Cache maps Keys to previously-fetched values. Put is modeled as
// returning the next cache value so the interpreter can treat the cache as
// a value threaded through the round log, even though a concrete
// implementation is free to mutate in place under the interpreter's
// single-writer-per-key discipline (the round interpreter never issues two
// concurrent Put calls for the same Key within one round).
type Cache interface {
	// Get looks up key. A false second return means a miss, not an error.
	Get(ctx context.Context, key Key) (any, bool, error)

	// Put records value under key and returns the cache to use from now on.
	// Implementations that mutate in place may return the receiver.
	Put(ctx context.Context, key Key, value any) (Cache, error)
}
