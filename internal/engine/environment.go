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

// Package engine is the round interpreter: the heart of the library. It
// consults and updates a cache, deduplicates identities within a round,
// dispatches data sources in parallel via the planner's output, and records
// round metadata into an Environment.
package engine

import (
	"time"

	"github.com/fetchkit/fetch/fetchcache"
	"github.com/fetchkit/fetch/request"
)

// Round records one execution cycle: the request that was issued, its raw
// response (keyed by source name then identity), and when it ran.
type Round struct {
	Request  request.Request
	Response map[string]map[any]any
	Start    time.Time
	End      time.Time
}

// Duration is how long the round took: End minus Start, as a time.Duration.
func (r Round) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Environment is the append-only log of rounds plus the cache value in
// effect. Rounds only append; nothing about a recorded Round is ever
// mutated.
type Environment struct {
	Rounds []Round
	Cache  fetchcache.Cache
}

// Evolve returns a new Environment with round appended and cache replaced
// by next. The receiver is never mutated, matching the monotonic,
// value-like contract of §3.
func (e Environment) Evolve(round Round, next fetchcache.Cache) Environment {
	rounds := make([]Round, len(e.Rounds)+1)
	copy(rounds, e.Rounds)
	rounds[len(e.Rounds)] = round
	return Environment{Rounds: rounds, Cache: next}
}
