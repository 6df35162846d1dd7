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

package fetch

import (
	"context"

	"github.com/fetchkit/fetch/fetchcache"
	"github.com/fetchkit/fetch/internal/engine"
)

// Environment is the accumulated round log plus the cache in effect at the
// end of a run.
type Environment = engine.Environment

// Round records one execution cycle: the request issued, its raw response,
// and when it ran.
type Round = engine.Round

// NotFoundError reports that a single Of fetch returned no value.
type NotFoundError = engine.NotFoundError

// MissingIdentitiesError reports that a batch or concurrent round returned
// fewer entries than requested.
type MissingIdentitiesError = engine.MissingIdentitiesError

// UnhandledError wraps a user-lifted Error(e) value or a data-source
// exception.
type UnhandledError = engine.UnhandledError

func resolveCache(cache []fetchcache.Cache) fetchcache.Cache {
	if len(cache) > 0 && cache[0] != nil {
		return cache[0]
	}
	return fetchcache.NewMapCache()
}

// Run executes p and returns its value. cache is optional; when omitted an
// empty MapCache is used.
func Run[A any](ctx context.Context, p Program[A], cache ...fetchcache.Cache) (A, error) {
	_, a, err := RunAll(ctx, p, cache...)
	return a, err
}

// RunLog executes p and returns the recorded rounds alongside the value.
func RunLog[A any](ctx context.Context, p Program[A], cache ...fetchcache.Cache) ([]Round, A, error) {
	env, a, err := RunAll(ctx, p, cache...)
	return env.Rounds, a, err
}

// RunAll executes p and returns the full Environment (round log and final
// cache) alongside the value.
func RunAll[A any](ctx context.Context, p Program[A], cache ...fetchcache.Cache) (Environment, A, error) {
	it := engine.New(resolveCache(cache))
	var zero A
	v, err := it.Eval(ctx, p.n)
	if err != nil {
		return it.Environment(), zero, err
	}
	return it.Environment(), v.(A), nil
}
