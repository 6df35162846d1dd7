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

package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/fetchkit/fetch/fetchcache"
	"github.com/fetchkit/fetch/internal/node"
	"github.com/fetchkit/fetch/internal/planner"
	"github.com/fetchkit/fetch/request"
	"github.com/fetchkit/fetch/source"
)

// Interpreter executes one program tree against an evolving Environment.
// It is not safe for concurrent use by multiple goroutines running
// different top-level programs; each Run call should use its own
// Interpreter (the root fetch package does this for every call).
type Interpreter struct {
	mu  sync.Mutex
	env Environment
}

// New returns an Interpreter seeded with the given cache and an empty round
// log.
func New(cache fetchcache.Cache) *Interpreter {
	return &Interpreter{env: Environment{Cache: cache}}
}

// Environment returns the current environment snapshot.
func (it *Interpreter) Environment() Environment {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.env
}

// Eval walks n, executing rounds as needed, and returns the final value.
func (it *Interpreter) Eval(ctx context.Context, n *node.Node) (any, error) {
	switch n.Kind {
	case node.Pure:
		return n.Value, nil
	case node.Err:
		return nil, &UnhandledError{Env: it.Environment(), Cause: n.Error}
	case node.Map:
		v, err := it.Eval(ctx, n.Inner.(*node.Node))
		if err != nil {
			return nil, err
		}
		return n.MapFn(v), nil
	case node.FlatMap:
		v, err := it.Eval(ctx, n.Inner.(*node.Node))
		if err != nil {
			return nil, err
		}
		next := n.BindFn(v).(*node.Node)
		return it.Eval(ctx, next)
	case node.One:
		return it.resolveOne(ctx, n)
	case node.Join:
		return it.resolveJoin(ctx, n)
	default:
		panic("fetch: unreachable node kind")
	}
}

func (it *Interpreter) resolveOne(ctx context.Context, n *node.Node) (any, error) {
	groups := planner.Gather(n)
	results, err := it.executeGroups(ctx, groups)
	if err != nil {
		return nil, err
	}
	substituted := planner.Substitute(n, results)
	return substituted.Value, nil
}

func (it *Interpreter) resolveJoin(ctx context.Context, n *node.Node) (any, error) {
	groups := planner.Gather(n)
	substituted := n
	if len(groups) > 0 {
		results, err := it.executeGroups(ctx, groups)
		if err != nil {
			return nil, err
		}
		substituted = planner.Substitute(n, results)
	}

	var lv, rv any
	var lerr, rerr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lv, lerr = it.Eval(ctx, substituted.Left.(*node.Node))
	}()
	go func() {
		defer wg.Done()
		rv, rerr = it.Eval(ctx, substituted.Right.(*node.Node))
	}()
	wg.Wait()
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return substituted.Combine(lv, rv), nil
}

// executeGroups runs the batch-size pass over groups and dispatches the
// resulting plan: one shared round for everything that fits or splits in
// Parallel, plus an independent round sequence per oversized Sequential
// source. It returns the merged (cache-hit + freshly-fetched) values keyed
// by source name then identity.
func (it *Interpreter) executeGroups(ctx context.Context, groups []*planner.Group) (map[string]map[any]any, error) {
	plan := planner.BuildPlan(groups)

	results := map[string]map[any]any{}
	var mu sync.Mutex
	merge := func(part map[string]map[any]any) {
		mu.Lock()
		defer mu.Unlock()
		for name, vals := range part {
			if results[name] == nil {
				results[name] = map[any]any{}
			}
			for k, v := range vals {
				results[name][k] = v
			}
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	if len(plan.ConcurrentChunks) > 0 {
		eg.Go(func() error {
			req, err := buildRequest(plan.ConcurrentChunks)
			if err != nil {
				return err
			}
			part, err := it.runRound(ctx, req)
			if err != nil {
				return err
			}
			merge(part)
			return nil
		})
	}

	for _, task := range plan.SequentialTasks {
		task := task
		eg.Go(func() error {
			for _, chunk := range task.Chunks {
				m, err := request.NewMany(task.Source, chunk)
				if err != nil {
					return err
				}
				part, err := it.runRound(ctx, request.Simplify(m))
				if err != nil {
					return err
				}
				merge(part)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func buildRequest(chunks []planner.Chunk) (request.Request, error) {
	if len(chunks) == 1 {
		c := chunks[0]
		if len(c.IDs) == 1 {
			return request.One{Source: c.Source, ID: c.IDs[0]}, nil
		}
		return request.NewMany(c.Source, c.IDs)
	}
	many := make([]request.Many, len(chunks))
	for i, c := range chunks {
		m, err := request.NewMany(c.Source, c.IDs)
		if err != nil {
			return nil, err
		}
		many[i] = m
	}
	conc, err := request.NewConcurrent(many)
	if err != nil {
		return nil, err
	}
	return request.Simplify(conc), nil
}

// work is the per-descriptor cache partition for one round.
type work struct {
	src        source.Erased
	cachedVals map[any]any
	missing    []any
}

func (it *Interpreter) partition(ctx context.Context, src source.Erased, ids []any) (*work, error) {
	w := &work{src: src, cachedVals: map[any]any{}}
	it.mu.Lock()
	cache := it.env.Cache
	it.mu.Unlock()
	for _, id := range ids {
		key := fetchcache.Key{Source: src.Descriptor().Name, Identity: id}
		v, hit, err := cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if hit {
			w.cachedVals[id] = v
		} else {
			w.missing = append(w.missing, id)
		}
	}
	return w, nil
}

// runRound executes one Request: it consults the cache, short-circuits if
// everything is already cached, otherwise dispatches the missing subset in
// parallel per descriptor, updates the cache, and records exactly one
// Round.
func (it *Interpreter) runRound(ctx context.Context, req request.Request) (map[string]map[any]any, error) {
	var works []*work
	switch r := req.(type) {
	case request.One:
		w, err := it.partition(ctx, r.Source, []any{r.ID})
		if err != nil {
			return nil, err
		}
		works = []*work{w}
	case request.Many:
		w, err := it.partition(ctx, r.Source, r.IDs)
		if err != nil {
			return nil, err
		}
		works = []*work{w}
	case request.Concurrent:
		for _, m := range r.Requests {
			w, err := it.partition(ctx, m.Source, m.IDs)
			if err != nil {
				return nil, err
			}
			works = append(works, w)
		}
	}

	anyMissing := false
	for _, w := range works {
		if len(w.missing) > 0 {
			anyMissing = true
		}
	}
	if !anyMissing {
		klog.V(2).Infof("fetch: round short-circuited, all identities cached")
		out := map[string]map[any]any{}
		for _, w := range works {
			out[w.src.Descriptor().Name] = w.cachedVals
		}
		return out, nil
	}

	start := time.Now()
	klog.V(1).Infof("fetch: dispatching round for %v", req.Descriptors())

	fetched := map[string]map[any]any{}
	missingOut := map[string][]any{}
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)

	for _, w := range works {
		w := w
		if len(w.missing) == 0 {
			continue
		}
		eg.Go(func() error {
			name := w.src.Descriptor().Name
			if len(w.missing) == 1 {
				v, found, err := w.src.FetchAny(ctx, w.missing[0])
				if err != nil {
					return err
				}
				if !found {
					mu.Lock()
					missingOut[name] = append(missingOut[name], w.missing[0])
					mu.Unlock()
					return nil
				}
				mu.Lock()
				if fetched[name] == nil {
					fetched[name] = map[any]any{}
				}
				fetched[name][w.missing[0]] = v
				mu.Unlock()
				return nil
			}
			got, err := w.src.BatchAny(ctx, w.missing)
			if err != nil {
				return err
			}
			mu.Lock()
			if fetched[name] == nil {
				fetched[name] = map[any]any{}
			}
			for _, id := range w.missing {
				if v, ok := got[id]; ok {
					fetched[name][id] = v
				} else {
					missingOut[name] = append(missingOut[name], id)
				}
			}
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		klog.Errorf("fetch: round failed: %v", err)
		return nil, &UnhandledError{Env: it.Environment(), Cause: err}
	}
	end := time.Now()

	if len(missingOut) > 0 {
		if _, ok := req.(request.One); ok {
			for name, ids := range missingOut {
				klog.V(1).Infof("fetch: identity %v not found in source %q", ids[0], name)
				return nil, &NotFoundError{Env: it.Environment(), Source: name, ID: ids[0]}
			}
		}
		klog.V(1).Infof("fetch: round completed with missing identities: %v", missingOut)
		return nil, &MissingIdentitiesError{Env: it.Environment(), Missing: missingOut}
	}

	// works may repeat a source name when an oversized Parallel batch was
	// split into several same-source chunks; accumulate rather than
	// overwrite so no chunk's cache hits are lost from the round's response.
	out := map[string]map[any]any{}
	for _, w := range works {
		name := w.src.Descriptor().Name
		if out[name] == nil {
			out[name] = map[any]any{}
		}
		for k, v := range w.cachedVals {
			out[name][k] = v
		}
	}

	it.mu.Lock()
	cache := it.env.Cache
	for name, vals := range fetched {
		if out[name] == nil {
			out[name] = map[any]any{}
		}
		for k, v := range vals {
			out[name][k] = v
			var err error
			cache, err = cache.Put(ctx, fetchcache.Key{Source: name, Identity: k}, v)
			if err != nil {
				it.mu.Unlock()
				return nil, &UnhandledError{Env: it.Environment(), Cause: err}
			}
		}
	}
	it.env = it.env.Evolve(Round{Request: req, Response: out, Start: start, End: end}, cache)
	it.mu.Unlock()

	klog.V(1).Infof("fetch: round recorded in %s", end.Sub(start))
	return out, nil
}
