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
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/fetchkit/fetch/fetchcache"
	"github.com/fetchkit/fetch/internal/node"
	"github.com/fetchkit/fetch/source"
)

// fakeSource is a generic in-memory source.DataSource used across the
// interpreter's tests. It counts Fetch/Batch calls so tests can assert on
// round count independent of internal structure.
type fakeSource[I comparable, A any] struct {
	name       string
	data       map[I]A
	maxSize    int
	exec       source.BatchExecution
	fetchCalls int32
	batchCalls int32
}

func (f *fakeSource[I, A]) Descriptor() source.Descriptor { return source.Descriptor{Name: f.name} }

func (f *fakeSource[I, A]) Fetch(_ context.Context, id I) (A, bool, error) {
	atomic.AddInt32(&f.fetchCalls, 1)
	v, ok := f.data[id]
	return v, ok, nil
}

func (f *fakeSource[I, A]) Batch(_ context.Context, ids []I) (map[I]A, error) {
	atomic.AddInt32(&f.batchCalls, 1)
	out := make(map[I]A, len(ids))
	for _, id := range ids {
		if v, ok := f.data[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeSource[I, A]) MaxBatchSize() int                     { return f.maxSize }
func (f *fakeSource[I, A]) BatchExecution() source.BatchExecution { return f.exec }

func (f *fakeSource[I, A]) calls() int32 {
	return atomic.LoadInt32(&f.fetchCalls) + atomic.LoadInt32(&f.batchCalls)
}

func newFakeSource[A any](name string, data map[int]A) *fakeSource[int, A] {
	return &fakeSource[int, A]{name: name, data: data}
}

func TestEvalSingleFetch(t *testing.T) {
	src := newFakeSource("users", map[int]string{1: "alice"})
	n := node.NewOne(source.Erase[int, string](src), 1)

	it := New(fetchcache.NewMapCache())
	v, err := it.Eval(context.Background(), n)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.(string) != "alice" {
		t.Fatalf("v = %v, want alice", v)
	}
	if len(it.Environment().Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(it.Environment().Rounds))
	}
	if src.calls() != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls())
	}
}

func TestEvalTupleOfThreeToSameSourceIsOneRound(t *testing.T) {
	src := newFakeSource("users", map[int]string{1: "a", 2: "b", 3: "c"})
	erased := source.Erase[int, string](src)
	ab := node.NewJoin(node.NewOne(erased, 1), node.NewOne(erased, 2), func(l, r any) any {
		return []any{l, r}
	})
	abc := node.NewJoin(ab, node.NewOne(erased, 3), func(l, r any) any {
		return append(l.([]any), r)
	})

	it := New(fetchcache.NewMapCache())
	_, err := it.Eval(context.Background(), abc)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(it.Environment().Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(it.Environment().Rounds))
	}
	if src.calls() != 1 {
		t.Fatalf("source calls = %d, want 1 (one Batch call)", src.calls())
	}
}

func TestEvalCrossSourceParallelismIsOneRound(t *testing.T) {
	users := newFakeSource("users", map[int]string{1: "alice"})
	posts := newFakeSource("posts", map[int]string{1: "hello"})
	n := node.NewJoin(
		node.NewOne(source.Erase[int, string](users), 1),
		node.NewOne(source.Erase[int, string](posts), 1),
		func(l, r any) any { return []any{l, r} },
	)

	it := New(fetchcache.NewMapCache())
	v, err := it.Eval(context.Background(), n)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	pair := v.([]any)
	if pair[0].(string) != "alice" || pair[1].(string) != "hello" {
		t.Fatalf("pair = %v", pair)
	}
	if len(it.Environment().Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(it.Environment().Rounds))
	}

	want := Round{
		Response: map[string]map[any]any{
			"users": {1: "alice"},
			"posts": {1: "hello"},
		},
	}
	got := it.Environment().Rounds[0]
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Round{}, "Request", "Start", "End")); diff != "" {
		t.Fatalf("round response mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalDedupsIdenticalIdentityAcrossBranches(t *testing.T) {
	src := newFakeSource("users", map[int]string{1: "alice"})
	erased := source.Erase[int, string](src)
	n := node.NewJoin(node.NewOne(erased, 1), node.NewOne(erased, 1), func(l, r any) any {
		return []any{l, r}
	})

	it := New(fetchcache.NewMapCache())
	_, err := it.Eval(context.Background(), n)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if src.fetchCalls != 1 {
		t.Fatalf("fetchCalls = %d, want 1 (deduped, dispatched as a single-identity fetch)", src.fetchCalls)
	}
}

func TestEvalReusesCacheAcrossInterpreters(t *testing.T) {
	src := newFakeSource("users", map[int]string{1: "alice"})
	erased := source.Erase[int, string](src)
	cache := fetchcache.NewMapCache()

	it1 := New(cache)
	if _, err := it1.Eval(context.Background(), node.NewOne(erased, 1)); err != nil {
		t.Fatalf("first Eval: %v", err)
	}
	if src.calls() != 1 {
		t.Fatalf("calls after first Eval = %d, want 1", src.calls())
	}

	it2 := New(it1.Environment().Cache)
	v, err := it2.Eval(context.Background(), node.NewOne(erased, 1))
	if err != nil {
		t.Fatalf("second Eval: %v", err)
	}
	if v.(string) != "alice" {
		t.Fatalf("v = %v, want alice", v)
	}
	if src.calls() != 1 {
		t.Fatalf("calls after second Eval = %d, want still 1 (cache reuse, no round)", src.calls())
	}
	if len(it2.Environment().Rounds) != 0 {
		t.Fatalf("rounds = %d, want 0 (fully cached, short-circuited)", len(it2.Environment().Rounds))
	}
}

func TestEvalOversizedBatchSplitsIntoMaxSizeChunks(t *testing.T) {
	data := map[int]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e"}
	src := &fakeSource[int, string]{name: "users", data: data, maxSize: 2, exec: source.Parallel}
	erased := source.Erase[int, string](src)

	var n *node.Node
	for i := 1; i <= 5; i++ {
		one := node.NewOne(erased, i)
		if n == nil {
			n = one
			continue
		}
		prev := n
		n = node.NewJoin(prev, one, func(l, r any) any { return nil })
	}

	it := New(fetchcache.NewMapCache())
	_, err := it.Eval(context.Background(), n)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(it.Environment().Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1 (Parallel split stays in one round)", len(it.Environment().Rounds))
	}
	if src.calls() != 3 {
		t.Fatalf("calls = %d, want 3 dispatches (chunks of size 2,2,1: two Batch calls, one Fetch)", src.calls())
	}
	if src.batchCalls != 2 || src.fetchCalls != 1 {
		t.Fatalf("batchCalls=%d fetchCalls=%d, want 2 and 1 (the size-1 chunk dispatches via Fetch)", src.batchCalls, src.fetchCalls)
	}
}

func TestEvalMissingIdentityFromBatchReturnsMissingIdentitiesError(t *testing.T) {
	src := newFakeSource("users", map[int]string{1: "alice"})
	erased := source.Erase[int, string](src)
	n := node.NewJoin(node.NewOne(erased, 1), node.NewOne(erased, 2), func(l, r any) any {
		return []any{l, r}
	})

	it := New(fetchcache.NewMapCache())
	_, err := it.Eval(context.Background(), n)
	if err == nil {
		t.Fatal("expected an error for the missing identity")
	}
	mie, ok := err.(*MissingIdentitiesError)
	if !ok {
		t.Fatalf("err = %T, want *MissingIdentitiesError", err)
	}
	if len(mie.Env.Rounds) != 0 {
		t.Fatalf("Env.Rounds = %v, want empty (failing round never committed)", mie.Env.Rounds)
	}
	if len(mie.Missing["users"]) != 1 || mie.Missing["users"][0] != 2 {
		t.Fatalf("Missing = %v, want users:[2]", mie.Missing)
	}
}

func TestEvalSingleFetchNotFoundReturnsNotFoundError(t *testing.T) {
	src := newFakeSource("users", map[int]string{})
	n := node.NewOne(source.Erase[int, string](src), 99)

	it := New(fetchcache.NewMapCache())
	_, err := it.Eval(context.Background(), n)
	if err == nil {
		t.Fatal("expected a NotFoundError")
	}
	nfe, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("err = %T, want *NotFoundError", err)
	}
	if nfe.ID != 99 || nfe.Source != "users" {
		t.Fatalf("NotFoundError = %+v", nfe)
	}
}

func TestEvalSequentialDependencyTakesTwoRounds(t *testing.T) {
	users := newFakeSource("users", map[int]string{1: "alice"})
	postIDsBySearch := newFakeSource("search", map[int]int{1: 1})

	predecessor := node.NewOne(source.Erase[int, int](postIDsBySearch), 1)
	n := node.NewFlatMap(predecessor, func(v any) any {
		return node.NewOne(source.Erase[int, string](users), v.(int))
	})

	it := New(fetchcache.NewMapCache())
	v, err := it.Eval(context.Background(), n)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.(string) != "alice" {
		t.Fatalf("v = %v, want alice", v)
	}
	if len(it.Environment().Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2 (genuine data dependency)", len(it.Environment().Rounds))
	}
}

func TestEvalPureNeedsNoRound(t *testing.T) {
	it := New(fetchcache.NewMapCache())
	v, err := it.Eval(context.Background(), node.NewPure(7))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.(int) != 7 {
		t.Fatalf("v = %v, want 7", v)
	}
	if len(it.Environment().Rounds) != 0 {
		t.Fatalf("rounds = %d, want 0", len(it.Environment().Rounds))
	}
}

func TestEvalMapDoesNotIntroduceARound(t *testing.T) {
	src := newFakeSource("users", map[int]string{1: "alice"})
	n := node.NewMap(node.NewOne(source.Erase[int, string](src), 1), func(v any) any {
		return len(v.(string))
	})

	it := New(fetchcache.NewMapCache())
	v, err := it.Eval(context.Background(), n)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.(int) != 5 {
		t.Fatalf("v = %v, want 5", v)
	}
	if len(it.Environment().Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1 (Map piggybacks on its inner's round)", len(it.Environment().Rounds))
	}
}
