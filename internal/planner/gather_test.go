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

package planner

import (
	"context"
	"testing"

	"github.com/fetchkit/fetch/internal/node"
	"github.com/fetchkit/fetch/source"
)

// fakeSource is a minimal source.Erased for exercising the planner without
// going through the generic DataSource/Erase machinery.
type fakeSource struct {
	name    string
	maxSize int
	exec    source.BatchExecution
}

func (f fakeSource) Descriptor() source.Descriptor { return source.Descriptor{Name: f.name} }
func (f fakeSource) FetchAny(context.Context, any) (any, bool, error) {
	return nil, false, nil
}
func (f fakeSource) BatchAny(context.Context, []any) (map[any]any, error) {
	return nil, nil
}
func (f fakeSource) MaxBatchSize() int                     { return f.maxSize }
func (f fakeSource) BatchExecution() source.BatchExecution { return f.exec }

func TestGatherSingleOne(t *testing.T) {
	src := fakeSource{name: "users"}
	n := node.NewOne(src, 1)

	groups := Gather(n)
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].Source.Descriptor().Name != "users" {
		t.Fatalf("group source = %q", groups[0].Source.Descriptor().Name)
	}
	if len(groups[0].IDs) != 1 || groups[0].IDs[0] != 1 {
		t.Fatalf("group IDs = %v, want [1]", groups[0].IDs)
	}
}

func TestGatherDedupsSameSourceSameIdentity(t *testing.T) {
	src := fakeSource{name: "users"}
	left := node.NewOne(src, 1)
	right := node.NewOne(src, 1)
	join := node.NewJoin(left, right, func(l, r any) any { return []any{l, r} })

	groups := Gather(join)
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if len(groups[0].IDs) != 1 {
		t.Fatalf("IDs = %v, want exactly one deduped identity", groups[0].IDs)
	}
}

func TestGatherCoalescesNestedJoinsToSameSource(t *testing.T) {
	src := fakeSource{name: "users"}
	a := node.NewOne(src, 1)
	b := node.NewOne(src, 2)
	c := node.NewOne(src, 3)
	inner := node.NewJoin(a, b, func(l, r any) any { return []any{l, r} })
	outer := node.NewJoin(inner, c, func(l, r any) any { return []any{l, r} })

	groups := Gather(outer)
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if len(groups[0].IDs) != 3 {
		t.Fatalf("IDs = %v, want 3 identities", groups[0].IDs)
	}
}

func TestGatherSortsGroupsByDescriptorName(t *testing.T) {
	zeb := fakeSource{name: "zebra"}
	alp := fakeSource{name: "alpha"}
	join := node.NewJoin(node.NewOne(zeb, 1), node.NewOne(alp, 1), func(l, r any) any { return nil })

	groups := Gather(join)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Source.Descriptor().Name != "alpha" || groups[1].Source.Descriptor().Name != "zebra" {
		t.Fatalf("groups not sorted: %v", groups)
	}
}

func TestGatherStopsAtFlatMapContinuation(t *testing.T) {
	src := fakeSource{name: "users"}
	predecessor := node.NewOne(src, 1)
	n := node.NewFlatMap(predecessor, func(v any) any {
		t.Fatal("BindFn must not run during Gather")
		return nil
	})

	groups := Gather(n)
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1 (only the predecessor)", len(groups))
	}
	if groups[0].IDs[0] != 1 {
		t.Fatalf("IDs = %v, want [1]", groups[0].IDs)
	}
}

func TestGatherPureAndErrContributeNothing(t *testing.T) {
	n := node.NewJoin(node.NewPure(1), node.NewError(nil), func(l, r any) any { return nil })
	if groups := Gather(n); len(groups) != 0 {
		t.Fatalf("len(groups) = %d, want 0", len(groups))
	}
}

func TestSubstituteResolvesOneToPure(t *testing.T) {
	src := fakeSource{name: "users"}
	n := node.NewOne(src, 1)
	results := map[string]map[any]any{"users": {1: "alice"}}

	got := Substitute(n, results)
	if got.Kind != node.Pure {
		t.Fatalf("Kind = %v, want Pure", got.Kind)
	}
	if got.Value != "alice" {
		t.Fatalf("Value = %v, want alice", got.Value)
	}
}

func TestSubstituteLeavesUnresolvedOneUntouched(t *testing.T) {
	src := fakeSource{name: "users"}
	n := node.NewOne(src, 1)
	results := map[string]map[any]any{"posts": {1: "x"}}

	got := Substitute(n, results)
	if got.Kind != node.One {
		t.Fatalf("Kind = %v, want One (no matching result)", got.Kind)
	}
}

func TestSubstituteLeavesFlatMapContinuationUnevaluated(t *testing.T) {
	src := fakeSource{name: "users"}
	predecessor := node.NewOne(src, 1)
	bind := func(v any) any { return node.NewPure(v) }
	n := node.NewFlatMap(predecessor, bind)
	results := map[string]map[any]any{"users": {1: "alice"}}

	got := Substitute(n, results)
	if got.Kind != node.FlatMap {
		t.Fatalf("Kind = %v, want FlatMap", got.Kind)
	}
	if got.Inner.(*node.Node).Kind != node.Pure {
		t.Fatalf("predecessor not substituted: %v", got.Inner.(*node.Node).Kind)
	}
	// BindFn must be the same, unevaluated continuation.
	next := got.BindFn("anything").(*node.Node)
	if next.Value != "anything" {
		t.Fatalf("BindFn produced %v, want passthrough", next.Value)
	}
}
