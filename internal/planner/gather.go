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

// Package planner implements the two rewriting passes of the fetch
// compiler: parallel-join coalescing (Gather/Substitute) and max-batch-size
// splitting (BuildPlan). Both work on the type-erased program tree so they
// have no type parameter of their own; the round interpreter in
// internal/engine drives them.
package planner

import (
	"sort"

	"github.com/fetchkit/fetch/internal/node"
	"github.com/fetchkit/fetch/source"
)

// Group is one descriptor's merged, deduplicated identity set gathered from
// one or more branches of a program tree.
type Group struct {
	Source source.Erased
	IDs    []any
}

// Gather walks n and extracts its initial request set: the One nodes
// reachable without crossing an unresolved FlatMap continuation. Pure,
// Error, Map and a FlatMap's predecessor preserve extractability; a
// FlatMap's continuation does not (it hasn't run yet, so it has nothing to
// contribute). Nested Joins are fully flattened into the same result, which
// is what makes "every level of joined concurrent fetches" collapse into a
// single round. Identities are deduplicated and returned in first-seen
// order per descriptor; the groups themselves are returned sorted
// lexicographically by descriptor name, matching the Concurrent tie-break.
func Gather(n *node.Node) []*Group {
	acc := map[string]*Group{}
	order := map[string]map[any]bool{}
	var walk func(n *node.Node)
	walk = func(n *node.Node) {
		switch n.Kind {
		case node.Pure, node.Err:
			// contributes nothing
		case node.One:
			name := n.Source.Descriptor().Name
			g, ok := acc[name]
			if !ok {
				g = &Group{Source: n.Source}
				acc[name] = g
				order[name] = map[any]bool{}
			}
			if !order[name][n.ID] {
				order[name][n.ID] = true
				g.IDs = append(g.IDs, n.ID)
			}
		case node.Map:
			walk(n.Inner.(*node.Node))
		case node.FlatMap:
			// the predecessor is extractable; the continuation is not because
			// it has not been evaluated yet.
			walk(n.Inner.(*node.Node))
		case node.Join:
			walk(n.Left.(*node.Node))
			walk(n.Right.(*node.Node))
		}
	}
	walk(n)

	names := make([]string, 0, len(acc))
	for name := range acc {
		names = append(names, name)
	}
	sort.Strings(names)
	groups := make([]*Group, len(names))
	for i, name := range names {
		groups[i] = acc[name]
	}
	return groups
}

// Substitute rewrites n, replacing every One node that was part of the
// gathered initial request set with a Pure node carrying its fetched value.
// FlatMap continuations, never visited by Gather, are left untouched: their
// BindFn is copied across unevaluated.
func Substitute(n *node.Node, results map[string]map[any]any) *node.Node {
	switch n.Kind {
	case node.Pure, node.Err:
		return n
	case node.One:
		name := n.Source.Descriptor().Name
		if vals, ok := results[name]; ok {
			if v, ok := vals[n.ID]; ok {
				return node.NewPure(v)
			}
		}
		return n
	case node.Map:
		return node.NewMap(Substitute(n.Inner.(*node.Node), results), n.MapFn)
	case node.FlatMap:
		return node.NewFlatMap(Substitute(n.Inner.(*node.Node), results), n.BindFn)
	case node.Join:
		return node.NewJoin(
			Substitute(n.Left.(*node.Node), results),
			Substitute(n.Right.(*node.Node), results),
			n.Combine,
		)
	default:
		return n
	}
}
