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

// Package fetch declares data-access computations that are automatically
// batched, deduplicated, cached, and parallelized across heterogeneous
// backends. Callers describe what data they need with Pure, Of, Map,
// FlatMap, Join and friends; Run decides how to fetch it with the fewest
// possible round-trips.
package fetch

import (
	"github.com/fetchkit/fetch/internal/node"
	"github.com/fetchkit/fetch/source"
)

// Program is an immutable description of a data-access computation
// producing a value of type A. Build one with Pure, Of, Error, Map,
// FlatMap, Join, Tuple2, Tuple3, Sequence or Traverse, then hand it to Run,
// RunLog or RunAll.
type Program[A any] struct {
	n *node.Node
}

// Pure lifts a known value into a Program that needs no round to produce
// it.
func Pure[A any](a A) Program[A] {
	return Program[A]{n: node.NewPure(a)}
}

// Error lifts a failure; running the resulting Program always fails with an
// UnhandledError wrapping err.
func Error[A any](err error) Program[A] {
	return Program[A]{n: node.NewError(err)}
}

// Of fetches a single identity from a single source.
func Of[I comparable, A any](id I, src source.DataSource[I, A]) Program[A] {
	return Program[A]{n: node.NewOne(source.Erase(src), id)}
}

// Describe names a data source. It's a convenience for implementers of
// source.DataSource who would otherwise hand-build a source.Descriptor
// literal.
func Describe(name string) source.Descriptor {
	return source.Descriptor{Name: name}
}

// Map transforms the value a Program produces once it is available,
// without introducing a data dependency a later round could block on.
func Map[A, B any](p Program[A], f func(A) B) Program[B] {
	return Program[B]{n: node.NewMap(p.n, func(v any) any {
		return f(v.(A))
	})}
}

// FlatMap sequences p and a continuation k that needs p's result to decide
// what to fetch next. Unlike Join, FlatMap introduces a genuine data
// dependency: k's program cannot be coalesced into the same round as p.
func FlatMap[A, B any](p Program[A], k func(A) Program[B]) Program[B] {
	return Program[B]{n: node.NewFlatMap(p.n, func(v any) any {
		return k(v.(A)).n
	})}
}
