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

import "github.com/fetchkit/fetch/internal/node"

// Pair holds the result of Join/Tuple2: two independently-computed values.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple holds the result of Tuple3.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Quad holds the result of Tuple4.
type Quad[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

// Join declares pa and pb as independent: both are computed, in the same
// round whenever the parallel-join pass can manage it, then paired.
func Join[A, B any](pa Program[A], pb Program[B]) Program[Pair[A, B]] {
	n := node.NewJoin(pa.n, pb.n, func(l, r any) any {
		return Pair[A, B]{First: l.(A), Second: r.(B)}
	})
	return Program[Pair[A, B]]{n: n}
}

// Tuple2 is an alias for Join, named to match the family of Tuple2..Tuple4
// builders.
func Tuple2[A, B any](pa Program[A], pb Program[B]) Program[Pair[A, B]] {
	return Join(pa, pb)
}

// Tuple3 declares three programs as mutually independent.
func Tuple3[A, B, C any](pa Program[A], pb Program[B], pc Program[C]) Program[Triple[A, B, C]] {
	n := node.NewJoin(node.NewJoin(pa.n, pb.n, func(l, r any) any {
		return Pair[A, B]{First: l.(A), Second: r.(B)}
	}), pc.n, func(l, r any) any {
		pair := l.(Pair[A, B])
		return Triple[A, B, C]{First: pair.First, Second: pair.Second, Third: r.(C)}
	})
	return Program[Triple[A, B, C]]{n: n}
}

// Tuple4 declares four programs as mutually independent.
func Tuple4[A, B, C, D any](pa Program[A], pb Program[B], pc Program[C], pd Program[D]) Program[Quad[A, B, C, D]] {
	n := node.NewJoin(node.NewJoin(node.NewJoin(pa.n, pb.n, func(l, r any) any {
		return Pair[A, B]{First: l.(A), Second: r.(B)}
	}), pc.n, func(l, r any) any {
		pair := l.(Pair[A, B])
		return Triple[A, B, C]{First: pair.First, Second: pair.Second, Third: r.(C)}
	}), pd.n, func(l, r any) any {
		triple := l.(Triple[A, B, C])
		return Quad[A, B, C, D]{First: triple.First, Second: triple.Second, Third: triple.Third, Fourth: r.(D)}
	})
	return Program[Quad[A, B, C, D]]{n: n}
}

// Sequence folds a slice of independent programs with Join, preserving
// order. A Pure branch contributes nothing to the merged request (see
// internal/planner.Gather), so Sequence over a mix of Pure and
// source-backed programs still coalesces every source-backed element into
// one round.
func Sequence[A any](ps []Program[A]) Program[[]A] {
	acc := node.NewPure([]A{})
	for _, p := range ps {
		acc = node.NewJoin(acc, p.n, func(l, r any) any {
			accSlice := l.([]A)
			out := make([]A, len(accSlice)+1)
			copy(out, accSlice)
			out[len(accSlice)] = r.(A)
			return out
		})
	}
	return Program[[]A]{n: acc}
}

// Traverse maps f over xs and sequences the results.
func Traverse[X, A any](xs []X, f func(X) Program[A]) Program[[]A] {
	ps := make([]Program[A], len(xs))
	for i, x := range xs {
		ps[i] = f(x)
	}
	return Sequence(ps)
}
