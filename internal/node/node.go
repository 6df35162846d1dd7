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

// Package node holds the type-erased program tree. The public algebra in
// the root fetch package is generic over the value a Program produces;
// internally the tree itself only ever carries `any`, which is what lets
// the planner and the interpreter walk it without a type parameter of
// their own. Builders in the root package are the only place the erasure
// and its inverse (a type assertion on the final result) happen.
package node

import "github.com/fetchkit/fetch/source"

// Kind tags the variant of one Node.
type Kind int

const (
	Pure Kind = iota
	One
	Err
	Map
	FlatMap
	Join
)

// Node is one cell of a program tree. Only the fields relevant to Kind are
// populated; see the Kind-specific constructors below.
type Node struct {
	Kind Kind

	// Pure
	Value any

	// One
	Source source.Erased
	ID     any

	// Err
	Error error

	// Map, FlatMap share Inner
	Inner any // *Node, kept as `any` purely to avoid an import cycle with itself; always *Node

	// Map
	MapFn func(any) any

	// FlatMap
	BindFn func(any) any // returns *Node

	// Join
	Left, Right any          // *Node
	Combine     func(l, r any) any
}

// NewPure builds a Pure node.
func NewPure(v any) *Node { return &Node{Kind: Pure, Value: v} }

// NewOne builds a One node.
func NewOne(src source.Erased, id any) *Node { return &Node{Kind: One, Source: src, ID: id} }

// NewError builds an Err node.
func NewError(err error) *Node { return &Node{Kind: Err, Error: err} }

// NewMap builds a Map node.
func NewMap(inner *Node, fn func(any) any) *Node {
	return &Node{Kind: Map, Inner: inner, MapFn: fn}
}

// NewFlatMap builds a FlatMap node. bind returns *Node but is typed `func(any) any`
// to keep this package free of a self-referential generic signature; callers
// always pass something that returns *Node.
func NewFlatMap(inner *Node, bind func(any) any) *Node {
	return &Node{Kind: FlatMap, Inner: inner, BindFn: bind}
}

// NewJoin builds a Join node combining two independent branches.
func NewJoin(left, right *Node, combine func(l, r any) any) *Node {
	return &Node{Kind: Join, Left: left, Right: right, Combine: combine}
}
