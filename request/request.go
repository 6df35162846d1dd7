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

// Package request declares the units a round can execute: one identity from
// one source, many identities from one source, or several such batches
// across distinct sources run together.
package request

import (
	"fmt"
	"sort"

	"github.com/fetchkit/fetch/source"
)

// Request is the sealed set of things a round may dispatch.
type Request interface {
	isRequest()
	// Descriptors lists, in request order, the sources this request touches.
	Descriptors() []source.Descriptor
}

// One asks a single source for a single identity.
type One struct {
	Source source.Erased
	ID     any
}

func (One) isRequest() {}

// Descriptors implements Request.
func (o One) Descriptors() []source.Descriptor { return []source.Descriptor{o.Source.Descriptor()} }

// Many asks a single source for a non-empty set of identities in one
// round-trip. IDs preserves insertion order so the batch-size pass can
// split it deterministically.
type Many struct {
	Source source.Erased
	IDs    []any
}

func (Many) isRequest() {}

// Descriptors implements Request.
func (m Many) Descriptors() []source.Descriptor { return []source.Descriptor{m.Source.Descriptor()} }

// NewMany builds a Many request, rejecting an empty identity set.
func NewMany(src source.Erased, ids []any) (Many, error) {
	if len(ids) == 0 {
		return Many{}, fmt.Errorf("fetch: Many requires at least one identity, source %q got none", src.Descriptor().Name)
	}
	return Many{Source: src, IDs: ids}, nil
}

// Concurrent bundles several Many requests to be dispatched as one round.
// The inner requests usually target distinct sources, but an oversized
// Parallel-execution batch contributes one Many per chunk, all against the
// same source. A Concurrent with exactly one inner
// request should be simplified to that Many before being recorded.
type Concurrent struct {
	Requests []Many
}

func (Concurrent) isRequest() {}

// Descriptors implements Request.
func (c Concurrent) Descriptors() []source.Descriptor {
	ds := make([]source.Descriptor, len(c.Requests))
	for i, r := range c.Requests {
		ds[i] = r.Source.Descriptor()
	}
	return ds
}

// NewConcurrent builds a Concurrent request, rejecting an empty list and
// sorting the inner requests lexicographically by descriptor name so
// recorded rounds are deterministic for testing.
func NewConcurrent(requests []Many) (Concurrent, error) {
	if len(requests) == 0 {
		return Concurrent{}, fmt.Errorf("fetch: Concurrent requires at least one inner request")
	}
	sorted := make([]Many, len(requests))
	copy(sorted, requests)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Source.Descriptor().Name < sorted[j].Source.Descriptor().Name
	})
	return Concurrent{Requests: sorted}, nil
}

// Simplify collapses a single-element Concurrent down to its inner Many, as
// described on Concurrent above; any other Request is returned unchanged.
func Simplify(r Request) Request {
	if c, ok := r.(Concurrent); ok && len(c.Requests) == 1 {
		return c.Requests[0]
	}
	return r
}
