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

// Package source declares the contract every fetch backend implements:
// a single-identity fetch, a batch fetch, and the policy the planner needs
// to size and schedule that batch.
package source

import "context"

// BatchExecution describes how a data source wants an oversized batch,
// once split by the planner, to run.
type BatchExecution int

const (
	// Parallel runs the split sub-batches concurrently.
	Parallel BatchExecution = iota
	// Sequential runs the split sub-batches one at a time, each its own round.
	Sequential
)

func (e BatchExecution) String() string {
	switch e {
	case Parallel:
		return "Parallel"
	case Sequential:
		return "Sequential"
	default:
		return "BatchExecution(unknown)"
	}
}

// Descriptor is a stable handle naming a data source. Two descriptors are
// equal iff their Name fields match; callers are responsible for keeping
// names unique across the sources used in one program.
type Descriptor struct {
	Name string
}

// DataSource resolves identities of type I to results of type A. Batch must
// be observationally equivalent to calling Fetch per identity and collecting
// the non-missing results, modulo efficiency and atomicity: it must never
// return an entry for an identity that was not requested.
type DataSource[I comparable, A any] interface {
	// Descriptor names this source. It must return the same Descriptor on
	// every call.
	Descriptor() Descriptor

	// Fetch resolves a single identity. A false second return means the
	// identity is absent upstream, not an error.
	Fetch(ctx context.Context, id I) (A, bool, error)

	// Batch resolves a non-empty set of identities in one round-trip.
	// Identities absent upstream are simply omitted from the result map.
	Batch(ctx context.Context, ids []I) (map[I]A, error)

	// MaxBatchSize is the largest identity set this source accepts in one
	// Batch call. Zero means unlimited.
	MaxBatchSize() int

	// BatchExecution reports how the chunks of an oversized batch run once
	// the planner has split it by MaxBatchSize.
	BatchExecution() BatchExecution
}
