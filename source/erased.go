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

package source

import (
	"context"
	"fmt"
)

// Erased is a DataSource with its identity/result type parameters erased to
// any. The program tree and the round interpreter are built against Erased
// so a single tree can carry requests to heterogeneous sources; the typed
// DataSource API is what user code and the algebra builders see.
type Erased interface {
	Descriptor() Descriptor
	FetchAny(ctx context.Context, id any) (any, bool, error)
	BatchAny(ctx context.Context, ids []any) (map[any]any, error)
	MaxBatchSize() int
	BatchExecution() BatchExecution
}

// Erase wraps a typed DataSource as an Erased one. Builders in the root
// fetch package call this so the resulting program node needs no type
// parameter beyond the value it ultimately produces.
func Erase[I comparable, A any](s DataSource[I, A]) Erased {
	return erasedSource[I, A]{s}
}

type erasedSource[I comparable, A any] struct {
	inner DataSource[I, A]
}

func (e erasedSource[I, A]) Descriptor() Descriptor { return e.inner.Descriptor() }

func (e erasedSource[I, A]) FetchAny(ctx context.Context, id any) (any, bool, error) {
	typed, ok := id.(I)
	if !ok {
		return nil, false, fmt.Errorf("fetch: identity %v has type %T, source %q wants %T", id, id, e.inner.Descriptor().Name, typed)
	}
	a, found, err := e.inner.Fetch(ctx, typed)
	return a, found, err
}

func (e erasedSource[I, A]) BatchAny(ctx context.Context, ids []any) (map[any]any, error) {
	typed := make([]I, len(ids))
	for i, id := range ids {
		v, ok := id.(I)
		if !ok {
			return nil, fmt.Errorf("fetch: identity %v has type %T, source %q wants %T", id, id, e.inner.Descriptor().Name, v)
		}
		typed[i] = v
	}
	res, err := e.inner.Batch(ctx, typed)
	if err != nil {
		return nil, err
	}
	out := make(map[any]any, len(res))
	for k, v := range res {
		out[k] = v
	}
	return out, nil
}

func (e erasedSource[I, A]) MaxBatchSize() int { return e.inner.MaxBatchSize() }

func (e erasedSource[I, A]) BatchExecution() BatchExecution { return e.inner.BatchExecution() }
