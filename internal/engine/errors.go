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

import "fmt"

// NotFoundError reports that a single FetchOne returned no value.
type NotFoundError struct {
	Env    Environment
	Source string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fetch: identity %v not found in source %q", e.ID, e.Source)
}

// MissingIdentitiesError reports that a batch or concurrent round returned
// fewer entries than requested. Missing maps each affected source's name to
// the identities it failed to resolve.
type MissingIdentitiesError struct {
	Env     Environment
	Missing map[string][]any
}

func (e *MissingIdentitiesError) Error() string {
	return fmt.Sprintf("fetch: missing identities: %v", e.Missing)
}

// UnhandledError wraps a user-lifted Error(e) value or an exception raised
// by a data source.
type UnhandledError struct {
	Env   Environment
	Cause error
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("fetch: unhandled exception: %v", e.Cause)
}

func (e *UnhandledError) Unwrap() error { return e.Cause }
