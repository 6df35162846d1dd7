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

import "github.com/fetchkit/fetch/source"

// SequentialTask is one descriptor's oversized batch under
// source.Sequential execution: its chunks must run as their own rounds, one
// at a time, decoupled from every other descriptor's round (open question
// (a) in SPEC_FULL.md — they do not block siblings, they simply do not
// share a round with them).
type SequentialTask struct {
	Source source.Erased
	Chunks [][]any
}

// Plan is the result of applying the batch-size pass to a Gather result.
// ConcurrentChunks holds every identity set that can run in the single
// round this Gather call is building, after splitting any Parallel-execution
// oversized group into several same-round chunks. SequentialTasks holds the
// oversized Sequential-execution groups pulled out of that round entirely.
type Plan struct {
	ConcurrentChunks []Chunk
	SequentialTasks  []SequentialTask
}

// Chunk is one source+identity-set pair destined for the shared round.
type Chunk struct {
	Source source.Erased
	IDs    []any
}

// BuildPlan applies the max-batch-size pass (§4.6) to the groups Gather
// produced.
func BuildPlan(groups []*Group) Plan {
	var plan Plan
	for _, g := range groups {
		max := g.Source.MaxBatchSize()
		if max <= 0 || len(g.IDs) <= max {
			plan.ConcurrentChunks = append(plan.ConcurrentChunks, Chunk{Source: g.Source, IDs: g.IDs})
			continue
		}
		chunks := splitIDs(g.IDs, max)
		if g.Source.BatchExecution() == source.Sequential {
			plan.SequentialTasks = append(plan.SequentialTasks, SequentialTask{Source: g.Source, Chunks: chunks})
			continue
		}
		for _, c := range chunks {
			plan.ConcurrentChunks = append(plan.ConcurrentChunks, Chunk{Source: g.Source, IDs: c})
		}
	}
	return plan
}

// splitIDs partitions ids into chunks of at most max, preserving order.
func splitIDs(ids []any, max int) [][]any {
	var out [][]any
	for len(ids) > 0 {
		n := max
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}
