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

// Package fetchmetrics instruments a fetchcache.Cache with Prometheus
// counters, the library-scale equivalent of the MetricFactory composition
// point trillian/ctfe/instance.go wires into InstanceOptions.
package fetchmetrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fetchkit/fetch/fetchcache"
)

// Metrics holds the counters NewMetrics registers. Instrument updates the
// cache counters; RecordRounds updates RoundsTotal.
type Metrics struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	RoundsTotal prometheus.Counter
}

// NewMetrics registers a Metrics set on reg and returns it. Pass
// prometheus.DefaultRegisterer to use the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fetch",
			Name:      "cache_hits_total",
			Help:      "Number of cache lookups that found a value.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fetch",
			Name:      "cache_misses_total",
			Help:      "Number of cache lookups that found nothing.",
		}),
		RoundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fetch",
			Name:      "rounds_total",
			Help:      "Number of engine.Round executions recorded.",
		}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.RoundsTotal)
	return m
}

// RecordRounds adds n to RoundsTotal. Callers pass len(Environment.Rounds)
// after a fetch.RunAll call, since Round-counting happens inside the
// interpreter and Environment is the interpreter's own account of how many
// it recorded.
func (m *Metrics) RecordRounds(n int) {
	m.RoundsTotal.Add(float64(n))
}

// instrumented wraps a fetchcache.Cache, counting hits and misses.
type instrumented struct {
	inner   fetchcache.Cache
	metrics *Metrics
}

// Instrument wraps cache so every Get updates metrics.
func Instrument(cache fetchcache.Cache, metrics *Metrics) fetchcache.Cache {
	return instrumented{inner: cache, metrics: metrics}
}

func (i instrumented) Get(ctx context.Context, key fetchcache.Key) (any, bool, error) {
	v, hit, err := i.inner.Get(ctx, key)
	if err != nil {
		return v, hit, err
	}
	if hit {
		i.metrics.CacheHits.Inc()
	} else {
		i.metrics.CacheMisses.Inc()
	}
	return v, hit, nil
}

func (i instrumented) Put(ctx context.Context, key fetchcache.Key, value any) (fetchcache.Cache, error) {
	next, err := i.inner.Put(ctx, key, value)
	if err != nil {
		return next, err
	}
	return instrumented{inner: next, metrics: i.metrics}, nil
}
