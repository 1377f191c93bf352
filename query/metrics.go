// Copyright 2020-2021 Dolthub, Inc.
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

package query

import "github.com/prometheus/client_golang/prometheus"

// metrics groups the Engine's counters and histograms: bind-cache hit/miss
// counts, soft-limit truncation events, query and failure counts, and a
// per-phase latency histogram that is registered but not observed by any
// code in this package. There are no resolution-cache counters. One
// set is registered per Engine, not per query.
type metrics struct {
	bindCacheHits    prometheus.Counter
	bindCacheMisses  prometheus.Counter
	truncations      prometheus.Counter
	phaseLatency     *prometheus.HistogramVec
	queriesTotal     prometheus.Counter
	queryFailures    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		bindCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qcore", Subsystem: "bind_cache", Name: "hits_total",
			Help: "Bind cache hits across all queries.",
		}),
		bindCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qcore", Subsystem: "bind_cache", Name: "misses_total",
			Help: "Bind cache misses across all queries.",
		}),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qcore", Name: "truncations_total",
			Help: "Queries that hit a soft-limit truncation.",
		}),
		phaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qcore", Name: "phase_latency_seconds",
			Help: "Wall time spent in each query phase.",
		}, []string{"phase"}),
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qcore", Name: "queries_total",
			Help: "Queries executed.",
		}),
		queryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qcore", Name: "query_failures_total",
			Help: "Queries that failed with a storage or parse error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.bindCacheHits, m.bindCacheMisses, m.truncations,
			m.phaseLatency, m.queriesTotal, m.queryFailures)
	}
	return m
}

// recordBindCache folds a finished query's bind-cache stats into the
// process-wide counters.
func (m *metrics) recordBindCache(hits, misses int64) {
	if m == nil {
		return
	}
	m.bindCacheHits.Add(float64(hits))
	m.bindCacheMisses.Add(float64(misses))
}
