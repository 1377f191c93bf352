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

// Package config holds the executor's §6 option table plus two sizing knobs
// (cache_size, prefetch_window) that sit outside the spec's option table
// proper but still need a home. Options load from a
// TOML file or from a loosely typed map (e.g. frontend-supplied strings)
// via spf13/cast coercion.
package config

import "github.com/4store/qcore/rid"

// OptLevel gates planner reordering and the bind cache (spec §6).
type OptLevel int

const (
	// OptNone disables reordering and the bind cache entirely.
	OptNone OptLevel = 0
	// OptReorder enables heuristic pattern reordering.
	OptReorder OptLevel = 1
	// OptReorderFreq additionally lets the planner consult frequency
	// tables when reordering.
	OptReorderFreq OptLevel = 2
	// OptCached additionally turns on the bind cache.
	OptCached OptLevel = 3
)

// Options is the executor's full configuration: the seven options spec §6
// names plus two sizing knobs that the query-level option table doesn't
// cover.
type Options struct {
	OptLevel     OptLevel `toml:"opt_level"`
	SoftLimit    int      `toml:"soft_limit"`
	Restricted   bool     `toml:"restricted"`
	// DefaultGraph is substituted into any pattern whose graph slot is
	// wholly absent (spec §6); rid.NULL disables the substitution so such
	// patterns match any graph instead.
	DefaultGraph rid.RID `toml:"default_graph"`
	Explain      bool     `toml:"explain"`
	Count        bool     `toml:"count"`
	Distinct     bool     `toml:"distinct"`

	// CacheSize bounds the plan cache's entry count (0 or less means 256);
	// query.NewEngine reads it. The per-query bind cache is fixed at 128
	// entries and does not use it.
	CacheSize int `toml:"cache_size"`
	// PrefetchWindow is loaded but not read by the query core: row emission
	// always prefetches resolve.WindowSize rows at a time.
	PrefetchWindow int `toml:"prefetch_window"`
}

// Default returns the conservative baseline: reordering on, bind cache off,
// no row cap, graph slots default to rid.DefaultGraph.
func Default() Options {
	return Options{
		OptLevel:     OptReorder,
		SoftLimit:    0,
		Restricted:   false,
		DefaultGraph: rid.DefaultGraph,
		CacheSize:    4096,
	}
}

// UseReorder reports whether the planner should reorder patterns at all.
func (o Options) UseReorder() bool { return o.OptLevel >= OptReorder }

// UseFreq reports whether the planner may consult frequency tables.
func (o Options) UseFreq() bool { return o.OptLevel >= OptReorderFreq }

// UseCache reports whether the bind cache is active.
func (o Options) UseCache() bool { return o.OptLevel >= OptCached }
