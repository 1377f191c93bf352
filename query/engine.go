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

// Package query ties the whole core together behind the public surface
// spec §6 exposes: execute, fetch_header_row, fetch_row, errors, warnings,
// free. It owns the two process-scoped caches (plan cache, resolution
// cache) and mints one QueryState plus one per-query bind cache for every
// Execute call (spec §5, §9).
package query

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/4store/qcore/blocktree"
	"github.com/4store/qcore/config"
	"github.com/4store/qcore/engine"
	"github.com/4store/qcore/plan"
	"github.com/4store/qcore/project"
	"github.com/4store/qcore/resolve"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/rowexec"
	"github.com/4store/qcore/storage"
)

// Engine is the long-lived service object: one per process, shared across
// every query it executes. Store and FreqStore are the external storage
// collaborators (spec §1); FreqStore may be nil, in which case the planner
// falls back to structural heuristics alone (spec §4.4).
type Engine struct {
	Store     storage.Store
	FreqStore storage.FreqStore
	Log       *logrus.Entry
	Tracer    opentracing.Tracer

	resolveCache *resolve.Cache
	planCache    *plan.Cache
	metrics      *metrics
}

// NewEngine builds an Engine with its process-scoped caches sized from
// opts (cache_size applies to the plan cache; the resolution cache is
// unbounded L1 plus a fixed 65536-entry L2, spec §4.9).
func NewEngine(store storage.Store, freq storage.FreqStore, log *logrus.Entry, tracer opentracing.Tracer, reg prometheus.Registerer, opts config.Options) *Engine {
	capacity := opts.CacheSize
	if capacity <= 0 {
		capacity = 256
	}
	return &Engine{
		Store:        store,
		FreqStore:    freq,
		Log:          log,
		Tracer:       tracer,
		resolveCache: resolve.NewCache(),
		planCache:    plan.NewCache(capacity),
		metrics:      newMetrics(reg),
	}
}

// Request is one execute() call's input: the already-parsed block tree
// plus the solution modifiers spec §6 lists as consumed from the query AST
// (DISTINCT and COUNT instead travel through Opts, since the §6 option
// table lists them as executor options rather than AST-sourced modifiers),
// and the executor options.
type Request struct {
	Tree      *blocktree.Tree
	Projected []string
	OrderBy   []project.OrderCond
	Offset    int
	Limit     int
	Opts      config.Options
}

// Execute runs req to completion through every phase of spec §4.10 and
// returns a Handle ready for FetchHeaderRow/FetchRow. Execute runs eagerly
// through PROJECTED (planning, binding, joining, filtering and projection
// all happen here) and leaves the state in EMITTING; row emission is left
// for the caller to pull, and the state reaches DONE once FetchRow runs out
// of rows or Free is called.
func (e *Engine) Execute(ctx context.Context, req Request) (*Handle, error) {
	st := newQueryState(e.Log)
	if e.metrics != nil {
		e.metrics.queriesTotal.Inc()
	}
	st.enter(e.Tracer, PhasePlanned)

	tree := req.Tree
	if tree == nil {
		st.fail(e.Tracer, ErrParse.New("empty block tree"))
		return &Handle{state: st}, ErrParse.New("empty block tree")
	}
	applyDefaultGraph(tree, req.Opts.DefaultGraph)
	tree.Compact()
	if key, err := plan.Key(tree); err == nil {
		if cached, ok := e.planCache.Get(key); ok {
			tree = cached
		} else {
			e.planCache.Put(key, tree)
		}
	}

	var freq plan.FreqTables
	if req.Opts.UseFreq() && e.FreqStore != nil {
		freq = plan.StoreFreq{Ctx: ctx, Src: e.FreqStore}
	}

	if req.Opts.Explain {
		return e.explain(st, tree, freq), nil
	}

	st.enter(e.Tracer, PhaseExecuting)
	resolver := cacheResolver{ctx: ctx, store: e.Store, cache: e.resolveCache, log: st.Log}
	runOpts := rowexec.Options{
		SoftLimit:  req.Opts.SoftLimit,
		Restricted: req.Opts.Restricted,
		UseCache:   req.Opts.UseCache(),
		Log:        st.Log,
	}
	res, err := engine.Run(ctx, tree, e.Store, st.BindCache, freq, resolver, runOpts)
	if err != nil {
		wrapped := errors.Wrap(err, "query: block tree execution")
		st.fail(e.Tracer, ErrStorage.New(wrapped.Error()))
		if e.metrics != nil {
			e.metrics.queryFailures.Inc()
		}
		return &Handle{state: st}, wrapped
	}
	st.Boolean = res.Truth
	st.Warnings = append(st.Warnings, res.Warnings...)
	if res.Truncated && e.metrics != nil {
		e.metrics.truncations.Inc()
	}
	st.enter(e.Tracer, PhaseJoined)

	st.enter(e.Tracer, PhaseProjected)
	modifiers := project.Options{
		Distinct: req.Opts.Distinct,
		OrderBy:  req.OrderBy,
		Offset:   req.Offset,
		Limit:    req.Limit,
		Count:    req.Opts.Count,
	}
	outcome := project.Apply(res.Table, req.Projected, modifiers, resolver)

	st.enter(e.Tracer, PhaseEmitting)
	hits, misses := st.BindCache.Stats()
	e.metrics.recordBindCache(hits, misses)

	return &Handle{
		state:    st,
		tracer:   e.Tracer,
		table:    outcome.Table,
		header:   req.Projected,
		count:    outcome.Count,
		resolver: resolver,
	}, nil
}

// applyDefaultGraph rewrites every pattern whose graph slot is wholly
// unset (no constant, no variable — the parser's representation of an
// absent GRAPH clause) to probe g instead of matching any graph (spec §6:
// "absent graph slot defaults to a single well-known default-graph RID").
func applyDefaultGraph(tree *blocktree.Tree, g rid.RID) {
	if g.IsNull() {
		return
	}
	for _, id := range tree.Live() {
		b := tree.Blocks[id]
		for i, p := range b.Patterns {
			if p.Graph == (blocktree.Term{}) {
				b.Patterns[i].Graph = blocktree.ConstTerm(g)
			}
		}
	}
}

// explain produces a plan trace as warnings and suppresses result rows
// (spec §6's explain option), without touching storage at all.
func (e *Engine) explain(st *QueryState, tree *blocktree.Tree, freq plan.FreqTables) *Handle {
	st.enter(e.Tracer, PhaseExecuting)
	for _, id := range tree.PreOrder() {
		b := tree.Blocks[id]
		ordered := plan.Reorder(b.Patterns, plan.BoundVars{}, freq)
		st.warn(fmt.Sprintf("block %d (parent %d, join %v): %d pattern(s) planned", id, b.Parent, b.Join, len(ordered)))
	}
	st.Boolean = true
	st.finish(e.Tracer)
	return &Handle{state: st, table: nil, header: nil}
}
