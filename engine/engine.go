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

// Package engine drives one query's block tree through the two walks spec
// §4.6 describes: a pre-order pass that executes each block's own patterns
// (package rowexec), and a post-order pass that applies each block's
// filters and joins it into its parent (package binding).
package engine

import (
	"context"
	"fmt"

	"github.com/4store/qcore/binding"
	"github.com/4store/qcore/blocktree"
	"github.com/4store/qcore/filter"
	"github.com/4store/qcore/plan"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/rowexec"
	"github.com/4store/qcore/storage"
	"github.com/4store/qcore/value"
)

// Resolver resolves a bound RID to a value.Value for filter evaluation.
// Implementations sit on top of package resolve; the engine never talks to
// storage for resolution itself.
type Resolver interface {
	Value(r rid.RID) value.Value
}

// Result is the outcome of running a whole block tree.
type Result struct {
	Table     *binding.Table
	Truth     bool
	Truncated bool
	// Warnings accumulates filter-evaluation errors, keyed by the offending
	// lexical form, and the truncation warning if any bind/join truncated
	// (spec §4.8 step 1, §7).
	Warnings []string
}

// Run executes tree against store: pre-order pattern execution, then
// post-order filter application and joins (spec §4.6).
func Run(ctx context.Context, tree *blocktree.Tree, store storage.Store, cache *rowexec.BindCache, freq plan.FreqTables, resolver Resolver, opts rowexec.Options) (Result, error) {
	perBlock := make(map[int]*binding.Table, len(tree.Blocks))
	truth := true
	truncated := false
	var warnings []string

	for _, id := range tree.PreOrder() {
		b := tree.Blocks[id]
		var ancestor *binding.Table
		if b.Parent >= 0 {
			ancestor = perBlock[b.Parent]
		}
		bound := boundVarsOf(ancestor)
		ordered := plan.Reorder(b.Patterns, bound, freq)

		res, err := rowexec.ExecuteBlock(ctx, b, ordered, ancestor, store, cache, opts)
		if err != nil {
			return Result{}, err
		}
		perBlock[id] = res.Table
		if !res.Truth && b.Join == blocktree.JoinInner {
			// A failed LEFT child is optional (spec §4.6); a failed UNION
			// member is one alternative among siblings, decided once the
			// union-group merge runs. Only a required INNER join failing
			// flips the query's overall truth here.
			truth = truth && res.Truth
		}
		truncated = truncated || res.Truncated
	}

	joined := make(map[int]bool)
	for _, id := range tree.PostOrder() {
		if id == 0 {
			continue
		}
		b := tree.Blocks[id]
		if joined[id] {
			continue
		}

		applyFilters(perBlock[id], b.Filters, resolver, &warnings)

		if b.UnionGroup != 0 {
			siblings := tree.UnionSiblings(b)
			// id's own filters were already applied above; every other
			// sibling still needs its own filters applied to its own table
			// before the union merge, or they're silently never evaluated.
			for _, sid := range siblings[1:] {
				applyFilters(perBlock[sid], tree.Blocks[sid].Filters, resolver, &warnings)
			}
			merged := perBlock[siblings[0]]
			for _, sid := range siblings[1:] {
				merged = binding.UnionTables(merged, perBlock[sid])
				joined[sid] = true
			}
			joined[siblings[0]] = true
			parent := perBlock[b.Parent]
			parent = binding.Join(parent, merged, binding.Inner)
			perBlock[b.Parent] = parent
			continue
		}

		parent := perBlock[b.Parent]
		kind := binding.Inner
		if b.Join == blocktree.JoinLeft {
			kind = binding.Left
		}
		parent = binding.Join(parent, perBlock[id], kind)
		perBlock[b.Parent] = parent
	}

	// The root has no parent to join into; its own filters run once every
	// child has been joined onto it.
	applyFilters(perBlock[0], tree.Blocks[0].Filters, resolver, &warnings)

	root := perBlock[0]
	if root.NumRows() == 0 {
		truth = false
	}
	if truncated {
		warnings = append(warnings, "result truncated at soft_limit")
	}
	return Result{Table: root, Truth: truth, Truncated: truncated, Warnings: warnings}, nil
}

func boundVarsOf(t *binding.Table) plan.BoundVars {
	bound := plan.BoundVars{}
	if t == nil {
		return bound
	}
	for _, c := range t.Columns() {
		if c.Bound {
			bound[c.Name] = true
		}
	}
	return bound
}

// applyFilters evaluates every filter attached to b's block against t,
// dropping rows whose EBV is false or error (spec §4.6). Evaluation errors
// accumulate as warnings keyed by the offending lexical form rather than
// aborting the query (spec §7).
func applyFilters(t *binding.Table, filters []blocktree.Filter, resolver Resolver, warnings *[]string) {
	if t == nil || len(filters) == 0 {
		return
	}
	for _, f := range filters {
		expr, ok := f.Expr.(*filter.Expr)
		if !ok || expr == nil {
			continue
		}
		if d, ok := filter.DetectDisjunct(expr); ok {
			constrainToDisjunct(t, d)
			continue
		}
		keep := make([]int, 0, t.NumRows())
		for r := 0; r < t.NumRows(); r++ {
			vars := make(map[string]value.Value, len(t.Columns()))
			for _, c := range t.Columns() {
				vars[c.Name] = resolver.Value(c.Vals[r])
			}
			v := filter.Eval(expr, filter.Row{Vars: vars, RowIndex: r})
			ok, known := v.EBV()
			if v.IsError() {
				*warnings = append(*warnings, fmt.Sprintf("filter evaluation error: %s", v.ErrMsg))
				continue
			}
			if known && ok {
				keep = append(keep, r)
			}
		}
		t.SelectRows(keep)
	}
}

// constrainToDisjunct implements the constant-disjunct optimisation (spec
// §4.6): pre-constrain d.Var's column to d.Consts instead of evaluating the
// OR-chain per row.
func constrainToDisjunct(t *binding.Table, d filter.Disjunct) {
	col := t.Column(d.Var)
	if col == nil {
		return
	}
	allowed := make(map[rid.RID]bool, len(d.Consts))
	for _, c := range d.Consts {
		allowed[c.RID] = true
	}
	keep := make([]int, 0, t.NumRows())
	for r, v := range col.Vals {
		if allowed[v] {
			keep = append(keep, r)
		}
	}
	t.SelectRows(keep)
}
