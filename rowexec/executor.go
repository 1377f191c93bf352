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

package rowexec

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/4store/qcore/binding"
	"github.com/4store/qcore/blocktree"
	"github.com/4store/qcore/plan"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

// Options tunes one block's execution, threading the §6 executor options
// that matter at this layer.
type Options struct {
	SoftLimit  int
	Restricted bool
	UseCache   bool // opt_level == 3 (spec §6)
	Log        *logrus.Entry
}

// Result is the outcome of executing one block's patterns.
type Result struct {
	Table     *binding.Table
	Truth     bool // whether the block's patterns were satisfiable
	Truncated bool
}

// ExecuteBlock runs every pattern of b in the given order against store,
// absorbing each bind result into a running binding table seeded from
// ancestorBound (the ancestor-block columns already resolved), per spec
// §4.4-§4.5.
func ExecuteBlock(ctx context.Context, b *blocktree.Block, ordered []blocktree.Pattern, ancestorBound *binding.Table, store storage.Store, cache *BindCache, opts Options) (Result, error) {
	current := seedFromAncestor(ancestorBound)

	if len(ordered) == 0 {
		return Result{Table: current, Truth: true}, nil
	}

	truth := true
	truncatedAny := false

	groups := plan.FindReverseBindGroups(ordered)
	grouped := make(map[int]bool)
	for _, g := range groups {
		for i := range g.Patterns {
			grouped[g.StartIndex+i] = true
		}
	}

	i := 0
	for i < len(ordered) {
		if grouped[i] {
			var grp *plan.ReverseBindGroup
			for gi := range groups {
				if groups[gi].StartIndex == i {
					grp = &groups[gi]
					break
				}
			}
			res, err := runReverseBindGroup(ctx, *grp, current, store, opts)
			if err != nil {
				return Result{}, err
			}
			current, truth, truncatedAny = absorb(current, res, truth, truncatedAny)
			i += len(grp.Patterns)
			continue
		}

		p := ordered[i]
		res, fromCache, err := runPattern(ctx, p, current, store, cache, opts)
		if err != nil {
			return Result{}, err
		}
		if opts.Log != nil {
			opts.Log.WithField("block", b.ID).WithField("cache", fromCache).Debug("bind executed")
		}
		current, truth, truncatedAny = absorb(current, patternResultCols(p, res), truth, truncatedAny)
		if allNullColumns(res) {
			// Early termination: storage already told us nothing matches;
			// stop probing further patterns in this block (spec §4.5).
			break
		}
		i++
	}

	if !truth {
		current = nullFillFirstAppearing(current, b)
	}
	return Result{Table: current, Truth: truth, Truncated: truncatedAny}, nil
}

// seedFromAncestor builds the starting binding snapshot for a block. The
// root block has no ancestor: its starting point is one row of zero
// columns (the join identity — "trivially true, nothing bound yet"), not
// zero rows, which would mean "no solutions" before a single pattern has
// even run.
func seedFromAncestor(ancestor *binding.Table) *binding.Table {
	if ancestor == nil {
		t := binding.New()
		t.AddRow()
		return t
	}
	return ancestor.Copy()
}

// patternResultCols packages a storage.BindResult alongside the pattern's
// slot names so absorb can build a properly named staging table.
type namedResult struct {
	storage.BindResult
	names [4]string
}

func patternResultCols(p blocktree.Pattern, r storage.BindResult) namedResult {
	f := FillSlots(p, nil)
	return namedResult{BindResult: r, names: f.Names}
}

func runPattern(ctx context.Context, p blocktree.Pattern, current *binding.Table, store storage.Store, cache *BindCache, opts Options) (storage.BindResult, bool, error) {
	fill := FillSlots(p, current)
	req := buildRequest(fill, opts)

	if opts.UseCache && cache != nil {
		if key, ok := Cacheable(req); ok {
			if res, hit := cache.Get(key); hit {
				return res, true, nil
			}
			res, err := store.Bind(ctx, req)
			if err != nil {
				return storage.BindResult{}, false, err
			}
			cache.Put(key, res)
			return res, false, nil
		}
	}
	res, err := store.Bind(ctx, req)
	return res, false, err
}

func buildRequest(fill Filled, opts Options) storage.BindRequest {
	req := storage.BindRequest{Slots: fill.Probes, Offset: 0, Limit: opts.SoftLimit}
	req.Scope = storage.ScopeByObject
	if len(fill.Probes[rid.SlotSubject]) > 0 {
		req.Scope = storage.ScopeBySubject
	}
	for i, n := range fill.Names {
		if n != "" {
			req.RequestSlots = append(req.RequestSlots, rid.Slot(i))
		}
	}
	return req
}

func runReverseBindGroup(ctx context.Context, grp plan.ReverseBindGroup, current *binding.Table, store storage.Store, opts Options) (namedResult, error) {
	var reqs []storage.BindRequest
	var names [4]string
	for _, p := range grp.Patterns {
		fill := FillSlots(p, current)
		reqs = append(reqs, buildRequest(fill, opts))
	}
	names[rid.SlotSubject] = grp.SubjectVar
	res, err := store.ReverseBind(ctx, reqs)
	if err != nil {
		return namedResult{}, err
	}
	return namedResult{BindResult: res, names: names}, nil
}

func allNullColumns(r storage.BindResult) bool {
	if len(r.Columns) == 0 {
		return false
	}
	for _, col := range r.Columns {
		for _, v := range col {
			if v != rid.NULL {
				return false
			}
		}
	}
	return true
}

// absorb folds a pattern's bind result into current via Merge (spec §4.5):
// the result is staged into a freshly cleared copy of current's schema,
// plus any newly introduced variable columns, then merged in.
func absorb(current *binding.Table, res namedResult, truth bool, truncated bool) (*binding.Table, bool, bool) {
	if len(res.Columns) == 0 {
		// Pattern was fully ground and matched with no new columns; truth is
		// unaffected, no columns introduced (spec §4.5).
		return current, truth, truncated
	}

	staging := current.CopyAndClear()
	for _, slot := range res.Slots {
		name := res.names[slot]
		if name == "" {
			continue
		}
		staging.EnsureColumn(name)
	}
	rows := 0
	if len(res.Columns) > 0 {
		rows = len(res.Columns[0])
	}
	if rows == 0 {
		return current.CopyAndClear(), false, truncated || res.Truncated
	}
	for r := 0; r < rows; r++ {
		rowVals := make(map[string]rid.RID, len(res.Slots))
		for i, slot := range res.Slots {
			name := res.names[slot]
			if name == "" {
				continue
			}
			rowVals[name] = res.Columns[i][r]
		}
		staging.AddNamedRow(rowVals)
	}

	merged := binding.Merge(staging, current)
	if merged.NumRows() == 0 {
		return merged, false, truncated || res.Truncated
	}
	return merged, truth, truncated || res.Truncated
}

func nullFillFirstAppearing(t *binding.Table, b *blocktree.Block) *binding.Table {
	// If the block failed, first-appearing columns in this block still need
	// to exist (all-NULL) so OPTIONAL parents see a well-formed table
	// (spec §4.5). The block's own patterns name every variable it could
	// have introduced.
	out := t.CopyAndClear()
	for _, p := range b.Patterns {
		for _, term := range p.Slots() {
			if !term.IsConst && term.Variable != "" {
				out.EnsureColumn(term.Variable)
			}
		}
	}
	return out
}
