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

// Package project implements the final solution-modifier stage (spec §4.8):
// DISTINCT, ORDER BY, OFFSET, LIMIT, and COUNT, applied to the root block's
// finished binding table.
package project

import (
	"sort"
	"strings"

	"github.com/4store/qcore/binding"
	"github.com/4store/qcore/filter"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/value"
)

// Resolver turns a bound RID into a value.Value carrying whatever lexical
// and typed form ORDER BY's value-typed comparison needs. Callers supply an
// implementation backed by resolve.Cache (plus prior prefetch); project
// itself never talks to storage.
type Resolver interface {
	Value(r rid.RID) value.Value
}

// OrderCond is one ORDER BY condition.
type OrderCond struct {
	Expr *filter.Expr
	Desc bool
}

// Options bundles the solution modifiers of spec §6's option table that
// apply at this stage.
type Options struct {
	Distinct bool
	OrderBy  []OrderCond
	Offset   int
	Limit    int // 0 means unlimited
	Count    bool
}

// Outcome reports what Apply did. Truncated reports whether LIMIT cut rows;
// that is not a soft-limit truncation and raises no warning. Count is
// non-nil only when opts.Count was set;
// the table's RID columns carry no representation for a synthesised
// integer, so the count replaces the table conceptually rather than
// literally — the caller emits Count directly as an xsd:integer row instead
// of iterating Table (spec §4.8 step 6).
type Outcome struct {
	Table     *binding.Table
	Truncated bool
	Count     *int64
}

// Apply runs every modifier named in opts, in the spec-mandated order:
// DISTINCT, ORDER BY, OFFSET, LIMIT, COUNT (spec §4.8 steps 2-6). Running
// distinct before offset is what makes OFFSET count over distinct
// projected rows rather than raw rows when both are set.
func Apply(t *binding.Table, projected []string, opts Options, resolver Resolver) Outcome {
	if opts.Distinct {
		distinct(t, projected)
	}
	if len(opts.OrderBy) > 0 {
		orderBy(t, opts.OrderBy, resolver)
	}
	truncated := false
	if opts.Offset > 0 {
		offset(t, opts.Offset)
	}
	if opts.Limit > 0 {
		truncated = t.Truncate(opts.Limit)
	}
	out := Outcome{Table: t, Truncated: truncated}
	if opts.Count {
		n := int64(t.NumRows())
		out.Count = &n
	}
	return out
}

// distinct sorts t on cols then drops rows equal across exactly those
// columns (spec §4.8 step 2: "sort the table on every projected or selected
// column, then uniq" — deliberately narrower than binding.Table.Uniq's
// all-bound-columns rule, since a DISTINCT clause is scoped to the
// projection, not every variable the query happens to bind).
func distinct(t *binding.Table, cols []string) {
	if t.NumRows() == 0 || len(cols) == 0 {
		return
	}
	columns := make([]*binding.Column, 0, len(cols))
	for _, name := range cols {
		if c := t.Column(name); c != nil {
			columns = append(columns, c)
		}
	}
	idx := make([]int, t.NumRows())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		li, lj := idx[i], idx[j]
		for _, c := range columns {
			if c.Vals[li] != c.Vals[lj] {
				return c.Vals[li] < c.Vals[lj]
			}
		}
		return false
	})
	keep := idx[:0:0]
	for i, r := range idx {
		if i == 0 {
			keep = append(keep, r)
			continue
		}
		prev := idx[i-1]
		dup := true
		for _, c := range columns {
			if c.Vals[r] != c.Vals[prev] {
				dup = false
				break
			}
		}
		if !dup {
			keep = append(keep, r)
		}
	}
	t.SelectRows(keep)
}

// orderBy sorts t's rows by opts' conditions (spec §4.8 step 3). A single
// bare-variable condition takes the fast path: the column's own values are
// compared directly, skipping per-row filter.Row construction.
func orderBy(t *binding.Table, conds []OrderCond, resolver Resolver) {
	if t.NumRows() == 0 {
		return
	}
	if len(conds) == 1 && conds[0].Expr.Op == filter.OpVar {
		orderBySingleColumn(t, conds[0], resolver)
		return
	}
	rows := make([]filter.Row, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		vars := make(map[string]value.Value, len(t.Columns()))
		for _, c := range t.Columns() {
			vars[c.Name] = resolver.Value(c.Vals[r])
		}
		rows[r] = filter.Row{Vars: vars, RowIndex: r}
	}
	idx := make([]int, t.NumRows())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		li, lj := idx[i], idx[j]
		for _, cond := range conds {
			a := filter.Eval(cond.Expr, rows[li])
			b := filter.Eval(cond.Expr, rows[lj])
			c := compareOrdered(a, b)
			if c == 0 {
				continue
			}
			if cond.Desc {
				return c > 0
			}
			return c < 0
		}
		return li < lj // deterministic tie-break on original row index
	})
	t.SelectRows(idx)
}

func orderBySingleColumn(t *binding.Table, cond OrderCond, resolver Resolver) {
	col := t.Column(cond.Expr.Var)
	if col == nil {
		return
	}
	resolved := make([]value.Value, t.NumRows())
	for r, v := range col.Vals {
		resolved[r] = resolver.Value(v)
	}
	idx := make([]int, t.NumRows())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := compareOrdered(resolved[idx[i]], resolved[idx[j]])
		if c == 0 {
			return idx[i] < idx[j]
		}
		if cond.Desc {
			return c > 0
		}
		return c < 0
	})
	t.SelectRows(idx)
}

// rank orders value classes per spec §4.2's sort tie-break: NULL < bNode <
// URI (lex order) < literal (value-typed, falling back to lex).
func rank(v value.Value) int {
	switch v.Kind {
	case value.KindUnbound:
		return 0
	case value.KindBNode:
		return 1
	case value.KindURI:
		return 2
	default:
		return 3
	}
}

func compareOrdered(a, b value.Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		return 0
	case 1, 2:
		return strings.Compare(a.Lex, b.Lex)
	default:
		if c, err := value.Compare(a, b); err == nil {
			return c
		}
		return strings.Compare(a.Lex, b.Lex)
	}
}

// offset drops the first k rows (spec §4.8 step 4).
func offset(t *binding.Table, k int) {
	if k >= t.NumRows() {
		t.SelectRows(nil)
		return
	}
	rows := make([]int, t.NumRows()-k)
	for i := range rows {
		rows[i] = k + i
	}
	t.SelectRows(rows)
}
