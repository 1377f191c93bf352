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

// Package binding implements the columnar binding table (spec §3, §4.2): one
// column per query variable, row-aligned value vectors, and the sort / uniq
// / merge / join / union / truncate operations SPARQL's block-tree
// evaluation is built from.
package binding

import (
	"sort"

	"github.com/4store/qcore/rid"
)

// Column is one variable's value vector plus the bookkeeping flags spec §3
// assigns it.
type Column struct {
	Name string

	Bound    bool // has any non-null value
	Proj     bool // projected by caller
	Selected bool // referenced by an expression
	Used     bool // scratch, set by the executor during absorb
	NeedVal  bool // lexical form will be needed at output time
	Sort     bool // included in the current sort key
	Desc     bool // descending-sort intent for this key

	FirstBlock  int // first-appearance block id
	AppearCount int // number of blocks this variable appears in

	Vals []rid.RID
}

func (c *Column) clone(clearVals bool) *Column {
	n := *c
	if clearVals {
		n.Vals = nil
	} else {
		n.Vals = append([]rid.RID(nil), c.Vals...)
	}
	return &n
}

// Table is the columnar binding store. A zero-row table represents "no
// solutions"; a one-row all-NULL table represents "ASK true" in contexts
// that use the boolean field rather than row count to carry that meaning
// (spec §3).
type Table struct {
	cols    []*Column
	index   map[string]int
	numRows int
	// Ord permutes logical row i to physical row Ord[i] after Sort; it is
	// reset to nil by Uniq/Join/Merge, at which point physical order is
	// canonical (spec §3 invariant).
	Ord []int
}

// New creates an empty table with one column per name, in order.
func New(names ...string) *Table {
	t := &Table{index: make(map[string]int, len(names))}
	for _, n := range names {
		t.addColumnLocked(n)
	}
	return t
}

func (t *Table) addColumnLocked(name string) *Column {
	if i, ok := t.index[name]; ok {
		return t.cols[i]
	}
	c := &Column{Name: name, FirstBlock: -1}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, c)
	return c
}

// Columns returns the table's columns in declaration order. Callers must
// not mutate the returned slice's backing Column pointers' Vals length
// directly; use the Table's mutating methods instead.
func (t *Table) Columns() []*Column { return t.cols }

// Column returns the named column, or nil if it does not exist.
func (t *Table) Column(name string) *Column {
	if i, ok := t.index[name]; ok {
		return t.cols[i]
	}
	return nil
}

// HasColumn reports whether name exists in t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the table's row count.
func (t *Table) NumRows() int { return t.numRows }

// EnsureColumn adds name if absent and returns it.
func (t *Table) EnsureColumn(name string) *Column { return t.addColumnLocked(name) }

// Add appends one value to col, bounds-checking the column's existence and
// setting Bound if rid != NULL (spec §4.2 add(col, rid)).
func (t *Table) Add(col string, v rid.RID) {
	c, ok := t.index[col]
	if !ok {
		panic("binding: Add on unknown column " + col)
	}
	column := t.cols[c]
	column.Vals = append(column.Vals, v)
	if v != rid.NULL {
		column.Bound = true
	}
}

// AddRow appends one row given a full value per existing column, in column
// order. Missing trailing values are filled with NULL.
func (t *Table) AddRow(vals ...rid.RID) {
	for i, c := range t.cols {
		v := rid.NULL
		if i < len(vals) {
			v = vals[i]
		}
		c.Vals = append(c.Vals, v)
		if v != rid.NULL {
			c.Bound = true
		}
	}
	t.numRows++
}

// AddNamedRow appends one row keyed by column name, in whatever order the
// caller built vals; columns of t absent from vals are filled with NULL.
// Unlike Add, this advances numRows and keeps every column's Vals the same
// length, so the row is immediately visible to NumRows/Merge/Join.
func (t *Table) AddNamedRow(vals map[string]rid.RID) {
	for _, c := range t.cols {
		v := rid.NULL
		if val, ok := vals[c.Name]; ok {
			v = val
		}
		c.Vals = append(c.Vals, v)
		if v != rid.NULL {
			c.Bound = true
		}
	}
	t.numRows++
}

// padNulls appends n NULL rows to every column without affecting Bound.
func (t *Table) padNulls(n int) {
	for _, c := range t.cols {
		for i := 0; i < n; i++ {
			c.Vals = append(c.Vals, rid.NULL)
		}
	}
	t.numRows += n
}

// Copy produces a new table with the same schema and the same row data.
func (t *Table) Copy() *Table {
	nt := &Table{index: make(map[string]int, len(t.cols)), numRows: t.numRows}
	for i, c := range t.cols {
		nt.cols = append(nt.cols, c.clone(false))
		nt.index[c.Name] = i
	}
	return nt
}

// CopyAndClear produces an empty table with the same schema, used to stage
// the result of a per-pattern bind (spec §4.2).
func (t *Table) CopyAndClear() *Table {
	nt := &Table{index: make(map[string]int, len(t.cols))}
	for i, c := range t.cols {
		cc := c.clone(true)
		cc.Bound = false
		nt.cols = append(nt.cols, cc)
		nt.index[c.Name] = i
	}
	return nt
}

// boundColumns returns the columns with Bound set.
func (t *Table) boundColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Bound {
			out = append(out, c)
		}
	}
	return out
}

// sharedBoundNames returns names bound in both a and b.
func sharedBoundNames(a, b *Table) []string {
	var out []string
	for _, ca := range a.boundColumns() {
		if cb := b.Column(ca.Name); cb != nil && cb.Bound {
			out = append(out, ca.Name)
		}
	}
	return out
}

// Sort stably sorts row indices into Ord using the columns flagged Sort; NULL
// compares equal to anything (ignored) per SPARQL's OPTIONAL join semantics
// (spec §4.2).
func (t *Table) Sort(cols []*Column) {
	idx := make([]int, t.numRows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		li, lj := idx[i], idx[j]
		for _, c := range cols {
			if !c.Sort {
				continue
			}
			vi, vj := c.Vals[li], c.Vals[lj]
			if vi == rid.NULL || vj == rid.NULL {
				continue
			}
			if vi == vj {
				continue
			}
			if c.Desc {
				return vi > vj
			}
			return vi < vj
		}
		return false
	})
	t.Ord = idx
}

// applyOrd materializes the current Ord permutation into physical row
// order and clears Ord, per the invariant that uniq/join/merge always
// operate on canonical physical order (spec §3).
func (t *Table) applyOrd() {
	if t.Ord == nil {
		return
	}
	for _, c := range t.cols {
		nv := make([]rid.RID, len(c.Vals))
		for i, src := range t.Ord {
			nv[i] = c.Vals[src]
		}
		c.Vals = nv
	}
	t.Ord = nil
}

// Uniq performs a linear pass over a sorted table, dropping rows equal on
// every Bound column (spec §4.2). The table must already be sorted on those
// columns; Uniq applies any pending Ord first.
func (t *Table) Uniq() {
	t.applyOrd()
	bound := t.boundColumns()
	if t.numRows == 0 {
		return
	}
	keep := make([]int, 0, t.numRows)
	keep = append(keep, 0)
	for r := 1; r < t.numRows; r++ {
		dup := true
		prev := keep[len(keep)-1]
		for _, c := range bound {
			if c.Vals[r] != c.Vals[prev] {
				dup = false
				break
			}
		}
		if !dup {
			keep = append(keep, r)
		}
	}
	t.selectRows(keep)
}

func (t *Table) selectRows(rows []int) {
	for _, c := range t.cols {
		nv := make([]rid.RID, len(rows))
		for i, r := range rows {
			nv[i] = c.Vals[r]
		}
		c.Vals = nv
	}
	t.numRows = len(rows)
	t.Ord = nil
}

// SelectRows rebuilds the table keeping exactly the given physical row
// indices, in the given order — the general-purpose operation the
// projection stage builds DISTINCT/ORDER BY/OFFSET on top of (spec §4.8).
func (t *Table) SelectRows(rows []int) { t.selectRows(rows) }

// Truncate limits the table to n rows; it reports whether truncation
// occurred so the caller can record the soft-limit warning once per query
// (spec §4.2, §5).
func (t *Table) Truncate(n int) (truncated bool) {
	if n <= 0 || t.numRows <= n {
		return false
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	t.selectRows(rows)
	return true
}

// Row returns the RID vector for row r across all columns, in column order.
func (t *Table) Row(r int) []rid.RID {
	out := make([]rid.RID, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Vals[r]
	}
	return out
}
