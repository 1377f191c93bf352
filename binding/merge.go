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

package binding

import "github.com/4store/qcore/rid"

// JoinKind selects the semantics of an inter-block join (spec §4.2, §4.6).
type JoinKind int

const (
	Inner JoinKind = iota
	Left
	Union
)

// rowKey builds a comparison key over the given columns for one row,
// reporting whether any key value is bound. keysCompatible treats a NULL
// cell as matching anything (SPARQL join compatibility requires agreement on
// bound values only), so an all-NULL key is compatible with every key.
func rowKey(cols []*Column, r int) ([]rid.RID, bool) {
	k := make([]rid.RID, len(cols))
	anyBound := false
	for i, c := range cols {
		k[i] = c.Vals[r]
		if k[i] != rid.NULL {
			anyBound = true
		}
	}
	return k, anyBound
}

func keysCompatible(a, b []rid.RID) bool {
	for i := range a {
		if a[i] == rid.NULL || b[i] == rid.NULL {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Merge absorbs from into into: the intra-block absorb used by the pattern
// executor (spec §4.5). Both sides are matched on their shared Bound
// columns; for every matching pair, missing cells of into are filled from
// from. A row of into with no match is kept, with newly introduced columns
// left NULL — the block has already filtered to compatible rows, so this is
// inner-join semantics at block scope, not a full join.
func Merge(from, into *Table) *Table {
	shared := sharedBoundNames(from, into)
	var sharedCols []*Column
	for _, n := range shared {
		sharedCols = append(sharedCols, into.Column(n))
	}
	var sharedFromCols []*Column
	for _, n := range shared {
		sharedFromCols = append(sharedFromCols, from.Column(n))
	}

	// union the schema: every column present in from but not into is added.
	out := New()
	for _, c := range into.cols {
		out.addColumnLocked(c.Name)
	}
	for _, c := range from.cols {
		out.addColumnLocked(c.Name)
	}

	if into.numRows == 0 {
		return out
	}
	if from.numRows == 0 {
		for r := 0; r < into.numRows; r++ {
			appendMergedRow(out, into, r, nil, -1)
		}
		return out
	}

	for r := 0; r < into.numRows; r++ {
		key, _ := rowKey(sharedCols, r)
		matched := false
		for fr := 0; fr < from.numRows; fr++ {
			fkey, _ := rowKey(sharedFromCols, fr)
			if !keysCompatible(key, fkey) {
				continue
			}
			matched = true
			appendMergedRow(out, into, r, from, fr)
		}
		if !matched {
			appendMergedRow(out, into, r, nil, -1)
		}
	}
	return out
}

func appendMergedRow(out *Table, into *Table, intoRow int, from *Table, fromRow int) {
	for _, c := range out.cols {
		v := rid.NULL
		if ic := into.Column(c.Name); ic != nil {
			iv := ic.Vals[intoRow]
			if iv != rid.NULL {
				v = iv
			}
		}
		if v == rid.NULL && from != nil {
			if fc := from.Column(c.Name); fc != nil {
				fv := fc.Vals[fromRow]
				if fv != rid.NULL {
					v = fv
				}
			}
		}
		c.Vals = append(c.Vals, v)
		if v != rid.NULL {
			c.Bound = true
		}
	}
	out.numRows++
}

// Join performs the inter-block join of spec §4.2/§4.6.
//
//   - Inner/Union: Cartesian product of rows of a and b agreeing on every
//     column bound in both.
//   - Left: additionally emit unmatched rows of a with b's unique columns
//     NULL-filled; on a matched row, if a's value is NULL and b's is not,
//     take b's value (optional-binds-if-present).
func Join(a, b *Table, kind JoinKind) *Table {
	shared := sharedBoundNames(a, b)
	var aShared, bShared []*Column
	for _, n := range shared {
		aShared = append(aShared, a.Column(n))
		bShared = append(bShared, b.Column(n))
	}

	out := New()
	for _, c := range a.cols {
		out.addColumnLocked(c.Name)
	}
	for _, c := range b.cols {
		out.addColumnLocked(c.Name)
	}

	for ar := 0; ar < a.numRows; ar++ {
		akey, _ := rowKey(aShared, ar)
		matched := false
		for br := 0; br < b.numRows; br++ {
			bkey, _ := rowKey(bShared, br)
			if !keysCompatible(akey, bkey) {
				continue
			}
			matched = true
			appendJoinedRow(out, a, ar, b, br)
		}
		if !matched && kind == Left {
			appendJoinedRow(out, a, ar, nil, -1)
		}
	}
	return out
}

func appendJoinedRow(out *Table, a *Table, aRow int, b *Table, bRow int) {
	for _, c := range out.cols {
		av := rid.NULL
		if ac := a.Column(c.Name); ac != nil {
			av = ac.Vals[aRow]
		}
		v := av
		if b != nil {
			if bc := b.Column(c.Name); bc != nil {
				bv := bc.Vals[bRow]
				// Left-join optional-binds-if-present: a's NULL loses to b's
				// non-NULL on a matched row.
				if v == rid.NULL && bv != rid.NULL {
					v = bv
				}
			}
		}
		c.Vals = append(c.Vals, v)
		if v != rid.NULL {
			c.Bound = true
		}
	}
	out.numRows++
}

// UnionTables appends rows of b onto a, lifting any column bound in one
// side but not the other (the unlifted side reads NULL there). Unlike
// Join(Inner) over an empty intersection, UnionTables never multiplies rows
// (spec §4.2).
func UnionTables(a, b *Table) *Table {
	out := New()
	for _, c := range a.cols {
		out.addColumnLocked(c.Name)
	}
	for _, c := range b.cols {
		out.addColumnLocked(c.Name)
	}
	for r := 0; r < a.numRows; r++ {
		for _, c := range out.cols {
			v := rid.NULL
			if ac := a.Column(c.Name); ac != nil {
				v = ac.Vals[r]
			}
			c.Vals = append(c.Vals, v)
			if v != rid.NULL {
				c.Bound = true
			}
		}
		out.numRows++
	}
	for r := 0; r < b.numRows; r++ {
		for _, c := range out.cols {
			v := rid.NULL
			if bc := b.Column(c.Name); bc != nil {
				v = bc.Vals[r]
			}
			c.Vals = append(c.Vals, v)
			if v != rid.NULL {
				c.Bound = true
			}
		}
		out.numRows++
	}
	return out
}
