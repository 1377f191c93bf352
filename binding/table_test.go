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

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/rid"
)

func u(n uint64) rid.RID { return rid.WithURITag(n) }

// snapshot flattens tbl into column-name -> values, ordered by cols, for a
// single cmp.Diff call instead of one require.Equal per column.
func snapshot(tbl *Table, cols ...string) map[string][]rid.RID {
	out := make(map[string][]rid.RID, len(cols))
	for _, name := range cols {
		c := tbl.Column(name)
		if c == nil {
			out[name] = nil
			continue
		}
		vals := make([]rid.RID, len(c.Vals))
		copy(vals, c.Vals)
		out[name] = vals
	}
	return out
}

func TestAddAndBound(t *testing.T) {
	require := require.New(t)

	tbl := New("x", "y")
	tbl.AddRow(u(1), rid.NULL)
	tbl.AddRow(u(2), u(9))

	require.Equal(2, tbl.NumRows())
	require.True(tbl.Column("x").Bound)
	require.True(tbl.Column("y").Bound)
}

func TestUniqDropsDuplicateBoundRows(t *testing.T) {
	require := require.New(t)

	tbl := New("x")
	tbl.AddRow(u(1))
	tbl.AddRow(u(1))
	tbl.AddRow(u(2))

	tbl.Column("x").Sort = true
	tbl.Sort(tbl.Columns())
	tbl.Uniq()

	require.Equal(2, tbl.NumRows())
}

func TestUniqIdempotent(t *testing.T) {
	require := require.New(t)

	mk := func() *Table {
		tbl := New("x")
		tbl.AddRow(u(3))
		tbl.AddRow(u(1))
		tbl.AddRow(u(1))
		tbl.Column("x").Sort = true
		tbl.Sort(tbl.Columns())
		return tbl
	}

	once := mk()
	once.Uniq()
	twice := mk()
	twice.Uniq()
	twice.Uniq()

	require.Equal(once.Row(0), twice.Row(0))
	require.Equal(once.NumRows(), twice.NumRows())
}

func TestMergeFillsMissingCells(t *testing.T) {
	require := require.New(t)

	into := New("s")
	into.AddRow(u(1))
	into.AddRow(u(2))

	from := New("s", "o")
	from.AddRow(u(1), u(100))

	merged := Merge(from, into)

	require.Equal(2, merged.NumRows())
	o := merged.Column("o")
	require.Equal(u(100), o.Vals[0])
	require.Equal(rid.NULL, o.Vals[1])
}

func TestJoinInnerCommutesAsMultiset(t *testing.T) {
	require := require.New(t)

	a := New("x", "y")
	a.AddRow(u(1), u(10))
	a.AddRow(u(2), u(20))

	b := New("x", "z")
	b.AddRow(u(1), u(100))
	b.AddRow(u(3), u(300))

	ab := Join(a, b, Inner)
	ba := Join(b, a, Inner)

	require.Equal(ab.NumRows(), ba.NumRows())
	require.Equal(1, ab.NumRows())
}

func TestLeftJoinIdentityAgainstEmpty(t *testing.T) {
	require := require.New(t)

	a := New("x")
	a.AddRow(u(1))
	a.AddRow(u(2))

	empty := New("y")

	joined := Join(a, empty, Left)

	require.Equal(a.NumRows(), joined.NumRows())
	require.Equal(rid.NULL, joined.Column("y").Vals[0])
}

func TestLeftJoinPrefersChildValueOnMatch(t *testing.T) {
	require := require.New(t)

	a := New("x", "o")
	a.AddRow(u(1), rid.NULL)

	b := New("x", "o")
	b.AddRow(u(1), u(77))

	joined := Join(a, b, Left)

	require.Equal(1, joined.NumRows())
	require.Equal(u(77), joined.Column("o").Vals[0])
}

func TestUnionDoesNotMultiply(t *testing.T) {
	require := require.New(t)

	a := New("s")
	a.AddRow(u(1))
	b := New("s")
	b.AddRow(u(2))

	out := UnionTables(a, b)
	require.Equal(2, out.NumRows())
}

func TestTruncateReportsWhetherItFired(t *testing.T) {
	require := require.New(t)

	tbl := New("x")
	tbl.AddRow(u(1))
	tbl.AddRow(u(2))
	tbl.AddRow(u(3))

	require.True(tbl.Truncate(2))
	require.Equal(2, tbl.NumRows())
	require.False(tbl.Truncate(5))
}

func TestLeftJoinFullColumnSnapshot(t *testing.T) {
	a := New("x", "y")
	a.AddRow(u(1), u(10))
	a.AddRow(u(2), u(20))

	b := New("x", "z")
	b.AddRow(u(1), u(100))

	joined := Join(a, b, Left)

	got := snapshot(joined, "x", "y", "z")
	want := map[string][]rid.RID{
		"x": {u(1), u(2)},
		"y": {u(10), u(20)},
		"z": {u(100), rid.NULL},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("left join column snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnLengthInvariant(t *testing.T) {
	require := require.New(t)

	tbl := New("a", "b", "c")
	tbl.AddRow(u(1), u(2), rid.NULL)
	tbl.AddRow(u(3), rid.NULL, u(4))

	n := tbl.Column("a").Vals
	for _, c := range tbl.Columns() {
		require.Equal(len(n), len(c.Vals))
	}
}
