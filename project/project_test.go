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

package project

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/binding"
	"github.com/4store/qcore/filter"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/value"
)

type litResolver map[rid.RID]value.Value

func (r litResolver) Value(x rid.RID) value.Value {
	if v, ok := r[x]; ok {
		return v
	}
	return value.Unbound()
}

func u(n uint64) rid.RID { return rid.WithURITag(n) }

func TestDistinctDropsDuplicatesOnProjectedColumnsOnly(t *testing.T) {
	require := require.New(t)

	tbl := binding.New("x", "y")
	tbl.AddRow(u(1), u(10))
	tbl.AddRow(u(1), u(11)) // same x, different y: still distinct on x alone
	tbl.AddRow(u(2), u(12))

	distinct(tbl, []string{"x"})
	require.Equal(2, tbl.NumRows())
}

func TestDistinctIsIdempotent(t *testing.T) {
	require := require.New(t)

	tbl := binding.New("x")
	tbl.AddRow(u(1))
	tbl.AddRow(u(1))
	tbl.AddRow(u(2))

	distinct(tbl, []string{"x"})
	first := tbl.NumRows()
	distinct(tbl, []string{"x"})
	require.Equal(first, tbl.NumRows())
}

func TestOrderBySingleColumnFastPath(t *testing.T) {
	require := require.New(t)

	tbl := binding.New("x")
	tbl.AddRow(u(1))
	tbl.AddRow(u(2))
	tbl.AddRow(u(3))

	resolver := litResolver{
		u(1): value.Value{Kind: value.KindURI, RID: u(1), Lex: "http://c"},
		u(2): value.Value{Kind: value.KindURI, RID: u(2), Lex: "http://a"},
		u(3): value.Value{Kind: value.KindURI, RID: u(3), Lex: "http://b"},
	}

	orderBy(tbl, []OrderCond{{Expr: filter.Var("x")}}, resolver)

	got := tbl.Column("x").Vals
	require.Equal([]rid.RID{u(2), u(3), u(1)}, got)
}

func TestOffsetAndLimitComposition(t *testing.T) {
	require := require.New(t)

	tbl := binding.New("x")
	for i := uint64(0); i < 10; i++ {
		tbl.AddRow(u(i))
	}
	offset(tbl, 2)
	tbl.Truncate(3)
	require.Equal([]rid.RID{u(2), u(3), u(4)}, tbl.Column("x").Vals)
}

func TestCountReplacesRowCount(t *testing.T) {
	require := require.New(t)

	tbl := binding.New("x")
	tbl.AddRow(u(1))
	tbl.AddRow(u(2))

	out := Apply(tbl, []string{"x"}, Options{Count: true}, litResolver{})
	require.NotNil(out.Count)
	require.Equal(int64(2), *out.Count)
}

func TestRankOrdersNullBNodeURILiteral(t *testing.T) {
	require := require.New(t)

	n := value.Unbound()
	bn := value.Value{Kind: value.KindBNode}
	uri := value.Value{Kind: value.KindURI, Lex: "http://x"}
	lit := value.FromInt(1)

	require.Less(rank(n), rank(bn))
	require.Less(rank(bn), rank(uri))
	require.Less(rank(uri), rank(lit))
}
