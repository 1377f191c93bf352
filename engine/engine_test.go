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

package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/blocktree"
	"github.com/4store/qcore/engine"
	"github.com/4store/qcore/filter"
	"github.com/4store/qcore/memory"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/rowexec"
	"github.com/4store/qcore/value"
)

type storeResolver struct{ s *memory.Store }

func (r storeResolver) Value(x rid.RID) value.Value {
	if x.IsNull() {
		return value.Unbound()
	}
	resources, err := r.s.Resolve(context.Background(), 0, []rid.RID{x})
	if err != nil || len(resources) == 0 {
		return value.Unbound()
	}
	res := resources[0]
	if x.IsURI() {
		return value.Value{Slots: value.HasRID | value.HasLex, RID: x, Kind: value.KindURI, Lex: res.Lex}
	}
	return value.FromLiteral(x, res.Lex, res.Attr, "", "")
}

func TestRunSingleBlockInnerJoinRoot(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	p := s.HashURI("http://p")
	o := s.HashURI("http://o")
	subj1 := s.HashURI("http://s1")
	subj2 := s.HashURI("http://s2")
	s.AddQuad(rid.Quad{Subject: subj1, Predicate: p, Object: o})
	s.AddQuad(rid.Quad{Subject: subj2, Predicate: p, Object: o})

	tree := blocktree.NewTree()
	tree.Blocks[0].Patterns = []blocktree.Pattern{
		{Subject: blocktree.VarTerm("s"), Predicate: blocktree.ConstTerm(p), Object: blocktree.ConstTerm(o)},
	}

	res, err := engine.Run(context.Background(), tree, s, rowexec.NewBindCache(), nil, storeResolver{s}, rowexec.Options{})
	require.NoError(err)
	require.True(res.Truth)
	require.ElementsMatch([]rid.RID{subj1, subj2}, res.Table.Column("s").Vals)
}

func TestRunOptionalBlockKeepsUnmatchedParentRows(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	p := s.HashURI("http://p")
	q := s.HashURI("http://q")
	oVal := s.HashURI("http://o1")
	oVal2 := s.HashURI("http://o2")
	withQ := s.HashURI("http://with-q")
	withoutQ := s.HashURI("http://without-q")
	s.AddQuad(rid.Quad{Subject: withQ, Predicate: p, Object: oVal})
	s.AddQuad(rid.Quad{Subject: withoutQ, Predicate: p, Object: oVal2})
	s.AddQuad(rid.Quad{Subject: oVal, Predicate: q, Object: oVal2})

	tree := blocktree.NewTree()
	tree.Blocks[0].Patterns = []blocktree.Pattern{
		{Subject: blocktree.VarTerm("s"), Predicate: blocktree.ConstTerm(p), Object: blocktree.VarTerm("x")},
	}
	child := tree.AddChild(0, blocktree.JoinLeft)
	tree.Blocks[child].Patterns = []blocktree.Pattern{
		{Subject: blocktree.VarTerm("x"), Predicate: blocktree.ConstTerm(q), Object: blocktree.VarTerm("o")},
	}

	res, err := engine.Run(context.Background(), tree, s, rowexec.NewBindCache(), nil, storeResolver{s}, rowexec.Options{})
	require.NoError(err)
	require.Equal(2, res.Table.NumRows())

	sCol := res.Table.Column("s")
	oCol := res.Table.Column("o")
	seen := map[rid.RID]rid.RID{}
	for i, sv := range sCol.Vals {
		seen[sv] = oCol.Vals[i]
	}
	require.Equal(oVal2, seen[withQ])
	require.Equal(rid.NULL, seen[withoutQ])
}

func TestRunUnionBlockAppendsBothAlternatives(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	p := s.HashURI("http://p")
	a := s.HashURI("http://a")
	b := s.HashURI("http://b")
	subjA := s.HashURI("http://subj-a")
	subjB := s.HashURI("http://subj-b")
	s.AddQuad(rid.Quad{Subject: subjA, Predicate: p, Object: a})
	s.AddQuad(rid.Quad{Subject: subjB, Predicate: p, Object: b})

	tree := blocktree.NewTree()
	left := tree.AddChild(0, blocktree.JoinUnionMember)
	right := tree.AddChild(0, blocktree.JoinUnionMember)
	tree.Blocks[left].UnionGroup = 1
	tree.Blocks[right].UnionGroup = 1
	tree.Blocks[left].Patterns = []blocktree.Pattern{
		{Subject: blocktree.VarTerm("s"), Predicate: blocktree.ConstTerm(p), Object: blocktree.ConstTerm(a)},
	}
	tree.Blocks[right].Patterns = []blocktree.Pattern{
		{Subject: blocktree.VarTerm("s"), Predicate: blocktree.ConstTerm(p), Object: blocktree.ConstTerm(b)},
	}

	res, err := engine.Run(context.Background(), tree, s, rowexec.NewBindCache(), nil, storeResolver{s}, rowexec.Options{})
	require.NoError(err)
	require.ElementsMatch([]rid.RID{subjA, subjB}, res.Table.Column("s").Vals)
}

func TestRunFilterDropsNonMatchingRows(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	p := s.HashURI("http://p")
	keep := s.HashURI("http://keep")
	drop := s.HashURI("http://drop")
	subjKeep := s.HashURI("http://subj-keep")
	subjDrop := s.HashURI("http://subj-drop")
	s.AddQuad(rid.Quad{Subject: subjKeep, Predicate: p, Object: keep})
	s.AddQuad(rid.Quad{Subject: subjDrop, Predicate: p, Object: drop})

	tree := blocktree.NewTree()
	tree.Blocks[0].Patterns = []blocktree.Pattern{
		{Subject: blocktree.VarTerm("s"), Predicate: blocktree.ConstTerm(p), Object: blocktree.VarTerm("x")},
	}
	eq := filter.Bin(filter.OpEq, filter.Var("x"), filter.Const(value.FromRID(keep)))
	tree.Blocks[0].Filters = []blocktree.Filter{{Expr: eq, Vars: []string{"x"}}}

	res, err := engine.Run(context.Background(), tree, s, rowexec.NewBindCache(), nil, storeResolver{s}, rowexec.Options{})
	require.NoError(err)
	require.Equal([]rid.RID{subjKeep}, res.Table.Column("s").Vals)
}
