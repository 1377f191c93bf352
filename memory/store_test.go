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

package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/memory"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

func TestHashLiteralDependsOnAttr(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	asInt := s.HashLiteral("1", rid.WithURITag(1))
	asStr := s.HashLiteral("1", rid.WithURITag(2))
	require.NotEqual(asInt, asStr)
}

func TestBindByObjectReturnsMatchingSubjects(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	p := s.HashURI("http://p")
	o := s.HashURI("http://o")
	s1 := s.HashURI("http://s1")
	s2 := s.HashURI("http://s2")
	s.AddQuad(rid.Quad{Graph: rid.DefaultGraph, Subject: s1, Predicate: p, Object: o})
	s.AddQuad(rid.Quad{Graph: rid.DefaultGraph, Subject: s2, Predicate: p, Object: o})

	req := storage.BindRequest{
		Slots:        [4][]rid.RID{{}, {}, {p}, {o}},
		RequestSlots: []rid.Slot{rid.SlotSubject},
	}
	res, err := s.Bind(context.Background(), req)
	require.NoError(err)
	require.Len(res.Columns, 1)
	require.ElementsMatch([]rid.RID{s1, s2}, res.Columns[0])
}

func TestResolveRoundTripsURI(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	r := s.HashURI("http://example/x")
	resources, err := s.Resolve(context.Background(), 0, []rid.RID{r})
	require.NoError(err)
	require.Equal("http://example/x", resources[0].Lex)
}

func TestResolveUnknownRIDIsGone(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	resources, err := s.Resolve(context.Background(), 0, []rid.RID{rid.WithURITag(999)})
	require.NoError(err)
	require.True(resources[0].RID.IsGone())
}

func TestReverseBindRequiresAllPatternsToMatch(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	p1 := s.HashURI("http://p1")
	p2 := s.HashURI("http://p2")
	o1 := s.HashURI("http://o1")
	o2 := s.HashURI("http://o2")
	subj := s.HashURI("http://subj-both")
	subjOnly1 := s.HashURI("http://subj-one")

	s.AddQuad(rid.Quad{Subject: subj, Predicate: p1, Object: o1})
	s.AddQuad(rid.Quad{Subject: subj, Predicate: p2, Object: o2})
	s.AddQuad(rid.Quad{Subject: subjOnly1, Predicate: p1, Object: o1})

	res, err := s.ReverseBind(context.Background(), []storage.BindRequest{
		{Slots: [4][]rid.RID{{}, {}, {p1}, {o1}}},
		{Slots: [4][]rid.RID{{}, {}, {p2}, {o2}}},
	})
	require.NoError(err)
	require.Equal([]rid.RID{subj}, res.Columns[0])
}

func TestAllocateBNodeIssuesDenseRange(t *testing.T) {
	require := require.New(t)

	s := memory.NewStore()
	from1, to1, err := s.AllocateBNode(context.Background(), 3)
	require.NoError(err)
	from2, _, err := s.AllocateBNode(context.Background(), 1)
	require.NoError(err)

	require.True(from1.IsBNode())
	require.True(to1.IsBNode())
	require.NotEqual(from1, from2)
}
