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

package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

type fakeStore struct {
	storage.Store
	segments int
	data     map[rid.RID]rid.Resource
	calls    int
}

func (f *fakeStore) SegmentCount() int { return f.segments }

func (f *fakeStore) Resolve(ctx context.Context, segment int, rids []rid.RID) ([]rid.Resource, error) {
	f.calls++
	var out []rid.Resource
	for _, r := range rids {
		out = append(out, f.data[r])
	}
	return out, nil
}

func TestPrefetchPopulatesL1(t *testing.T) {
	require := require.New(t)

	u1 := rid.WithURITag(1)
	u2 := rid.WithURITag(2)
	store := &fakeStore{segments: 2, data: map[rid.RID]rid.Resource{
		u1: {RID: u1, Attr: rid.NULL, Lex: "http://a"},
		u2: {RID: u2, Attr: rid.NULL, Lex: "http://b"},
	}}
	cache := NewCache()

	err := Prefetch(context.Background(), store, cache, []rid.RID{u1, u2})
	require.NoError(err)

	res, ok := cache.Lookup(u1)
	require.True(ok)
	require.Equal("http://a", res.Lex)
}

func TestPrefetchSkipsAlreadyCached(t *testing.T) {
	require := require.New(t)

	u1 := rid.WithURITag(1)
	store := &fakeStore{segments: 1, data: map[rid.RID]rid.Resource{u1: {RID: u1, Lex: "x"}}}
	cache := NewCache()

	require.NoError(Prefetch(context.Background(), store, cache, []rid.RID{u1}))
	require.NoError(Prefetch(context.Background(), store, cache, []rid.RID{u1}))
	require.Equal(1, store.calls)
}

func TestPrefetchNeverCachesNullOrBNode(t *testing.T) {
	require := require.New(t)

	cache := NewCache()
	store := &fakeStore{segments: 1, data: map[rid.RID]rid.Resource{}}

	require.NoError(Prefetch(context.Background(), store, cache, []rid.RID{rid.NULL, rid.WithBNodeTag(7)}))
	require.Equal(0, store.calls)

	_, ok := cache.Lookup(rid.NULL)
	require.False(ok)
	_, ok = cache.Lookup(rid.WithBNodeTag(7))
	require.False(ok)
}

func TestPrefetchSurfacesGoneAsError(t *testing.T) {
	require := require.New(t)

	u1 := rid.WithURITag(1)
	store := &fakeStore{segments: 1, data: map[rid.RID]rid.Resource{u1: {RID: rid.GONE}}}
	cache := NewCache()

	err := Prefetch(context.Background(), store, cache, []rid.RID{u1})
	require.Error(err)
	var gone ErrGone
	require.ErrorAs(err, &gone)
}

func TestSpillMovesL1IntoL2(t *testing.T) {
	require := require.New(t)

	u1 := rid.WithURITag(42)
	cache := NewCache()
	cache.put(u1, rid.Resource{RID: u1, Lex: "spilled"})
	cache.SpillToL2()

	require.Empty(cache.l1)
	res, ok := cache.Lookup(u1)
	require.True(ok)
	require.Equal("spilled", res.Lex)
}
