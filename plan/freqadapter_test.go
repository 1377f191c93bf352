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

package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/rid"
)

type fakeFreqStore struct {
	sp    map[[2]rid.RID]int64
	op    map[[2]rid.RID]int64
	spErr error
}

func (f fakeFreqStore) SPFreq(ctx context.Context, s, p rid.RID) (int64, error) {
	if f.spErr != nil {
		return 0, f.spErr
	}
	return f.sp[[2]rid.RID{s, p}], nil
}

func (f fakeFreqStore) OPFreq(ctx context.Context, o, p rid.RID) (int64, error) {
	return f.op[[2]rid.RID{o, p}], nil
}

func TestStoreFreqSPFreqRequiresBothSlotsConstant(t *testing.T) {
	require := require.New(t)

	s, p := rid.RID(1), rid.RID(2)
	src := fakeFreqStore{sp: map[[2]rid.RID]int64{{s, p}: 42}}
	f := StoreFreq{Ctx: context.Background(), Src: src}

	n, ok := f.SPFreq(true, true, uint64(s), uint64(p))
	require.True(ok)
	require.Equal(int64(42), n)

	_, ok = f.SPFreq(false, true, uint64(s), uint64(p))
	require.False(ok)

	_, ok = f.SPFreq(true, false, uint64(s), uint64(p))
	require.False(ok)
}

func TestStoreFreqOPFreqRequiresBothSlotsConstant(t *testing.T) {
	require := require.New(t)

	o, p := rid.RID(10), rid.RID(20)
	src := fakeFreqStore{op: map[[2]rid.RID]int64{{o, p}: 7}}
	f := StoreFreq{Ctx: context.Background(), Src: src}

	n, ok := f.OPFreq(true, true, uint64(o), uint64(p))
	require.True(ok)
	require.Equal(int64(7), n)

	_, ok = f.OPFreq(false, false, uint64(o), uint64(p))
	require.False(ok)
}

func TestStoreFreqNilSourceIsAlwaysUnknown(t *testing.T) {
	require := require.New(t)

	f := StoreFreq{Ctx: context.Background(), Src: nil}
	_, ok := f.SPFreq(true, true, 1, 2)
	require.False(ok)
}

func TestStoreFreqPropagatesStorageErrorAsUnknown(t *testing.T) {
	require := require.New(t)

	src := fakeFreqStore{spErr: errors.New("boom")}
	f := StoreFreq{Ctx: context.Background(), Src: src}

	_, ok := f.SPFreq(true, true, 1, 2)
	require.False(ok)
}
