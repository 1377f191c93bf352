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

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

// StoreFreq adapts a storage.FreqStore (RID-keyed, context-taking) to the
// FreqTables shape Reorder consumes. Only const/const pairs ever have a
// meaningful frequency; subjectConst or predicateConst false means "this
// slot isn't a constant here", which storage.FreqStore has no concept of,
// so the adapter treats any non-constant slot as unknown.
type StoreFreq struct {
	Ctx context.Context
	Src storage.FreqStore
}

func (f StoreFreq) SPFreq(subjectConst, predicateConst bool, s, p uint64) (int64, bool) {
	if !subjectConst || !predicateConst || f.Src == nil {
		return 0, false
	}
	n, err := f.Src.SPFreq(f.Ctx, rid.RID(s), rid.RID(p))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (f StoreFreq) OPFreq(objectConst, predicateConst bool, o, p uint64) (int64, bool) {
	if !objectConst || !predicateConst || f.Src == nil {
		return 0, false
	}
	n, err := f.Src.OPFreq(f.Ctx, rid.RID(o), rid.RID(p))
	if err != nil {
		return 0, false
	}
	return n, true
}
