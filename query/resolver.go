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

package query

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/4store/qcore/resolve"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
	"github.com/4store/qcore/value"
)

// cacheResolver implements both engine.Resolver and project.Resolver
// (identical Value(rid.RID) value.Value shape) on top of the process-wide
// resolve.Cache, falling back to a direct single-RID Resolve call on a
// cache miss — Prefetch keeps misses rare, not impossible, since a bind
// result can introduce a RID outside the window that was prefetched.
type cacheResolver struct {
	ctx   context.Context
	store storage.Store
	cache *resolve.Cache
	log   *logrus.Entry
}

func (r cacheResolver) Value(x rid.RID) value.Value {
	if x.IsNull() {
		return value.Unbound()
	}
	if x.IsBNode() {
		return value.Value{Slots: value.HasRID, RID: x, Kind: value.KindBNode}
	}

	res, ok := r.lookup(x)
	if !ok {
		return value.Unbound()
	}
	if x.IsURI() {
		return value.Value{Slots: value.HasRID | value.HasLex, RID: x, Kind: value.KindURI, Lex: res.Lex}
	}
	lang, datatypeURI := r.resolveAttr(res.Attr)
	return value.FromLiteral(x, res.Lex, res.Attr, lang, datatypeURI)
}

func (r cacheResolver) lookup(x rid.RID) (rid.Resource, bool) {
	if res, ok := r.cache.Lookup(x); ok {
		return res, true
	}
	resources, err := r.store.Resolve(r.ctx, 0, []rid.RID{x})
	if err != nil || len(resources) == 0 || resources[0].RID.IsGone() {
		if r.log != nil {
			r.log.WithField("rid", uint64(x)).Warn("resolve miss outside prefetch window")
		}
		return rid.Resource{}, false
	}
	return resources[0], true
}

// resolveAttr turns a literal's attr RID into LANG()/DATATYPE()'s lexical
// forms (spec SPEC_FULL §C.4): a URI attr is a datatype, a literal attr is
// itself a plain-literal language tag (spec §3), and EmptyAttr/NULL mean
// neither applies.
func (r cacheResolver) resolveAttr(attr rid.RID) (lang, datatypeURI string) {
	if attr.IsNull() || attr == rid.EmptyAttr {
		return "", ""
	}
	res, ok := r.lookup(attr)
	if !ok {
		return "", ""
	}
	if attr.IsURI() {
		return "", res.Lex
	}
	return res.Lex, ""
}
