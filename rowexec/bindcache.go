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

package rowexec

import (
	"sync"

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

// bindCacheSize is the fixed direct-mapped cache size of spec §4.5.
const bindCacheSize = 128

// BindCacheKey identifies one memoisable bind call. Every slot vector must
// have length <= 1 (fully constant or fully unbound) for a call to be
// cacheable at all (spec §4.5).
type BindCacheKey struct {
	Scope    storage.Scope
	Cooc     storage.CoocPattern
	Distinct bool
	Offset   int
	Limit    int
	Slots    [4]rid.RID // rid.NULL for an unbound slot in this call
}

// Cacheable reports whether req qualifies: every probe vector has length
// <= 1.
func Cacheable(req storage.BindRequest) (BindCacheKey, bool) {
	var key BindCacheKey
	key.Scope = req.Scope
	key.Cooc = req.Cooc
	key.Distinct = req.Distinct
	key.Offset = req.Offset
	key.Limit = req.Limit
	for i, p := range req.Slots {
		switch len(p) {
		case 0:
			key.Slots[i] = rid.NULL
		case 1:
			key.Slots[i] = p[0]
		default:
			return BindCacheKey{}, false
		}
	}
	return key, true
}

// index computes the direct-mapped slot for key by xor of its constant
// slots (spec §4.5).
func (k BindCacheKey) index() int {
	h := uint64(k.Offset) ^ uint64(k.Limit)
	for _, v := range k.Slots {
		h ^= uint64(v)
	}
	if k.Distinct {
		h ^= 1
	}
	return int(h % bindCacheSize)
}

// BindCache memoises (kind, flags, offset, limit, slot-constants) -> result
// columns for the lifetime of one query (spec §4.5). It is direct-mapped:
// a colliding key evicts whatever previously occupied the slot.
type BindCache struct {
	mu      sync.Mutex
	entries [bindCacheSize]*bindCacheEntry
	hits    int64
	misses  int64
}

type bindCacheEntry struct {
	key    BindCacheKey
	result storage.BindResult
}

// NewBindCache creates an empty 128-entry bind cache.
func NewBindCache() *BindCache { return &BindCache{} }

// Get returns a copy of the cached result for key, if present and the
// direct-mapped slot actually holds this exact key (not a collision from a
// different call).
func (c *BindCache) Get(key BindCacheKey) (storage.BindResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.index()]
	if e == nil || e.key != key {
		c.misses++
		return storage.BindResult{}, false
	}
	c.hits++
	return copyResult(e.result), true
}

// Put stores result under key, evicting (freeing) whatever previously
// occupied the direct-mapped slot.
func (c *BindCache) Put(key BindCacheKey, result storage.BindResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.index()] = &bindCacheEntry{key: key, result: copyResult(result)}
}

// Stats returns cumulative hit/miss counters for metrics export (SPEC_FULL §A.6).
func (c *BindCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func copyResult(r storage.BindResult) storage.BindResult {
	out := storage.BindResult{Slots: append([]rid.Slot(nil), r.Slots...), Truncated: r.Truncated}
	out.Columns = make([][]rid.RID, len(r.Columns))
	for i, c := range r.Columns {
		out.Columns[i] = append([]rid.RID(nil), c...)
	}
	return out
}
