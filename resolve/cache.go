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

// Package resolve implements the two-tier RID-to-resource resolution cache
// and its batched pre-fetch (spec §4.9): an L1 hash map fed by segment-
// batched lookups, spilled in bulk into a fixed-size L2 direct-mapped array
// once the executor advances past a prefetch window.
package resolve

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

// l2Size is the L2 array's entry count (spec §4.9: "fixed-size L2 cache:
// direct-mapped array of 65,536 entries, index = low bits of RID").
const l2Size = 65536

// Cache is the process-scoped, two-tier resolution cache. One Cache is
// shared across queries; L1 and L2 are both protected by mu (spec §5: "the
// resource-resolution L1 hash and L2 array are process-global, single
// mutex").
type Cache struct {
	mu sync.Mutex
	l1 map[rid.RID]rid.Resource
	l2 [l2Size]l2Entry
}

type l2Entry struct {
	valid bool
	rid   rid.RID
	res   rid.Resource
}

// NewCache builds an empty two-tier cache.
func NewCache() *Cache {
	return &Cache{l1: make(map[rid.RID]rid.Resource)}
}

// Lookup consults L1 then L2, returning ok == false on a miss. It never
// consults storage; callers use Prefetch first (spec §4.9).
func (c *Cache) Lookup(r rid.RID) (rid.Resource, bool) {
	if r.IsNull() || r.IsBNode() {
		return rid.Resource{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.l1[r]; ok {
		return res, true
	}
	idx := l2Index(r)
	if e := c.l2[idx]; e.valid && e.rid == r {
		return e.res, true
	}
	return rid.Resource{}, false
}

func l2Index(r rid.RID) uint32 {
	return uint32(uint64(r) & (l2Size - 1))
}

// put stores a freshly resolved resource in L1. NULL and bNode RIDs are
// never cached: bNode lexical forms are synthesised on demand as _:b<hex>,
// never looked up (spec §4.9).
func (c *Cache) put(r rid.RID, res rid.Resource) {
	if r.IsNull() || r.IsBNode() {
		return
	}
	c.mu.Lock()
	c.l1[r] = res
	c.mu.Unlock()
}

// SpillToL2 bulk-moves every L1 entry into L2, clearing L1 (spec §4.9: "when
// the executor advances past the prefetch window the L1 is spilled into the
// fixed-size L2 cache"). Call this once a prefetch window has been fully
// consumed.
func (c *Cache) SpillToL2() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for r, res := range c.l1 {
		c.l2[l2Index(r)] = l2Entry{valid: true, rid: r, res: res}
	}
	c.l1 = make(map[rid.RID]rid.Resource)
}

// segmentOf assigns r to one of n storage segments for a batched resolve
// call. The real system partitions RIDs into contiguous per-segment ranges
// at allocation time; lacking that allocator here, an xxhash-mixed
// assignment stands in — any consistent assignment satisfies "one batched
// lookup per segment" (spec §4.9), since segment identity only affects
// which RPC a RID's lookup rides on, not correctness. Hashing rather than
// the raw RID's low bits avoids clustering consecutive RIDs (e.g. a dense
// bNode allocation range) onto one segment.
func segmentOf(r rid.RID, n int) int {
	if n <= 1 {
		return 0
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(r))
	return int(xxhash.Sum64(buf[:]) % uint64(n))
}

// ErrGone is returned by Prefetch when a requested RID resolves to
// rid.GONE: a corruption signal, not a normal miss (spec §4.9).
type ErrGone struct{ RID rid.RID }

func (e ErrGone) Error() string { return "resolve: rid resolved to GONE, resource deleted or corrupt" }

// Prefetch resolves every rid in window not already cached, batched one
// call per storage segment (spec SPEC_FULL §C.6, grounded on 4store's
// 4s-resolve.c per-segment batching), and stores the results in L1.
func Prefetch(ctx context.Context, store storage.Store, cache *Cache, window []rid.RID) error {
	bySegment := make(map[int][]rid.RID)
	n := store.SegmentCount()
	for _, r := range window {
		if r.IsNull() || r.IsBNode() {
			continue
		}
		if _, ok := cache.Lookup(r); ok {
			continue
		}
		seg := segmentOf(r, n)
		bySegment[seg] = append(bySegment[seg], r)
	}
	for seg, rids := range bySegment {
		resources, err := store.Resolve(ctx, seg, rids)
		if err != nil {
			return err
		}
		for _, res := range resources {
			if res.RID.IsGone() {
				return ErrGone{RID: res.RID}
			}
			cache.put(res.RID, res)
		}
	}
	return nil
}

// WindowSize is the default pre-fetch window row count (spec §4.9: "N ≈
// 1800, capped by LIMIT").
const WindowSize = 1800

// Window computes the effective prefetch size for a query with the given
// LIMIT (0 meaning unlimited).
func Window(limit int) int {
	if limit > 0 && limit < WindowSize {
		return limit
	}
	return WindowSize
}
