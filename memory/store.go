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

// Package memory is an in-memory reference implementation of storage.Store,
// for tests and local experimentation: a single-segment quad index with
// brute-force bind scanning.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

// Store is a single-segment, mutex-protected quad index. It implements
// storage.Store, storage.FreqStore and storage.Hasher so tests can wire a
// complete query core without a real segment RPC client.
type Store struct {
	mu        sync.RWMutex
	quads     []rid.Quad
	resources map[rid.RID]rid.Resource
	uriToRID  map[string]rid.RID
	nextBNode uint64
}

// NewStore creates an empty single-segment store.
func NewStore() *Store {
	return &Store{
		resources: make(map[rid.RID]rid.Resource),
		uriToRID:  make(map[string]rid.RID),
	}
}

// HashURI implements storage.Hasher with an xxhash-keyed hash, tagged as a
// URI (spec §3). Unlike production 4store's UMAC hash (out of scope, spec
// §1), collisions are merely unlikely, not cryptographically defended
// against — acceptable for a reference/test implementation.
func (s *Store) HashURI(uri string) rid.RID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.uriToRID[uri]; ok {
		return r
	}
	r := rid.WithURITag(xxhash.Sum64String(uri))
	s.uriToRID[uri] = r
	s.resources[r] = rid.Resource{RID: r, Attr: rid.NULL, Lex: uri}
	return r
}

// HashLiteral implements storage.Hasher: the RID depends on both lex and
// attr, so "1"^^xsd:integer and "1"^^xsd:string hash distinctly (spec §3).
func (s *Store) HashLiteral(lex string, attr rid.RID) rid.RID {
	r := rid.WithLiteralTag(xxhash.Sum64String(fmt.Sprintf("%s\x00%d", lex, attr)))
	s.mu.Lock()
	s.resources[r] = rid.Resource{RID: r, Attr: attr, Lex: lex}
	s.mu.Unlock()
	return r
}

// AddQuad appends q to the quad list. It does not touch the resource table:
// only RIDs minted through HashURI/HashLiteral resolve. Test fixtures call
// this directly; it is not part of storage.Store.
func (s *Store) AddQuad(q rid.Quad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quads = append(s.quads, q)
}

// AllocateBNode issues a dense range of bNode-tagged RIDs (spec §6).
func (s *Store) AllocateBNode(ctx context.Context, count int) (from, to rid.RID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = rid.WithBNodeTag(s.nextBNode)
	s.nextBNode += uint64(count)
	to = rid.WithBNodeTag(s.nextBNode - 1)
	return from, to, nil
}

// SegmentCount reports 1: this reference implementation never partitions.
func (s *Store) SegmentCount() int { return 1 }

// Resolve looks up each requested RID's resource record (spec §4.9, §6).
// segment is ignored since SegmentCount is always 1.
func (s *Store) Resolve(ctx context.Context, segment int, rids []rid.RID) ([]rid.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rid.Resource, len(rids))
	for i, r := range rids {
		if r.IsBNode() {
			out[i] = rid.Resource{RID: r, Attr: rid.NULL, Lex: fmt.Sprintf("_:b%x", uint64(r))}
			continue
		}
		res, ok := s.resources[r]
		if !ok {
			out[i] = rid.Resource{RID: rid.GONE}
			continue
		}
		out[i] = res
	}
	return out, nil
}

// Bind resolves req's unconstrained slots by scanning every stored quad
// (spec §4.4, §4.5). Real segment storage uses indexes; a reference
// implementation can afford a linear scan.
func (s *Store) Bind(ctx context.Context, req storage.BindRequest) (storage.BindResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matchRows [][4]rid.RID
	for _, q := range s.quads {
		row := [4]rid.RID{q.Graph, q.Subject, q.Predicate, q.Object}
		if quadMatches(row, req.Slots) {
			matchRows = append(matchRows, row)
		}
	}
	if req.Distinct {
		matchRows = distinctRows(matchRows, req.RequestSlots)
	}
	if req.Offset > 0 {
		if req.Offset >= len(matchRows) {
			matchRows = nil
		} else {
			matchRows = matchRows[req.Offset:]
		}
	}
	truncated := false
	if req.Limit > 0 && len(matchRows) > req.Limit {
		matchRows = matchRows[:req.Limit]
		truncated = true
	}

	res := storage.BindResult{Slots: req.RequestSlots, Truncated: truncated}
	res.Columns = make([][]rid.RID, len(req.RequestSlots))
	for i, slot := range req.RequestSlots {
		col := make([]rid.RID, len(matchRows))
		for r, row := range matchRows {
			col[r] = row[slot]
		}
		res.Columns[i] = col
	}
	return res, nil
}

func quadMatches(row [4]rid.RID, probes [4][]rid.RID) bool {
	for i, p := range probes {
		if len(p) == 0 {
			continue
		}
		found := false
		for _, v := range p {
			if row[i] == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func distinctRows(rows [][4]rid.RID, slots []rid.Slot) [][4]rid.RID {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		key := make([]byte, 0, 8*len(slots))
		for _, s := range slots {
			for _, b := range []byte(fmt.Sprintf("%d|", row[s])) {
				key = append(key, b)
			}
		}
		k := string(key)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}

// ReverseBind ANDs patterns together: a returned subject must jointly
// satisfy every pattern in the group (spec §4.3, §4.4).
func (s *Store) ReverseBind(ctx context.Context, patterns []storage.BindRequest) (storage.BindResult, error) {
	if len(patterns) == 0 {
		return storage.BindResult{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make(map[rid.RID]bool)
	first := true
	for _, req := range patterns {
		matchedHere := make(map[rid.RID]bool)
		for _, q := range s.quads {
			row := [4]rid.RID{q.Graph, q.Subject, q.Predicate, q.Object}
			if quadMatches(row, req.Slots) {
				matchedHere[q.Subject] = true
			}
		}
		if first {
			subjects = matchedHere
			first = false
			continue
		}
		for subj := range subjects {
			if !matchedHere[subj] {
				delete(subjects, subj)
			}
		}
	}

	out := make([]rid.RID, 0, len(subjects))
	for subj := range subjects {
		out = append(out, subj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if patterns[0].Limit > 0 && len(out) > patterns[0].Limit {
		out = out[:patterns[0].Limit]
	}
	return storage.BindResult{Slots: []rid.Slot{rid.SlotSubject}, Columns: [][]rid.RID{out}}, nil
}

// SPFreq and OPFreq implement storage.FreqStore over the stored quads:
// exact counts, not estimates, since the reference store has no index to
// approximate from.
func (s *Store) SPFreq(ctx context.Context, sr, p rid.RID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, q := range s.quads {
		if q.Subject == sr && q.Predicate == p {
			n++
		}
	}
	return n, nil
}

func (s *Store) OPFreq(ctx context.Context, o, p rid.RID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, q := range s.quads {
		if q.Object == o && q.Predicate == p {
			n++
		}
	}
	return n, nil
}
