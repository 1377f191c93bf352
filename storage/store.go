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

// Package storage declares the capability interfaces the query core
// consumes from the segment storage layer (spec §6). Implementations —
// the real segment RPC client, or the in-memory reference in package
// memory — live outside this package; the query core depends only on
// these interfaces.
package storage

import (
	"context"

	"github.com/4store/qcore/rid"
)

// CoocPattern is one of the co-occurrence tags of spec §4.4's catalogue,
// set when a pattern repeats a variable across slots (e.g. `?x ?p ?x`), so
// storage can avoid producing non-matching rows.
type CoocPattern string

const (
	CoocXXAA CoocPattern = "XXAA"
	CoocXAXA CoocPattern = "XAXA"
	CoocXAAX CoocPattern = "XAAX"
	CoocXAAA CoocPattern = "XAAA"
	CoocAXXA CoocPattern = "AXXA"
	CoocAXAX CoocPattern = "AXAX"
	CoocAXAA CoocPattern = "AXAA"
	CoocAAXX CoocPattern = "AAXX"
	CoocAAXA CoocPattern = "AAXA"
	CoocAAAX CoocPattern = "AAAX"
	CoocAAAA CoocPattern = "AAAA"
	CoocAABB CoocPattern = "AABB"
	CoocABAB CoocPattern = "ABAB"
	CoocABBA CoocPattern = "ABBA"
)

// Scope selects which slot anchors a bind call.
type Scope int

const (
	ScopeBySubject Scope = iota
	ScopeByObject
)

// BindRequest is one call to the bind capability (spec §6).
type BindRequest struct {
	// Slots holds, per rid.Slot, either a probe vector of one or more
	// allowed RIDs (the constrained slots) or an empty vector (the slots
	// to return).
	Slots        [4][]rid.RID
	RequestSlots []rid.Slot // which slots' columns the caller wants back
	Scope        Scope
	Cooc         CoocPattern
	Distinct     bool
	DefaultGraph bool
	Offset       int
	Limit        int // soft limit; 0 means unlimited
}

// BindResult is the column set a bind call returns, row-aligned across the
// requested slots.
type BindResult struct {
	Slots     []rid.Slot
	Columns   [][]rid.RID // Columns[i] corresponds to Slots[i]
	Truncated bool
}

// Store is the segment storage capability the query core consumes.
type Store interface {
	// Bind resolves unconstrained slots of req against one segment's quad
	// index, scoped by subject or object (spec §4.4, §4.5).
	Bind(ctx context.Context, req BindRequest) (BindResult, error)

	// ReverseBind is the multi-pattern reverse bind used when several
	// adjacent patterns share an unbound subject and all other slots are
	// constant (spec §4.3, §4.4). patterns are ANDed: a returned subject
	// must jointly satisfy every pattern.
	ReverseBind(ctx context.Context, patterns []BindRequest) (BindResult, error)

	// Resolve batches RID -> (rid, attr, lex) lookups within one segment
	// (spec §4.9, §6).
	Resolve(ctx context.Context, segment int, rids []rid.RID) ([]rid.Resource, error)

	// SegmentCount reports how many segments this store fans bind calls
	// across (spec §5).
	SegmentCount() int

	// AllocateBNode issues a dense range of count bNode-tagged RIDs.
	AllocateBNode(ctx context.Context, count int) (from, to rid.RID, err error)
}

// FreqStore is the optional quad-frequency capability of spec §6; absence
// of this capability (a nil FreqStore or a Store that doesn't implement it)
// means the planner of package plan falls back to cruder structural rules.
type FreqStore interface {
	SPFreq(ctx context.Context, s, p rid.RID) (int64, error)
	OPFreq(ctx context.Context, o, p rid.RID) (int64, error)
}

// Hasher is the consumed RID-hashing capability (spec §6): UMAC-based in
// production (out of scope here — see spec §1), but any implementation
// must honour the tag-bit rules of spec §3.
type Hasher interface {
	HashURI(uri string) rid.RID
	HashLiteral(lex string, attr rid.RID) rid.RID
}
