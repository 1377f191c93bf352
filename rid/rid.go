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

// Package rid implements the tagged 64-bit resource identifier used
// throughout the query core. The top two bits classify a RID as a URI,
// bNode or literal; two sentinels (NULL, GONE) carry unbound/deleted
// meaning. See spec §3.
package rid

// RID is a tagged 64-bit resource identifier.
type RID uint64

const (
	tagLiteralHi = 0x0 // 0b0x, literal (both a 0 top bit)
	tagBNode     = 0x2 // 0b10
	tagURI       = 0x3 // 0b11

	tagShift = 62
	tagMask  = RID(0x3) << tagShift
)

const (
	// NULL marks an unbound variable slot.
	NULL RID = 0x8000000000000000
	// GONE marks a resource that storage has tombstoned or cannot resolve.
	// GONE must never reach an output row; see spec §4.1, §4.9.
	GONE RID = 0x0000000000000000
)

// IsURI reports whether r carries the 11 tag.
func (r RID) IsURI() bool {
	return r != NULL && (r>>tagShift) == tagURI
}

// IsBNode reports whether r carries the 10 tag.
func (r RID) IsBNode() bool {
	return r != NULL && (r>>tagShift) == tagBNode
}

// IsLiteral reports whether r carries a 0x tag (top bit clear).
// NULL itself has its top bit set and is never classified as a literal.
func (r RID) IsLiteral() bool {
	return r != NULL && (r>>63) == 0
}

// IsNull reports whether r is the unbound sentinel.
func (r RID) IsNull() bool {
	return r == NULL
}

// IsGone reports whether r is the tombstone sentinel. GONE is only ever
// seen inside storage; callers resolving a row must treat it as corruption,
// never emit it (spec §4.9).
func (r RID) IsGone() bool {
	return r == GONE
}

// CanBeSubjectOrPredicate reports whether r's class is legal in a subject,
// predicate or graph slot (URI or bNode only — never a literal). Used by the
// pattern executor (§4.4) to filter probe values before a bind call.
func (r RID) CanBeSubjectOrPredicate() bool {
	return r.IsURI() || r.IsBNode()
}

// WithURITag forces the 11 tag onto the low 62 bits of h, as required when
// hashing a URI string (spec §3).
func WithURITag(h uint64) RID {
	return RID(h&^uint64(tagMask)) | (RID(tagURI) << tagShift)
}

// WithLiteralTag forces the top bit clear, keeping the low 63 bits of h, as
// required when hashing a literal's (lex, attr) pair (spec §3).
func WithLiteralTag(h uint64) RID {
	return RID(h &^ (uint64(1) << 63))
}

// WithBNodeTag forces the 10 tag onto a dense allocator-issued integer n.
func WithBNodeTag(n uint64) RID {
	return RID(n&^uint64(tagMask)) | (RID(tagBNode) << tagShift)
}
