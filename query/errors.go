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

import "gopkg.in/src-d/go-errors.v1"

// The three error categories of spec §7, each its own Kind so callers can
// tell parse/eval/storage failures apart with errors.Is-style matching.
var (
	// ErrParse marks a query that never reached execution — the AST the
	// caller handed Execute was already invalid. No rows, errors() > 0.
	ErrParse = errors.NewKind("parse error: %s")

	// ErrEval marks a filter-evaluation failure. Evaluation errors never
	// reach the caller directly — they collapse to a dropped row plus a
	// warning (spec §7) — this Kind exists for the rare case a caller needs
	// to classify a warning string programmatically.
	ErrEval = errors.NewKind("evaluation error: %s")

	// ErrStorage marks a fatal storage/infrastructure failure: a failed
	// bind call or a resolver returning GONE. Fatal for the query in
	// progress; rows already emitted stand (spec §7).
	ErrStorage = errors.NewKind("storage error: %s")

	// ErrGone narrows ErrStorage to the specific case of a RID resolving to
	// the GONE tombstone, a corruption signal rather than an ordinary miss
	// (spec §4.9).
	ErrGone = errors.NewKind("resource gone: rid %d")

	// ErrCacheCorrupt marks a bind-cache or resolution-cache entry that
	// failed an internal consistency check (spec §8's coherence property).
	ErrCacheCorrupt = errors.NewKind("cache corrupt: %s")

	// ErrClosed is returned by Handle methods called after Free.
	ErrClosed = errors.NewKind("query handle already freed")
)
