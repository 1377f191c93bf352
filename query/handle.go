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
	"github.com/opentracing/opentracing-go"

	"github.com/4store/qcore/binding"
	"github.com/4store/qcore/resolve"
	"github.com/4store/qcore/rid"
)

// CellType classifies one emitted cell's RID, matching spec §6's
// `type ∈ {none, uri, literal, bnode}`.
type CellType int

const (
	CellNone CellType = iota
	CellURI
	CellLiteral
	CellBNode
)

// Cell is one column of one emitted row (spec §6): `(name, rid, type, lex,
// datatype_uri?, lang_tag?)`.
type Cell struct {
	Name        string
	RID         rid.RID
	Type        CellType
	Lex         string
	DatatypeURI string
	Lang        string
}

// Row is one fetched solution.
type Row []Cell

// Handle is the query_handle of spec §6: the live cursor over a finished
// query's projected binding table, plus its accumulated errors/warnings.
// Free must be called once the caller is done with it.
type Handle struct {
	state  *QueryState
	tracer opentracing.Tracer

	table  *binding.Table
	header []string
	count  *int64

	resolver cacheResolver

	cursor       int
	countEmitted bool
	closed       bool
}

// FetchHeaderRow returns the projected column names, or a single synthetic
// "count" column when the query collapsed to a COUNT result (spec §6).
func (h *Handle) FetchHeaderRow() ([]string, error) {
	if h.closed {
		return nil, ErrClosed.New()
	}
	if h.count != nil {
		return []string{"count"}, nil
	}
	return h.header, nil
}

// FetchRow returns the next solution, or ok == false once exhausted. Rows
// beyond a prefetch window boundary trigger a fresh batched resolve (spec
// §4.9); FetchRow is the one place in the public API where that suspension
// point is visible to the caller.
func (h *Handle) FetchRow() (Row, bool, error) {
	if h.closed {
		return nil, false, ErrClosed.New()
	}
	if h.count != nil {
		if h.countEmitted {
			return nil, false, nil
		}
		h.countEmitted = true
		return Row{{Name: "count", Type: CellLiteral, Lex: fmtInt(*h.count), DatatypeURI: xsdInteger}}, true, nil
	}
	if h.table == nil || h.cursor >= h.table.NumRows() {
		if h.state.Phase != PhaseDone {
			h.state.finish(h.tracer)
		}
		return nil, false, nil
	}

	if h.cursor%resolve.WindowSize == 0 {
		h.prefetchWindow()
	}

	r := h.cursor
	row := make(Row, len(h.header))
	for i, name := range h.header {
		col := h.table.Column(name)
		var v rid.RID = rid.NULL
		if col != nil {
			v = col.Vals[r]
		}
		row[i] = h.cellFor(name, v)
	}
	h.cursor++
	return row, true, nil
}

// prefetchWindow resolves the next window of distinct RIDs across every
// projected column in one batched call (spec §4.9), trading a resolve
// cache miss now for one later — FetchRow's per-row fallback still covers
// the cache-miss case, so a prefetch error here only costs a log line.
func (h *Handle) prefetchWindow() {
	if h.cursor > 0 {
		// Every row of the previous window has been emitted: move its
		// resolved entries out of L1 before fetching the next window.
		h.resolver.cache.SpillToL2()
	}
	end := h.cursor + resolve.WindowSize
	if end > h.table.NumRows() {
		end = h.table.NumRows()
	}
	var window []rid.RID
	for _, name := range h.header {
		col := h.table.Column(name)
		if col == nil {
			continue
		}
		window = append(window, col.Vals[h.cursor:end]...)
	}
	if err := resolve.Prefetch(h.resolver.ctx, h.resolver.store, h.resolver.cache, window); err != nil {
		h.state.Log.WithError(err).Warn("resolution prefetch failed, falling back to per-row resolve")
	}
}

// cellFor classifies v and, for a bound RID, resolves its lexical form via
// the handle's resolver. A GONE RID must never reach a caller (spec §4.1,
// §4.9's invariant); it is surfaced as CellNone plus a warning instead.
func (h *Handle) cellFor(name string, v rid.RID) Cell {
	switch {
	case v.IsNull():
		return Cell{Name: name, Type: CellNone}
	case v.IsGone():
		h.state.warn("column " + name + ": resolved to GONE, resource deleted or corrupt")
		return Cell{Name: name, Type: CellNone}
	case v.IsBNode():
		return Cell{Name: name, RID: v, Type: CellBNode, Lex: bnodeLex(v)}
	}
	val := h.resolver.Value(v)
	typ := CellLiteral
	if v.IsURI() {
		typ = CellURI
	}
	return Cell{Name: name, RID: v, Type: typ, Lex: val.Lex, DatatypeURI: val.DatatypeURI, Lang: val.Lang}
}

// Errors returns the count of fatal (parse or storage) errors the query
// encountered (spec §6).
func (h *Handle) Errors() int { return h.state.ErrCount }

// Warnings returns accumulated non-fatal warnings: filter evaluation
// errors, truncation notices, and explain traces (spec §6, §7).
func (h *Handle) Warnings() []string { return h.state.Warnings }

// Boolean reports the query's overall success flag (spec §4.10, §8): false
// if any required block failed or the root table ended up empty.
func (h *Handle) Boolean() bool { return h.state.Boolean }

// Free releases the handle. Calling any other method afterward returns
// ErrClosed.
func (h *Handle) Free() {
	if h.closed {
		return
	}
	if h.state.Phase != PhaseDone {
		h.state.finish(h.tracer)
	}
	h.table = nil
	h.closed = true
}
