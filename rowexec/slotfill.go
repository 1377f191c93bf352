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

// Package rowexec implements the pattern executor (spec §4.4, §4.5): slot
// filling, bind/reverse-bind invocation, and absorbing bind results back
// into the current block's binding table.
package rowexec

import (
	"github.com/4store/qcore/binding"
	"github.com/4store/qcore/blocktree"
	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/storage"
)

// Filled is the slot-fill output for one pattern: one probe vector and
// variable name per quad slot (spec §4.4).
type Filled struct {
	Probes [4][]rid.RID
	Names  [4]string // variable name for bound and unbound variable slots; "" for constant slots
	// Unbound marks which slots are genuinely free variables (Probes[i] empty
	// and Names[i] set) as opposed to a constant or an already-bound probe.
	Unbound [4]bool
}

// FillSlots produces the four probe vectors for pattern p against the
// current block's binding snapshot (spec §4.4):
//
//   - a constant term pushes its RID (hashing is the caller's — already
//     constant-folded into blocktree.Term.Const by the planner/parser);
//   - a variable already bound in snapshot pushes its distinct bound
//     values, filtered to URI/bNode RIDs only when the slot is s/p/g (a
//     literal there is type-impossible and would never match);
//   - an unbound variable leaves its vector empty and records its name.
func FillSlots(p blocktree.Pattern, snapshot *binding.Table) Filled {
	var f Filled
	slots := p.Slots()
	for i, term := range slots {
		s := rid.Slot(i)
		switch {
		case term.IsConst:
			f.Probes[i] = []rid.RID{term.Const}
		case term.Variable != "" && snapshot != nil && snapshot.HasColumn(term.Variable) && snapshot.Column(term.Variable).Bound:
			f.Probes[i] = distinctBoundValues(snapshot.Column(term.Variable), s)
			f.Names[i] = term.Variable
		default:
			f.Names[i] = term.Variable
			f.Unbound[i] = term.Variable != ""
		}
	}
	return f
}

func distinctBoundValues(c *binding.Column, s rid.Slot) []rid.RID {
	seen := make(map[rid.RID]bool)
	var out []rid.RID
	restrictToRef := s == rid.SlotSubject || s == rid.SlotPredicate || s == rid.SlotGraph
	for _, v := range c.Vals {
		if v == rid.NULL || seen[v] {
			continue
		}
		if restrictToRef && !v.CanBeSubjectOrPredicate() {
			continue // type-impossible probe value for this slot, skip it
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CoocPattern derives the co-occurrence tag for a pattern whose slots repeat
// a variable (e.g. `?x ?p ?x`), selected from the catalogue of spec §4.4.
// Slots are compared pairwise by variable identity (constants never
// co-occur with anything). An empty return means no repetition: the
// default "all independent" case storage needs no special tag for.
func CoocPattern(p blocktree.Pattern) storage.CoocPattern {
	slots := p.Slots()
	names := [4]string{}
	for i, t := range slots {
		if !t.IsConst {
			names[i] = t.Variable
		}
	}
	// Label each of the 4 slots A/B/X/Y by first-seen distinct variable,
	// constants as their own unique label, producing a 4-letter pattern
	// matching the catalogue's shorthand (graph position folded into the
	// subject/predicate/object triad per spec's XXAA-style 4-letter codes
	// which are defined over exactly 4 slots, graph included).
	label := make(map[string]byte)
	next := byte('A')
	code := make([]byte, 4)
	for i, n := range names {
		if n == "" {
			code[i] = '_'
			continue
		}
		l, ok := label[n]
		if !ok {
			l = next
			label[n] = l
			next++
		}
		code[i] = l
	}
	vars := 0
	for _, n := range names {
		if n != "" {
			vars++
		}
	}
	if int(next-'A') == vars {
		return "" // no variable repeats
	}
	tag := storage.CoocPattern(code)
	for _, known := range knownCooc {
		if matchesShape(string(tag), string(known)) {
			return known
		}
	}
	return ""
}

var knownCooc = []storage.CoocPattern{
	storage.CoocXXAA, storage.CoocXAXA, storage.CoocXAAX, storage.CoocXAAA,
	storage.CoocAXXA, storage.CoocAXAX, storage.CoocAXAA, storage.CoocAAXX,
	storage.CoocAAXA, storage.CoocAAAX, storage.CoocAAAA, storage.CoocAABB,
	storage.CoocABAB, storage.CoocABBA,
}

// matchesShape compares two 4-letter codes up to a consistent relabeling
// (so "BC_A"-style constant-containing codes still match a catalogue entry
// expressed purely in repeated-variable letters, ignoring constant slots).
func matchesShape(code, pattern string) bool {
	if len(code) != len(pattern) {
		return false
	}
	map1 := map[byte]byte{}
	map2 := map[byte]byte{}
	for i := 0; i < len(code); i++ {
		a, b := code[i], pattern[i]
		if a == '_' {
			continue
		}
		if m, ok := map1[a]; ok {
			if m != b {
				return false
			}
		} else {
			map1[a] = b
		}
		if m, ok := map2[b]; ok {
			if m != a {
				return false
			}
		} else {
			map2[b] = a
		}
	}
	return true
}
