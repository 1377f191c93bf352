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

// Package plan implements the per-block pattern planner (spec §4.3): a
// heuristic, local reorder of a block's triple patterns by estimated
// selectivity. This is not a cost-based global plan search (explicitly a
// Non-goal of spec §1) — each block is reordered independently using
// cheap local signals.
package plan

import (
	"sort"

	"github.com/4store/qcore/blocktree"
)

// FreqTables is the optional quad-frequency capability of spec §6: (s,p)
// and (o,p) pair counts used to recognise highly selective patterns. A nil
// FreqTables means the planner falls back to cruder structural rules.
type FreqTables interface {
	SPFreq(subjectConst, predicateConst bool, s, p uint64) (count int64, known bool)
	OPFreq(objectConst, predicateConst bool, o, p uint64) (count int64, known bool)
}

// category is the selectivity bucket a pattern falls into; lower sorts
// first (spec §4.3 categories 1-8).
type category int

const (
	catUniqueFreq category = iota
	catConstSPBoundO
	catBoundSConstPConstO
	catConstSBoundO
	catConstOBoundS
	catConstPOneBound
	catConstGraph
	catRemainder
)

// BoundVars reports, for a given pattern slot, whether a variable term is
// already bound by an ancestor block's binding snapshot.
type BoundVars map[string]bool

func classify(p blocktree.Pattern, bound BoundVars, freq FreqTables) category {
	s, pr, o, g := p.Subject, p.Predicate, p.Object, p.Graph

	sBound := s.IsConst || (s.Variable != "" && bound[s.Variable])
	pBound := pr.IsConst || (pr.Variable != "" && bound[pr.Variable])
	oBound := o.IsConst || (o.Variable != "" && bound[o.Variable])

	if freq != nil {
		if s.IsConst && pr.IsConst {
			if c, ok := freq.SPFreq(true, true, uint64(s.Const), uint64(pr.Const)); ok && c == 1 {
				return catUniqueFreq
			}
		}
		if o.IsConst && pr.IsConst {
			if c, ok := freq.OPFreq(true, true, uint64(o.Const), uint64(pr.Const)); ok && c == 1 {
				return catUniqueFreq
			}
		}
	}
	switch {
	case s.IsConst && pr.IsConst && oBound:
		return catConstSPBoundO
	case sBound && pr.IsConst && o.IsConst:
		return catBoundSConstPConstO
	case s.IsConst && oBound:
		return catConstSBoundO
	case o.IsConst && sBound:
		return catConstOBoundS
	case pr.IsConst && (sBound || oBound):
		return catConstPOneBound
	case g.IsConst:
		return catConstGraph
	default:
		return catRemainder
	}
}

// fanoutEstimate gives a rough relative fan-out score: more unbound slots
// means a larger estimated result, used only to break ties between
// adjacent same-category patterns (spec §4.3's local swap rule).
func fanoutEstimate(p blocktree.Pattern, bound BoundVars) int {
	score := 0
	for _, t := range p.Slots() {
		if t.IsConst {
			continue
		}
		if t.Variable != "" && bound[t.Variable] {
			continue
		}
		score++
	}
	return score
}

// Reorder returns patterns re-sequenced by the categorical order of spec
// §4.3, with an adjacent local swap pass afterward preferring the
// smaller-fanout pattern to run first. bound should reflect variables
// already bound by an ancestor block; freq may be nil.
func Reorder(patterns []blocktree.Pattern, bound BoundVars, freq FreqTables) []blocktree.Pattern {
	out := make([]blocktree.Pattern, len(patterns))
	copy(out, patterns)

	cats := make([]category, len(out))
	for i, p := range out {
		cats[i] = classify(p, bound, freq)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return cats[idx[i]] < cats[idx[j]] })

	reordered := make([]blocktree.Pattern, len(out))
	reorderedCats := make([]category, len(out))
	for i, j := range idx {
		reordered[i] = out[j]
		reorderedCats[i] = cats[j]
	}

	// Local swap pass: adjacent patterns in the same category swap if the
	// later one has a smaller estimated fan-out (spec §4.3).
	for i := 0; i+1 < len(reordered); i++ {
		if reorderedCats[i] != reorderedCats[i+1] {
			continue
		}
		if fanoutEstimate(reordered[i+1], bound) < fanoutEstimate(reordered[i], bound) {
			reordered[i], reordered[i+1] = reordered[i+1], reordered[i]
		}
	}

	return reordered
}

// ReverseBindGroup is a run of adjacent patterns recognised as a multi-
// pattern reverse bind: they share an unbound subject variable and every
// other slot is constant (spec §4.3, §4.4).
type ReverseBindGroup struct {
	SubjectVar string
	Patterns   []blocktree.Pattern
	StartIndex int
}

// FindReverseBindGroups scans ordered patterns for adjacent runs eligible
// for a single multi-pattern reverse bind call.
func FindReverseBindGroups(ordered []blocktree.Pattern) []ReverseBindGroup {
	var groups []ReverseBindGroup
	i := 0
	for i < len(ordered) {
		p := ordered[i]
		if p.Subject.IsConst || p.Subject.Variable == "" || !p.Predicate.IsConst || !p.Object.IsConst {
			i++
			continue
		}
		j := i + 1
		run := []blocktree.Pattern{p}
		for j < len(ordered) {
			q := ordered[j]
			if q.Subject.Variable == p.Subject.Variable && q.Predicate.IsConst && q.Object.IsConst {
				run = append(run, q)
				j++
				continue
			}
			break
		}
		if len(run) > 1 {
			groups = append(groups, ReverseBindGroup{SubjectVar: p.Subject.Variable, Patterns: run, StartIndex: i})
		}
		i = j
		if len(run) == 1 {
			i = j // j already advanced past non-matching; ensure progress
		}
	}
	return groups
}
