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

package blocktree

// FirstAppearances computes, for every variable referenced anywhere in the
// tree, the id of the first block in pre-order whose patterns reference it —
// the "first-appearance block" of spec §3's invariant. Pre-order finishes an
// earlier sibling's whole subtree before a later sibling, so a variable used
// both deep under one sibling and directly in a later one resolves to the
// deeper block; this matches how the planner discovers variables while
// walking the tree top-down.
func (t *Tree) FirstAppearances() map[string]int {
	first := make(map[string]int)
	for _, id := range t.PreOrder() {
		b := t.Blocks[id]
		for _, p := range b.Patterns {
			for _, term := range p.Slots() {
				if term.IsConst || term.Variable == "" {
					continue
				}
				if _, seen := first[term.Variable]; !seen {
					first[term.Variable] = id
				}
			}
		}
	}
	return first
}

// Compact merges each block into its parent wherever (a) its join type is
// INNER and (b) at least one of parent/child carries no FILTER expressions
// (spec §4.7). This reduces join count without changing semantics: patterns
// and filters migrate onto the parent, and any grandchildren are reseated
// to point at the parent directly. Compact runs bottom-up so a chain of
// mergeable INNER blocks collapses in one pass.
func (t *Tree) Compact() {
	for _, id := range t.PostOrder() {
		if id == 0 {
			continue
		}
		b := t.Blocks[id]
		if b == nil || b.Join != JoinInner || b.UnionGroup != 0 {
			continue
		}
		parent := t.Blocks[b.Parent]
		if len(parent.Filters) > 0 && len(b.Filters) > 0 {
			continue
		}
		t.mergeIntoParent(b, parent)
	}
}

func (t *Tree) mergeIntoParent(b, parent *Block) {
	parent.Patterns = append(parent.Patterns, b.Patterns...)
	parent.Filters = append(parent.Filters, b.Filters...)

	// Reseat b's children to the parent, preserving their own join type.
	for _, gc := range b.Children {
		t.Blocks[gc].Parent = parent.ID
		parent.Children = append(parent.Children, gc)
	}

	// Remove b from parent's child list and mark it dead.
	filtered := parent.Children[:0]
	for _, c := range parent.Children {
		if c != b.ID {
			filtered = append(filtered, c)
		}
	}
	parent.Children = filtered
	t.Blocks[b.ID] = nil
}

// Live returns the ids of blocks not removed by Compact.
func (t *Tree) Live() []int {
	var out []int
	for id, b := range t.Blocks {
		if b != nil {
			out = append(out, id)
		}
	}
	return out
}
