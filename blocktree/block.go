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

// Package blocktree holds the WHERE-clause block tree the parser produces
// (spec §3): numbered blocks, their triple patterns and filters, parent
// links, join type and union-group tags, plus the pre-execution compaction
// pass of spec §4.7.
package blocktree

import "github.com/4store/qcore/rid"

// JoinType is a child block's join relationship to its parent.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinUnionMember
)

// Term is one slot of a triple pattern: either a bound constant RID, a
// variable name, or both empty meaning "unbound, name carried separately".
type Term struct {
	Const    rid.RID // rid.NULL if this slot is a variable
	IsConst  bool
	Variable string
}

func ConstTerm(r rid.RID) Term     { return Term{Const: r, IsConst: true} }
func VarTerm(name string) Term     { return Term{Variable: name} }

// Pattern is one quad pattern (g,s,p,o) within a block.
type Pattern struct {
	Graph, Subject, Predicate, Object Term
}

// Slots returns the pattern's four terms in (graph, subject, predicate,
// object) order, matching rid.Slot numbering.
func (p Pattern) Slots() [4]Term {
	return [4]Term{p.Graph, p.Subject, p.Predicate, p.Object}
}

// Filter is one FILTER expression attached to a block. The expression tree
// itself lives in the filter package; blocktree only needs an opaque handle
// plus the set of variables it references, for the compaction and
// constant-disjunct passes.
type Filter struct {
	Expr interface{} // *filter.Expr, kept opaque to avoid an import cycle
	Vars []string
}

// Block is one node of the block tree (spec §3).
type Block struct {
	ID         int
	Parent     int // -1 for the root
	Join       JoinType
	UnionGroup int // tag grouping sibling UNION blocks; 0 means "not a union member"

	Patterns []Pattern
	Filters  []Filter

	Children []int
}

// Tree is the full block tree rooted at block 0.
type Tree struct {
	Blocks []*Block
}

// NewTree creates a tree with a single root block (always INNER, parent -1,
// per spec §3).
func NewTree() *Tree {
	return &Tree{Blocks: []*Block{{ID: 0, Parent: -1, Join: JoinInner}}}
}

// AddChild appends a new block as a child of parent with the given join
// type, returning its id.
func (t *Tree) AddChild(parent int, join JoinType) int {
	id := len(t.Blocks)
	b := &Block{ID: id, Parent: parent, Join: join}
	t.Blocks = append(t.Blocks, b)
	t.Blocks[parent].Children = append(t.Blocks[parent].Children, id)
	return id
}

// Root returns block 0.
func (t *Tree) Root() *Block { return t.Blocks[0] }

// PreOrder returns block ids root-first, children in source order — the
// order blocks are executed in (spec §4.6).
func (t *Tree) PreOrder() []int {
	var out []int
	var walk func(id int)
	walk = func(id int) {
		out = append(out, id)
		for _, c := range t.Blocks[id].Children {
			walk(c)
		}
	}
	walk(0)
	return out
}

// PostOrder returns block ids deepest-first — the order blocks are joined
// to their parents in (spec §4.6).
func (t *Tree) PostOrder() []int {
	var out []int
	var walk func(id int)
	walk = func(id int) {
		for _, c := range t.Blocks[id].Children {
			walk(c)
		}
		out = append(out, id)
	}
	walk(0)
	return out
}

// UnionSiblings returns the ids of every block sharing b's union group
// (including b), or nil if b is not part of a union.
func (t *Tree) UnionSiblings(b *Block) []int {
	if b.UnionGroup == 0 {
		return nil
	}
	parent := t.Blocks[b.Parent]
	var out []int
	for _, c := range parent.Children {
		if t.Blocks[c].UnionGroup == b.UnionGroup {
			out = append(out, c)
		}
	}
	return out
}
