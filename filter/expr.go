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

// Package filter implements the FILTER expression evaluator (spec §4.6):
// expression tree to value.Value, EBV coercion, and the constant-disjunct
// optimisation.
package filter

import "github.com/4store/qcore/value"

// Op identifies an expression node. Expr is a closed sum type (no function
// values) so it stays hashable via hashstructure for the plan cache (spec
// SPEC_FULL §C.1) and easy to print for `explain`.
type Op int

const (
	OpVar Op = iota
	OpConst
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpPlus
	OpMinus
	OpMul
	OpDiv
	OpBound
	OpIsURI
	OpIsBlank
	OpIsLiteral
	OpLang
	OpDatatype
	OpStr
	OpRegex
	OpBNode
)

// Expr is one node of a FILTER expression tree.
type Expr struct {
	Op    Op
	Var   string
	Const value.Value
	Args  []*Expr
}

// Var builds a variable reference.
func Var(name string) *Expr { return &Expr{Op: OpVar, Var: name} }

// Const builds a literal constant.
func Const(v value.Value) *Expr { return &Expr{Op: OpConst, Const: v} }

// Bin builds a binary node.
func Bin(op Op, a, b *Expr) *Expr { return &Expr{Op: op, Args: []*Expr{a, b}} }

// Un builds a unary node.
func Un(op Op, a *Expr) *Expr { return &Expr{Op: op, Args: []*Expr{a}} }

// Vars collects every distinct variable name referenced anywhere in e.
func (e *Expr) Vars() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(n *Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		if n.Op == OpVar && !seen[n.Var] {
			seen[n.Var] = true
			out = append(out, n.Var)
		}
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(e)
	return out
}
