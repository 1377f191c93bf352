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

package filter

import "github.com/4store/qcore/value"

// Disjunct is a recognised `?x = C1 OR ?x = C2 OR ...` filter: Var's binding
// can be pre-constrained to Consts and the filter itself dropped.
type Disjunct struct {
	Var    string
	Consts []value.Value
}

// safeDisjunctKind reports whether a constant's Kind has one canonical
// lexical form, so RID equality alone decides membership. Numeric, decimal,
// string and datetime kinds are excluded deliberately (spec §9: "the
// source's filter-constant-disjunct optimiser excludes types whose lexical
// form is multi-valued... the intent appears to be correctness under
// lexical canonicalisation differences, but it is not documented; preserve
// the behaviour literally").
func safeDisjunctKind(k value.Kind) bool {
	switch k {
	case value.KindURI, value.KindBNode, value.KindLiteral:
		return true
	default:
		return false
	}
}

// DetectDisjunct recognises e as a constant disjunct over a single variable
// (spec §4.6). It returns ok == false for anything else, including a
// disjunct that mixes in an unsafe-kind constant — the whole optimisation is
// declined rather than partially applied.
func DetectDisjunct(e *Expr) (Disjunct, bool) {
	var name string
	var consts []value.Value
	var walk func(n *Expr) bool
	walk = func(n *Expr) bool {
		if n == nil {
			return false
		}
		if n.Op == OpOr {
			return walk(n.Args[0]) && walk(n.Args[1])
		}
		if n.Op != OpEq {
			return false
		}
		a, b := n.Args[0], n.Args[1]
		var varNode, constNode *Expr
		switch {
		case a.Op == OpVar && b.Op == OpConst:
			varNode, constNode = a, b
		case b.Op == OpVar && a.Op == OpConst:
			varNode, constNode = b, a
		default:
			return false
		}
		if !safeDisjunctKind(constNode.Const.Kind) {
			return false
		}
		if name == "" {
			name = varNode.Var
		} else if name != varNode.Var {
			return false
		}
		consts = append(consts, constNode.Const)
		return true
	}
	if !walk(e) || name == "" || len(consts) == 0 {
		return Disjunct{}, false
	}
	return Disjunct{Var: name, Consts: consts}, true
}
