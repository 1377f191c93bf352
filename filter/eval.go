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

import (
	"regexp"

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/value"
)

// Row is the subset of one binding-table row a filter needs: resolved
// Values per referenced variable, plus enough context for BNODE()'s
// best-effort uniqueness synthesis (spec §9).
type Row struct {
	Vars     map[string]value.Value
	RowIndex int
	BlockID  int
}

// Eval evaluates e against row, never aborting the query: every failure
// mode collapses to an error Value, which EBV turns into "drop this row"
// rather than a fatal error (spec §4.6, §7).
func Eval(e *Expr, row Row) value.Value {
	if e == nil {
		return value.Err("nil expression")
	}
	switch e.Op {
	case OpVar:
		v, ok := row.Vars[e.Var]
		if !ok {
			return value.Unbound()
		}
		return v
	case OpConst:
		return e.Const
	case OpAnd:
		return evalAnd(e, row)
	case OpOr:
		return evalOr(e, row)
	case OpNot:
		return evalNot(e, row)
	case OpEq, OpNeq, OpLt, OpLe, OpGt, OpGe:
		return evalCompare(e, row)
	case OpPlus, OpMinus, OpMul, OpDiv:
		return evalArith(e, row)
	case OpBound:
		v := Eval(e.Args[0], row)
		return value.FromBool(!v.IsUnbound())
	case OpIsURI:
		v := Eval(e.Args[0], row)
		return value.FromBool(v.Kind == value.KindURI)
	case OpIsBlank:
		v := Eval(e.Args[0], row)
		return value.FromBool(v.Kind == value.KindBNode)
	case OpIsLiteral:
		v := Eval(e.Args[0], row)
		return value.FromBool(v.Kind == value.KindLiteral || v.Kind == value.KindString ||
			v.Kind == value.KindInteger || v.Kind == value.KindDecimal || v.Kind == value.KindFloat ||
			v.Kind == value.KindDouble || v.Kind == value.KindBoolean || v.Kind == value.KindDateTime)
	case OpLang:
		return evalLang(e, row)
	case OpDatatype:
		return evalDatatype(e, row)
	case OpStr:
		v := Eval(e.Args[0], row)
		return value.FromString(v.Lex)
	case OpRegex:
		return evalRegex(e, row)
	case OpBNode:
		return evalBNode(e, row)
	default:
		return value.Err("unknown expression operator")
	}
}

func evalAnd(e *Expr, row Row) value.Value {
	a := Eval(e.Args[0], row)
	ab, aok := a.EBV()
	if aok && !ab {
		return value.FromBool(false)
	}
	b := Eval(e.Args[1], row)
	bb, bok := b.EBV()
	if bok && !bb {
		return value.FromBool(false)
	}
	if aok && bok {
		return value.FromBool(ab && bb)
	}
	return value.Err("AND operand could not be coerced to a boolean")
}

func evalOr(e *Expr, row Row) value.Value {
	a := Eval(e.Args[0], row)
	ab, aok := a.EBV()
	if aok && ab {
		return value.FromBool(true)
	}
	b := Eval(e.Args[1], row)
	bb, bok := b.EBV()
	if bok && bb {
		return value.FromBool(true)
	}
	if aok && bok {
		return value.FromBool(ab || bb)
	}
	return value.Err("OR operand could not be coerced to a boolean")
}

func evalNot(e *Expr, row Row) value.Value {
	v := Eval(e.Args[0], row)
	b, ok := v.EBV()
	if !ok {
		return value.Err("NOT operand could not be coerced to a boolean")
	}
	return value.FromBool(!b)
}

func evalCompare(e *Expr, row Row) value.Value {
	a := Eval(e.Args[0], row)
	b := Eval(e.Args[1], row)
	if a.IsUnbound() || b.IsUnbound() {
		return value.Unbound()
	}
	if e.Op == OpEq || e.Op == OpNeq {
		eq, err := equalValues(a, b)
		if err != nil {
			return value.Err(err.Error())
		}
		if e.Op == OpNeq {
			eq = !eq
		}
		return value.FromBool(eq)
	}
	c, err := value.Compare(a, b)
	if err != nil {
		return value.Err(err.Error())
	}
	switch e.Op {
	case OpLt:
		return value.FromBool(c < 0)
	case OpLe:
		return value.FromBool(c <= 0)
	case OpGt:
		return value.FromBool(c > 0)
	case OpGe:
		return value.FromBool(c >= 0)
	}
	return value.Err("unreachable comparison operator")
}

func equalValues(a, b value.Value) (bool, error) {
	if a.Kind == value.KindURI || a.Kind == value.KindBNode || b.Kind == value.KindURI || b.Kind == value.KindBNode {
		if a.Kind != b.Kind {
			return false, nil
		}
		return a.RID == b.RID, nil
	}
	if (a.Kind == value.KindString || a.Kind == value.KindLiteral) && (b.Kind == value.KindString || b.Kind == value.KindLiteral) {
		return a.Lex == b.Lex, nil
	}
	c, err := value.Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

func evalArith(e *Expr, row Row) value.Value {
	a := Eval(e.Args[0], row)
	b := Eval(e.Args[1], row)
	if a.IsUnbound() || b.IsUnbound() {
		return value.Unbound()
	}
	pa, pb, err := value.Promote(a, b)
	if err != nil {
		return value.Err(err.Error())
	}
	switch pa.Kind {
	case value.KindInteger, value.KindBoolean:
		return intArith(e.Op, pa.Int, pb.Int)
	case value.KindDecimal:
		return decArith(e.Op, pa.Decimal, pb.Decimal)
	case value.KindFloat, value.KindDouble:
		return floatArith(e.Op, pa, pb)
	}
	return value.Err("unsupported arithmetic operand type")
}

func intArith(op Op, a, b int64) value.Value {
	switch op {
	case OpPlus:
		return value.FromInt(a + b)
	case OpMinus:
		return value.FromInt(a - b)
	case OpMul:
		return value.FromInt(a * b)
	case OpDiv:
		if b == 0 {
			return value.Err("division by zero")
		}
		return value.FromDecimal(mustDecimalDiv(value.NewDecimalFromInt64(a), value.NewDecimalFromInt64(b)))
	}
	return value.Err("unsupported integer operator")
}

func mustDecimalDiv(a, b value.Decimal) value.Decimal {
	r, err := a.Div(b)
	if err != nil {
		return value.Zero()
	}
	return r
}

func decArith(op Op, a, b value.Decimal) value.Value {
	var r value.Decimal
	var err error
	switch op {
	case OpPlus:
		r, err = a.Add(b)
	case OpMinus:
		r, err = a.Sub(b)
	case OpMul:
		r, err = a.Mul(b)
	case OpDiv:
		r, err = a.Div(b)
	}
	if err != nil {
		return value.Err(err.Error())
	}
	return value.FromDecimal(r)
}

func floatArith(op Op, a, b value.Value) value.Value {
	mk := value.FromFloat
	if a.Kind == value.KindDouble {
		mk = value.FromDouble
	}
	switch op {
	case OpPlus:
		return mk(a.Double + b.Double)
	case OpMinus:
		return mk(a.Double - b.Double)
	case OpMul:
		return mk(a.Double * b.Double)
	case OpDiv:
		if b.Double == 0 {
			return value.Err("division by zero")
		}
		return mk(a.Double / b.Double)
	}
	return value.Err("unsupported float operator")
}

// evalLang implements LANG(): the language tag of a language-tagged literal,
// or the empty string for any other literal (spec §4.6). The tag's lexical
// form must already sit in Value.Lang — resolving it from Attr is done by
// whoever builds the row's Values, upstream of the evaluator.
func evalLang(e *Expr, row Row) value.Value {
	v := Eval(e.Args[0], row)
	if v.Kind != value.KindLiteral && v.Kind != value.KindString {
		return value.Err("LANG() requires a literal operand")
	}
	return value.FromString(v.Lang)
}

func evalDatatype(e *Expr, row Row) value.Value {
	v := Eval(e.Args[0], row)
	if v.Kind != value.KindLiteral {
		return value.Err("DATATYPE() requires a literal operand")
	}
	return value.FromRID(v.Attr)
}

// evalBNode synthesises a "unique" bNode for BNODE(), XORing an optional
// label argument's hash with the row and block indices (spec §9). This is
// best-effort, not collision-free: two distinct queries, or two blocks of
// the same query sharing a (row, block) pair, can in principle collide.
func evalBNode(e *Expr, row Row) value.Value {
	var seed uint64
	if len(e.Args) > 0 {
		v := Eval(e.Args[0], row)
		for i := 0; i < len(v.Lex); i++ {
			seed = seed*31 + uint64(v.Lex[i])
		}
	}
	seed ^= uint64(row.RowIndex)*0x9e3779b97f4a7c15 ^ uint64(row.BlockID)*0xbf58476d1ce4e5b9
	return value.FromRID(rid.WithBNodeTag(seed))
}

func evalRegex(e *Expr, row Row) value.Value {
	s := Eval(e.Args[0], row)
	p := Eval(e.Args[1], row)
	if s.IsUnbound() || p.IsUnbound() {
		return value.Unbound()
	}
	re, err := regexp.Compile(p.Lex)
	if err != nil {
		return value.Err("REGEX() pattern failed to compile: " + err.Error())
	}
	return value.FromBool(re.MatchString(s.Lex))
}
