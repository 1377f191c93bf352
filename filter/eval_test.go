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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4store/qcore/rid"
	"github.com/4store/qcore/value"
)

func row(vars map[string]value.Value) Row {
	return Row{Vars: vars, RowIndex: 3, BlockID: 1}
}

func TestEvalComparisonAndBoolean(t *testing.T) {
	require := require.New(t)

	e := Bin(OpAnd,
		Bin(OpGt, Var("x"), Const(value.FromInt(1))),
		Bin(OpEq, Var("y"), Const(value.FromString("a"))),
	)
	r := row(map[string]value.Value{
		"x": value.FromInt(5),
		"y": value.FromString("a"),
	})
	v := Eval(e, r)
	require.Equal(value.KindBoolean, v.Kind)
	require.True(v.Bool())
}

func TestEvalUnboundPropagatesThroughComparison(t *testing.T) {
	require := require.New(t)

	e := Bin(OpEq, Var("x"), Const(value.FromInt(1)))
	v := Eval(e, row(map[string]value.Value{}))
	require.True(v.IsUnbound())
}

func TestEvalArithmeticPromotion(t *testing.T) {
	require := require.New(t)

	e := Bin(OpPlus, Var("x"), Var("y"))
	v := Eval(e, row(map[string]value.Value{
		"x": value.FromInt(2),
		"y": value.FromFloat(1.5),
	}))
	require.Equal(value.KindFloat, v.Kind)
	require.InDelta(3.5, v.Double, 1e-9)
}

func TestEvalDivisionByZeroIsErrorNotPanic(t *testing.T) {
	require := require.New(t)

	e := Bin(OpDiv, Var("x"), Const(value.FromInt(0)))
	v := Eval(e, row(map[string]value.Value{"x": value.FromInt(4)}))
	require.True(v.IsError())
	ok, known := v.EBV()
	require.False(ok)
	require.False(known)
}

func TestEvalLangReturnsTagOrEmpty(t *testing.T) {
	require := require.New(t)

	tagged := value.FromLiteral(rid.WithLiteralTag(1), "bonjour", rid.EmptyAttr, "fr", "")
	plain := value.FromLiteral(rid.WithLiteralTag(2), "hello", rid.EmptyAttr, "", "")

	require.Equal("fr", Eval(Un(OpLang, Var("x")), row(map[string]value.Value{"x": tagged})).Lex)
	require.Equal("", Eval(Un(OpLang, Var("x")), row(map[string]value.Value{"x": plain})).Lex)
}

func TestEvalBNodeIsDeterministicPerRow(t *testing.T) {
	require := require.New(t)

	e := Un(OpBNode, Const(value.FromString("label")))
	r1 := row(map[string]value.Value{})
	v1 := Eval(e, r1)
	v2 := Eval(e, r1)
	require.Equal(value.KindBNode, v1.Kind)
	require.Equal(v1.RID, v2.RID)

	r2 := Row{Vars: map[string]value.Value{}, RowIndex: 4, BlockID: 1}
	v3 := Eval(e, r2)
	require.NotEqual(v1.RID, v3.RID)
}

func TestEvalRegex(t *testing.T) {
	require := require.New(t)

	e := Bin(OpRegex, Var("s"), Const(value.FromString("^foo")))
	v := Eval(e, row(map[string]value.Value{"s": value.FromString("foobar")}))
	require.True(v.Bool())
}
