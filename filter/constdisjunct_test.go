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

func TestDetectDisjunctRecognisesURIChain(t *testing.T) {
	require := require.New(t)

	c1 := value.FromRID(rid.WithURITag(1))
	c2 := value.FromRID(rid.WithURITag(2))
	c3 := value.FromRID(rid.WithURITag(3))
	e := Bin(OpOr,
		Bin(OpOr, Bin(OpEq, Var("x"), Const(c1)), Bin(OpEq, Const(c2), Var("x"))),
		Bin(OpEq, Var("x"), Const(c3)),
	)

	d, ok := DetectDisjunct(e)
	require.True(ok)
	require.Equal("x", d.Var)
	require.Len(d.Consts, 3)
}

func TestDetectDisjunctDeclinesNumericConstants(t *testing.T) {
	require := require.New(t)

	e := Bin(OpOr,
		Bin(OpEq, Var("x"), Const(value.FromInt(1))),
		Bin(OpEq, Var("x"), Const(value.FromInt(2))),
	)
	_, ok := DetectDisjunct(e)
	require.False(ok, "numeric constants have multiple lexical forms; optimisation must decline")
}

func TestDetectDisjunctDeclinesMixedVariables(t *testing.T) {
	require := require.New(t)

	e := Bin(OpOr,
		Bin(OpEq, Var("x"), Const(value.FromRID(rid.WithURITag(1)))),
		Bin(OpEq, Var("y"), Const(value.FromRID(rid.WithURITag(2)))),
	)
	_, ok := DetectDisjunct(e)
	require.False(ok)
}

func TestDetectDisjunctDeclinesNonDisjunctShape(t *testing.T) {
	require := require.New(t)

	e := Bin(OpAnd,
		Bin(OpEq, Var("x"), Const(value.FromRID(rid.WithURITag(1)))),
		Bin(OpEq, Var("x"), Const(value.FromRID(rid.WithURITag(2)))),
	)
	_, ok := DetectDisjunct(e)
	require.False(ok)
}
