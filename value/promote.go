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

package value

// rung orders the numeric promotion ladder integer -> decimal -> float ->
// double (spec §4.1). xsd:boolean participates as integer (0/1) only when
// the other operand is numeric.
func rung(k Kind) (int, bool) {
	switch k {
	case KindBoolean, KindInteger:
		return 0, true
	case KindDecimal:
		return 1, true
	case KindFloat:
		return 2, true
	case KindDouble:
		return 3, true
	default:
		return -1, false
	}
}

// isNumeric reports whether v participates in the numeric promotion ladder.
func isNumeric(v Value) bool {
	_, ok := rung(v.Kind)
	return ok
}

// Promote promotes a and b to their shared highest rung and returns the two
// promoted Values. Non-numeric operands yield a type error per spec §4.1.
func Promote(a, b Value) (Value, Value, error) {
	ra, oka := rung(a.Kind)
	rb, okb := rung(b.Kind)
	if !oka || !okb {
		return Value{}, Value{}, typeError(a, b)
	}
	target := ra
	if rb > target {
		target = rb
	}
	pa, err := promoteTo(a, target)
	if err != nil {
		return Value{}, Value{}, err
	}
	pb, err := promoteTo(b, target)
	if err != nil {
		return Value{}, Value{}, err
	}
	return pa, pb, nil
}

func typeError(a, b Value) error {
	return &TypeError{A: a.Kind, B: b.Kind}
}

// TypeError reports that a binary operator's operands could not be promoted
// to a common numeric rung.
type TypeError struct {
	A, B Kind
}

func (e *TypeError) Error() string {
	return "non-numeric operand in arithmetic/comparison expression"
}

func promoteTo(v Value, target int) (Value, error) {
	r, _ := rung(v.Kind)
	if r == target {
		return v, nil
	}
	switch target {
	case 1: // decimal
		switch v.Kind {
		case KindBoolean, KindInteger:
			return FromDecimal(NewDecimalFromInt64(v.Int)), nil
		}
	case 2: // float
		switch v.Kind {
		case KindBoolean, KindInteger:
			return FromFloat(float64(v.Int)), nil
		case KindDecimal:
			return FromFloat(v.Decimal.Float64()), nil
		}
	case 3: // double
		switch v.Kind {
		case KindBoolean, KindInteger:
			return FromDouble(float64(v.Int)), nil
		case KindDecimal:
			return FromDouble(v.Decimal.Float64()), nil
		case KindFloat:
			return FromDouble(v.Double), nil
		}
	}
	return Value{}, &TypeError{A: v.Kind}
}

// Compare performs SPARQL's value-typed numeric comparison after promotion,
// returning -1/0/1. Non-numeric inputs return an error so the caller can
// fall back to lexical comparison per spec §4.2's ORDER BY tie-break rule.
func Compare(a, b Value) (int, error) {
	if a.Kind == KindDateTime && b.Kind == KindDateTime {
		switch {
		case a.Time < b.Time:
			return -1, nil
		case a.Time > b.Time:
			return 1, nil
		default:
			return 0, nil
		}
	}
	pa, pb, err := Promote(a, b)
	if err != nil {
		return 0, err
	}
	switch pa.Kind {
	case KindBoolean, KindInteger:
		switch {
		case pa.Int < pb.Int:
			return -1, nil
		case pa.Int > pb.Int:
			return 1, nil
		default:
			return 0, nil
		}
	case KindDecimal:
		return pa.Decimal.Cmp(pb.Decimal), nil
	case KindFloat, KindDouble:
		switch {
		case pa.Double < pb.Double:
			return -1, nil
		case pa.Double > pb.Double:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, &TypeError{A: pa.Kind, B: pb.Kind}
}
