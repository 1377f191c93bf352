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

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimal is a fixed-point xsd:decimal: 2 overflow digits, 20 integer
// digits, 20 fractional digits (spec §4.1). Internally this is a big.Int
// holding the value scaled by 10^fracDigits; Add/Sub emulate the spec's
// radix-complement-on-a-42-digit-buffer behaviour by checking the result
// against the 22-integer-digit bound (20 + 2 overflow) after every
// operation, Divide by Newton-Raphson reciprocal iteration rather than
// big.Int's exact rational division, matching the source's iterative
// hardware-friendly approach (spec §4.1, §9 — no off-the-shelf arbitrary
// precision library models this exact fixed-width behaviour, hence a
// hand-rolled type; see DESIGN.md).
type Decimal struct {
	unscaled *big.Int
}

const (
	fracDigits   = 20
	intDigits    = 20
	overflowDigs = 2
	maxIters     = 30
)

var (
	fracScale  = pow10(fracDigits)
	maxMagnitude = func() *big.Int {
		m := pow10(intDigits + fracDigits + overflowDigs)
		return m
	}()
)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Zero is the additive identity.
func Zero() Decimal { return Decimal{unscaled: big.NewInt(0)} }

// NewDecimalFromInt64 builds a Decimal from an integer.
func NewDecimalFromInt64(i int64) Decimal {
	return Decimal{unscaled: new(big.Int).Mul(big.NewInt(i), fracScale)}
}

// ParseDecimal parses a canonical or non-canonical xsd:decimal lexical form
// ("-12.340", "3", ".5") into a Decimal, returning an error Value-friendly
// message on malformed input.
func ParseDecimal(lex string) (Decimal, error) {
	s := strings.TrimSpace(lex)
	if s == "" {
		return Decimal{}, fmt.Errorf("empty decimal literal")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > fracDigits {
		fracPart = fracPart[:fracDigits] // truncate beyond representable precision
	}
	for len(fracPart) < fracDigits {
		fracPart += "0"
	}
	digits := intPart + fracPart
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("malformed decimal literal %q", lex)
	}
	if neg {
		n.Neg(n)
	}
	d := Decimal{unscaled: n}
	if d.overflowed() {
		return Decimal{}, fmt.Errorf("decimal literal %q overflows 22 integer digits", lex)
	}
	return d, nil
}

func (d Decimal) overflowed() bool {
	abs := new(big.Int).Abs(d.unscaled)
	return abs.Cmp(maxMagnitude) >= 0
}

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool { return d.unscaled == nil || d.unscaled.Sign() == 0 }

// Add returns d+o on the 42-digit buffer: overflow beyond the 2 extra
// digits returns an error rather than wrapping, since a SPARQL decimal
// computation overflowing is a type error, not a silently-wrapped value.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	r := Decimal{unscaled: new(big.Int).Add(d.unscaled, o.unscaled)}
	if r.overflowed() {
		return Decimal{}, fmt.Errorf("decimal addition overflowed")
	}
	return r, nil
}

// Sub returns d-o, see Add for overflow behaviour.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	r := Decimal{unscaled: new(big.Int).Sub(d.unscaled, o.unscaled)}
	if r.overflowed() {
		return Decimal{}, fmt.Errorf("decimal subtraction overflowed")
	}
	return r, nil
}

// Mul performs long multiplication with overflow detection (spec §4.1).
func (d Decimal) Mul(o Decimal) (Decimal, error) {
	full := new(big.Int).Mul(d.unscaled, o.unscaled)
	full.Quo(full, fracScale)
	r := Decimal{unscaled: full}
	if r.overflowed() {
		return Decimal{}, fmt.Errorf("decimal multiplication overflowed")
	}
	return r, nil
}

// Div performs division via Newton-Raphson reciprocal iteration, converging
// or stopping after 30 iterations (spec §4.1), rather than big.Int's exact
// rational quotient, to mirror the source's fixed-point hardware algorithm.
func (d Decimal) Div(o Decimal) (Decimal, error) {
	if o.IsZero() {
		return Decimal{}, fmt.Errorf("decimal division by zero")
	}
	oF := new(big.Float).SetInt(o.unscaled)
	oF.Quo(oF, big.NewFloat(1))
	// initial guess: 1/o via float64 reciprocal, refined by Newton-Raphson:
	// x_{n+1} = x_n * (2 - o*x_n)
	two := big.NewFloat(2)
	oFloat64, _ := oF.Float64()
	if oFloat64 == 0 {
		return Decimal{}, fmt.Errorf("decimal division by zero")
	}
	x := big.NewFloat(1 / oFloat64)
	prec := uint(200)
	x.SetPrec(prec)
	oFh := new(big.Float).SetPrec(prec).Copy(oF)
	for i := 0; i < maxIters; i++ {
		t := new(big.Float).SetPrec(prec).Mul(oFh, x)
		t.Sub(two, t)
		next := new(big.Float).SetPrec(prec).Mul(x, t)
		diff := new(big.Float).Sub(next, x)
		x = next
		if diff.Abs(diff).Cmp(big.NewFloat(1e-30)) < 0 {
			break
		}
	}
	dF := new(big.Float).SetPrec(prec).SetInt(d.unscaled)
	res := new(big.Float).SetPrec(prec).Mul(dF, x)
	resInt, _ := res.Int(nil)
	r := Decimal{unscaled: resInt}
	if r.overflowed() {
		return Decimal{}, fmt.Errorf("decimal division overflowed")
	}
	return r, nil
}

// Cmp returns -1, 0, 1 comparing d to o.
func (d Decimal) Cmp(o Decimal) int { return d.unscaled.Cmp(o.unscaled) }

// Float64 converts d to an IEEE double for promotion to the float/double
// rungs of the ladder.
func (d Decimal) Float64() float64 {
	f := new(big.Float).SetInt(d.unscaled)
	f.Quo(f, new(big.Float).SetInt(fracScale))
	v, _ := f.Float64()
	return v
}

// String renders the canonical lexical form.
func (d Decimal) String() string {
	neg := d.unscaled.Sign() < 0
	abs := new(big.Int).Abs(d.unscaled)
	s := abs.String()
	for len(s) <= fracDigits {
		s = "0" + s
	}
	intPart := s[:len(s)-fracDigits]
	fracPart := strings.TrimRight(s[len(s)-fracDigits:], "0")
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && abs.Sign() != 0 {
		out = "-" + out
	}
	return out
}
