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

// Package value implements the tagged Value record used by the filter
// evaluator (spec §3, §4.1): a value carries any subset of RID, lexical
// string, double, decimal, int64 and datetime-as-epoch, selected by a
// bitmask, plus a type-error bit and a descending-sort-intent bit.
package value

import (
	"time"

	"github.com/4store/qcore/rid"
)

// Slot is a bitmask selecting which fields of a Value are populated.
type Slot uint16

const (
	HasRID Slot = 1 << iota
	HasAttr
	HasLex
	HasDouble
	HasDecimal
	HasInt
	HasTime
	IsError
	DescSort
)

// Kind classifies what a Value fundamentally "is" for promotion purposes.
type Kind int

const (
	KindUnbound Kind = iota
	KindURI
	KindBNode
	KindLiteral
	KindBoolean
	KindInteger
	KindDecimal
	KindFloat
	KindDouble
	KindDateTime
	KindString
	KindError
)

// Value is the tagged record that flows through the filter evaluator.
type Value struct {
	Slots   Slot
	RID     rid.RID
	Attr    rid.RID
	Lex     string
	Double  float64
	Decimal Decimal
	Int     int64
	Time    int64 // epoch nanoseconds
	Kind    Kind
	ErrMsg  string

	// Lang and DatatypeURI are populated only for resolved literal Values
	// that a filter's LANG()/DATATYPE() builtins need (spec SPEC_FULL §C.4);
	// they require the attr RID to have already been resolved to a lexical
	// form, which happens outside this package, at row-building time.
	Lang        string
	DatatypeURI string
}

func (s Slot) has(bit Slot) bool { return s&bit != 0 }

// Unbound returns the Value representing SPARQL's "unbound" — the evaluator
// propagates this through almost every operation (spec §4.1).
func Unbound() Value { return Value{Kind: KindUnbound} }

// Err returns a type-error Value carrying msg; type errors collapse EBV to
// false and filter-drop the row (spec §4.6, §7) without aborting the query.
func Err(msg string) Value {
	return Value{Slots: IsError, Kind: KindError, ErrMsg: msg}
}

// IsUnbound reports whether v represents SPARQL unbound.
func (v Value) IsUnbound() bool { return v.Kind == KindUnbound }

// IsError reports whether v is a type-error value.
func (v Value) IsError() bool { return v.Slots.has(IsError) }

// FromRID builds a Value directly from a resolved RID, classifying it by
// tag (spec §4.1).
func FromRID(r rid.RID) Value {
	switch {
	case r.IsNull():
		return Unbound()
	case r.IsURI():
		return Value{Slots: HasRID, RID: r, Kind: KindURI}
	case r.IsBNode():
		return Value{Slots: HasRID, RID: r, Kind: KindBNode}
	default:
		return Value{Slots: HasRID, RID: r, Kind: KindLiteral}
	}
}

// FromLiteral builds a fully-resolved literal Value: lex is the resolved
// lexical form, attr is the literal's datatype/language-tag RID (rid.EmptyAttr
// if untyped), and lang/datatypeURI are attr's own resolved lexical form when
// the caller has it (needed only by LANG()/DATATYPE(), spec SPEC_FULL §C.4).
func FromLiteral(r rid.RID, lex string, attr rid.RID, lang, datatypeURI string) Value {
	return Value{
		Slots:       HasRID | HasLex | HasAttr,
		RID:         r,
		Attr:        attr,
		Lex:         lex,
		Kind:        KindLiteral,
		Lang:        lang,
		DatatypeURI: datatypeURI,
	}
}

// FromString builds a plain-literal string Value.
func FromString(s string) Value {
	return Value{Slots: HasLex, Lex: s, Kind: KindString}
}

// FromBool builds a boolean-typed Value, represented as an integer 0/1 per
// the numeric promotion ladder (spec §4.1: "xsd:boolean participates as
// integer (0/1) only when the other operand is numeric").
func FromBool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Slots: HasInt, Int: i, Kind: KindBoolean}
}

// FromInt builds an xsd:integer Value.
func FromInt(i int64) Value {
	return Value{Slots: HasInt, Int: i, Kind: KindInteger}
}

// FromFloat builds an xsd:float Value (stored as double internally; the
// Kind distinguishes it for promotion purposes per the ladder).
func FromFloat(f float64) Value {
	return Value{Slots: HasDouble, Double: f, Kind: KindFloat}
}

// FromDouble builds an xsd:double Value.
func FromDouble(f float64) Value {
	return Value{Slots: HasDouble, Double: f, Kind: KindDouble}
}

// FromDecimal builds an xsd:decimal Value.
func FromDecimal(d Decimal) Value {
	return Value{Slots: HasDecimal, Decimal: d, Kind: KindDecimal}
}

// FromTime builds a datetime Value from an instant.
func FromTime(t time.Time) Value {
	return Value{Slots: HasTime, Time: t.UnixNano(), Kind: KindDateTime}
}

// Bool returns the Go bool this Value's integer slot carries; callers must
// have already established Kind == KindBoolean.
func (v Value) Bool() bool { return v.Int != 0 }

// EBV computes the Effective Boolean Value per spec §4.6:
//
//	booleans and integers as themselves; floats/decimals by |v| != 0;
//	strings by length > 0; URIs and bNodes -> error.
func (v Value) EBV() (bool, bool) {
	switch v.Kind {
	case KindBoolean, KindInteger:
		return v.Int != 0, true
	case KindFloat, KindDouble:
		return v.Double != 0, true
	case KindDecimal:
		return !v.Decimal.IsZero(), true
	case KindString, KindLiteral:
		return len(v.Lex) > 0, true
	case KindError:
		return false, false
	case KindURI, KindBNode:
		return false, false
	case KindUnbound:
		return false, false
	default:
		return false, false
	}
}
