package session

import (
	"strconv"

	"codeberg.org/mutker/obdctl/internal/errors"
)

// Kind identifies the shape of a sampled value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumeric
	KindBoolean
)

// Value is the closed variant for a single parameter reading: numeric,
// boolean, or null. Null is the zero value and marks a failed or empty read.
type Value struct {
	kind Kind
	num  float64
	flag bool
}

func Null() Value {
	return Value{}
}

func Numeric(v float64) Value {
	return Value{kind: KindNumeric, num: v}
}

func Bool(v bool) Value {
	return Value{kind: KindBoolean, flag: v}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric value and whether the value is numeric.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumeric
}

// Boolean returns the boolean value and whether the value is boolean.
func (v Value) Boolean() (bool, bool) {
	return v.flag, v.kind == KindBoolean
}

// Literal renders the value as a CSV cell. The empty string is the null marker.
func (v Value) Literal() string {
	switch v.kind {
	case KindNumeric:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "null"
	}

	return v.Literal()
}

// ParseLiteral is the inverse of Literal.
func ParseLiteral(s string) (Value, error) {
	if s == "" {
		return Null(), nil
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return Bool(b), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Numeric(f), nil
	}

	return Null(), errors.WithData(ErrParseFailed, s)
}

// MarshalJSON renders null, a number, or a bool, so the null marker
// survives the JSON round trip.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumeric:
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	case KindBoolean:
		return []byte(strconv.FormatBool(v.flag)), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	s := string(data)
	switch s {
	case "null":
		*v = Null()
		return nil
	case "true":
		*v = Bool(true)
		return nil
	case "false":
		*v = Bool(false)
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.WithData(ErrParseFailed, s)
	}
	*v = Numeric(f)

	return nil
}
