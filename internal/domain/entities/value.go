package entities

import (
	"fmt"
	"math"
	"strconv"
)

// notApplicableIndicator is the JSON representation of a figure that could
// not be determined. It is a value in its own right, not a stand-in for zero.
const notApplicableIndicator = "N/A"

// relativeDecimalPlaces is the precision of relative (percentage) figures.
const relativeDecimalPlaces = 2

// Value is an integer figure (bytes, warning count) that may be unavailable.
// The zero Value is NotApplicable. Arithmetic on a NotApplicable operand
// yields NotApplicable.
type Value struct {
	known bool
	n     int
}

// ValueOf returns a known Value holding n.
func ValueOf(n int) Value {
	return Value{known: true, n: n}
}

// NotApplicable returns the unavailable Value.
func NotApplicable() Value {
	return Value{}
}

// Known reports whether the figure was determined.
func (v Value) Known() bool {
	return v.known
}

// Int returns the figure, or 0 when the Value is NotApplicable. Callers must
// check Known first when the distinction matters.
func (v Value) Int() int {
	return v.n
}

// Sub returns v - o, or NotApplicable when either operand is NotApplicable.
func (v Value) Sub(o Value) Value {
	if !v.known || !o.known {
		return NotApplicable()
	}
	return ValueOf(v.n - o.n)
}

// Less reports whether v is a known figure strictly smaller than o.
// It is false whenever either operand is NotApplicable.
func (v Value) Less(o Value) bool {
	return v.known && o.known && v.n < o.n
}

// Greater reports whether v is a known figure strictly larger than o.
func (v Value) Greater(o Value) bool {
	return v.known && o.known && v.n > o.n
}

func (v Value) String() string {
	if !v.known {
		return notApplicableIndicator
	}
	return strconv.Itoa(v.n)
}

// MarshalJSON encodes a known Value as a JSON number and a NotApplicable one
// as the "N/A" string, matching the persisted report format.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.known {
		return []byte(strconv.Quote(notApplicableIndicator)), nil
	}
	return []byte(strconv.Itoa(v.n)), nil
}

// UnmarshalJSON accepts either a JSON number or the "N/A" string.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == strconv.Quote(notApplicableIndicator) {
		*v = NotApplicable()
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid figure %s: %w", data, err)
	}
	*v = ValueOf(n)
	return nil
}

// Percent is a percentage figure rounded to two decimal places, which may be
// unavailable. The zero Percent is NotApplicable.
type Percent struct {
	known bool
	f     float64
}

// PercentOf returns a known Percent, rounded to two decimal places.
func PercentOf(f float64) Percent {
	shift := math.Pow(10, relativeDecimalPlaces)
	return Percent{known: true, f: math.Round(f*shift) / shift}
}

// NotApplicablePercent returns the unavailable Percent.
func NotApplicablePercent() Percent {
	return Percent{}
}

// Known reports whether the percentage was determined.
func (p Percent) Known() bool {
	return p.known
}

// Float returns the percentage, or 0 when NotApplicable.
func (p Percent) Float() float64 {
	return p.f
}

func (p Percent) String() string {
	if !p.known {
		return notApplicableIndicator
	}
	return strconv.FormatFloat(p.f, 'f', -1, 64)
}

// MarshalJSON encodes a known Percent as a JSON number and a NotApplicable
// one as the "N/A" string.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.known {
		return []byte(strconv.Quote(notApplicableIndicator)), nil
	}
	return []byte(strconv.FormatFloat(p.f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts either a JSON number or the "N/A" string.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == strconv.Quote(notApplicableIndicator) {
		*p = NotApplicablePercent()
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %s: %w", data, err)
	}
	*p = Percent{known: true, f: f}
	return nil
}

// RelativeValue computes 100*absolute/maximum rounded to two decimal places.
// The result is NotApplicable when either operand is NotApplicable or the
// maximum is zero.
func RelativeValue(absolute, maximum Value) Percent {
	if !absolute.known || !maximum.known || maximum.n == 0 {
		return NotApplicablePercent()
	}
	return PercentOf(100 * float64(absolute.n) / float64(maximum.n))
}
