// Package param implements the runtime values of a model: dimensioned
// intervals, discrete options and booleans, the arithmetic that combines
// them, and the write-once Parameter that owns a value.
//
// Failures inside an expression are values too. An operator that cannot
// produce a result returns a Failed carrying the diagnostic, and every later
// operator forwards it unchanged so the error surfaces where the result is
// finally written.
package param

import (
	"fmt"
	"math"
	"strconv"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/pkg/units"
)

// Value is one of Interval, Option, Bool or Failed.
type Value interface {
	String() string
	value()
}

// Interval is a dimensioned quantity bounded by [Min, Max], in base units.
type Interval struct {
	Min, Max float64
	Dim      units.Dimension
	// Ref is the reference the value was read through, if it came straight
	// from a parameter. Two operands with the same Ref are the same quantity.
	Ref string
}

// Option is a discrete, string-valued choice.
type Option string

// Bool is the result of a comparison or logical operator.
type Bool bool

// Failed is a value whose computation failed.
type Failed struct {
	Err *diag.Error
}

func (Interval) value() {}
func (Option) value()   {}
func (Bool) value()     {}
func (Failed) value()   {}

// Point returns the degenerate interval [v, v].
func Point(v float64, dim units.Dimension) Interval {
	return Interval{Min: v, Max: v, Dim: dim}
}

// Span returns the interval spanning a and b in either order.
func Span(a, b float64, dim units.Dimension) Interval {
	if b < a {
		a, b = b, a
	}
	return Interval{Min: a, Max: b, Dim: dim}
}

// Number returns a dimensionless point.
func Number(v float64) Interval {
	return Point(v, units.Dimensionless)
}

// IsPoint reports whether the interval has no width.
func (v Interval) IsPoint() bool {
	return v.Min == v.Max
}

func (v Interval) String() string {
	s := formatFloat(v.Min, -1)
	if !v.IsPoint() {
		s += "|" + formatFloat(v.Max, -1)
	}
	if !v.Dim.IsDimensionless() {
		s += " " + units.Describe(v.Dim)
	}
	return s
}

func (v Option) String() string { return string(v) }

func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

func (v Failed) String() string { return "error: " + v.Err.Message }

// Fail builds a Failed value with a new diagnostic.
func Fail(kind diag.Kind, format string, args ...any) Failed {
	return Failed{Err: diag.Newf(kind, format, args...)}
}

// Trace returns a copy of f with note appended to its causal trail.
func (f Failed) Trace(note string) Failed {
	return Failed{Err: f.Err.Clone().WithNote(note)}
}

// firstFailure returns the first Failed among vs.
func firstFailure(vs ...Value) (Failed, bool) {
	for _, v := range vs {
		if f, ok := v.(Failed); ok {
			return f, true
		}
	}
	return Failed{}, false
}

// describe is the unit family of v as shown in messages.
func describe(v Value) string {
	switch x := v.(type) {
	case Interval:
		if x.Dim.IsDimensionless() {
			return "a unitless number"
		}
		return units.Describe(x.Dim)
	case Option:
		return fmt.Sprintf("option %q", string(x))
	case Bool:
		return "a boolean"
	default:
		return "an error"
	}
}

func formatFloat(v float64, sigfigs int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', sigfigs, 64)
}
