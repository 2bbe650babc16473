// Package units implements the dimensional-analysis type system used by model
// parameters: dimension vectors over a fixed basis, a registry of derived,
// legacy and prefixed unit spellings, and conversion between display units and
// base-unit magnitudes.
package units

import (
	"strconv"
	"strings"
)

// Base dimensions. The order is also the display order of compound strings.
const (
	Mass = iota
	Length
	Time
	Temperature
	Current
	Information
	Currency
	Capacity
	LuminousIntensity
	SolidAngle
	Substance

	numBase
)

// baseSymbols holds the base-unit symbol of each dimension.
var baseSymbols = [numBase]string{"kg", "m", "s", "K", "A", "b", "$", "cap", "cd", "sr", "mol"}

// BaseSymbols returns the base-unit symbols in dimension order.
func BaseSymbols() []string {
	out := make([]string, numBase)
	copy(out, baseSymbols[:])
	return out
}

// baseIndex returns the dimension index of a base-unit symbol.
func baseIndex(symbol string) (int, bool) {
	for i, s := range baseSymbols {
		if s == symbol {
			return i, true
		}
	}
	return 0, false
}

// Dimension is an exponent vector over the base dimensions. Exponents are
// rational in practice (sqrt halves them) and stored as float64, which keeps
// halves and integer multiples exact. Dimension values are comparable with ==.
type Dimension [numBase]float64

// Dimensionless is the all-zero vector.
var Dimensionless Dimension

// NewDimension builds a vector from base symbol exponents. Unknown symbols
// are reported as an error.
func NewDimension(exps map[string]float64) (Dimension, error) {
	var d Dimension
	for sym, e := range exps {
		i, ok := baseIndex(sym)
		if !ok {
			return Dimension{}, &Error{Spelling: sym, Reason: "not a base unit"}
		}
		d[i] += e
	}
	return d, nil
}

// mustDimension is NewDimension for the static unit tables.
func mustDimension(exps map[string]float64) Dimension {
	d, err := NewDimension(exps)
	if err != nil {
		panic(err)
	}
	return d
}

// IsDimensionless reports whether every exponent is zero.
func (d Dimension) IsDimensionless() bool {
	return d == Dimensionless
}

// Mul combines the exponents of a product.
func (d Dimension) Mul(o Dimension) Dimension {
	for i := range d {
		d[i] += o[i]
	}
	return d
}

// Div combines the exponents of a quotient.
func (d Dimension) Div(o Dimension) Dimension {
	for i := range d {
		d[i] -= o[i]
	}
	return d
}

// Pow scales every exponent by p.
func (d Dimension) Pow(p float64) Dimension {
	for i := range d {
		d[i] *= p
	}
	return d
}

// Exponents returns the non-zero exponents keyed by base symbol.
func (d Dimension) Exponents() map[string]float64 {
	out := make(map[string]float64)
	for i, e := range d {
		if e != 0 {
			out[baseSymbols[i]] = e
		}
	}
	return out
}

// String renders the raw compound spelling, e.g. "kg^1 m^1 s^-2". The
// dimensionless vector renders as "".
func (d Dimension) String() string {
	var parts []string
	for i, e := range d {
		if e == 0 {
			continue
		}
		parts = append(parts, baseSymbols[i]+"^"+strconv.FormatFloat(e, 'g', -1, 64))
	}
	return strings.Join(parts, " ")
}
