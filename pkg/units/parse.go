package units

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Error reports a unit spelling that could not be parsed or displayed.
type Error struct {
	Spelling string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("unit %q: %s", e.Spelling, e.Reason)
}

// Parse is Default.Parse.
func Parse(spelling string) (Unit, error) {
	return Default.Parse(spelling)
}

// Parse converts a unit spelling to its dimension and conversion. It accepts
// a base unit, any registered spelling, a "dB" wrapper over a linear unit, or
// a compound expression of units joined by "*", "/" and "^" (whitespace
// between units multiplies). Compound expressions are scanned left to right;
// each unit's sign comes from the operator immediately before it.
func (r *Registry) Parse(spelling string) (Unit, error) {
	s := strings.TrimSpace(spelling)
	if u, ok := r.Lookup(s); ok {
		u.Symbol = s
		return u, nil
	}
	if rest, ok := strings.CutPrefix(s, "dB"); ok {
		if u, ok := r.Lookup(rest); ok {
			u.Symbol = s
			u.Decibel = true
			return u, nil
		}
	}
	return r.parseCompound(s)
}

const unitOperators = "*/^"

func isUnitOperator(r rune) bool {
	return strings.ContainsRune(unitOperators, r)
}

// checkOperators rejects leading, trailing and doubled operators.
func checkOperators(s string) error {
	compact := strings.Join(strings.Fields(s), "")
	if compact == "" {
		return nil
	}
	runes := []rune(compact)
	if isUnitOperator(runes[0]) {
		return &Error{Spelling: s, Reason: "leading operator"}
	}
	if isUnitOperator(runes[len(runes)-1]) {
		return &Error{Spelling: s, Reason: "trailing operator"}
	}
	for i := 1; i < len(runes); i++ {
		if isUnitOperator(runes[i]) && isUnitOperator(runes[i-1]) {
			return &Error{Spelling: s, Reason: "doubled operator"}
		}
	}
	return nil
}

func (r *Registry) parseCompound(s string) (Unit, error) {
	if err := checkOperators(s); err != nil {
		return Unit{}, err
	}

	out := Unit{Symbol: s, Multiplier: 1}
	runes := []rune(s)
	sign := 1.0
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
			continue
		case c == '*':
			sign = 1
			i++
			continue
		case c == '/':
			sign = -1
			i++
			continue
		case c == '^':
			return Unit{}, &Error{Spelling: s, Reason: "exponent without a unit"}
		}

		start := i
		for i < len(runes) && !unicode.IsSpace(runes[i]) && !isUnitOperator(runes[i]) {
			i++
		}
		word := string(runes[start:i])
		u, ok := r.Lookup(word)
		if !ok {
			return Unit{}, &Error{Spelling: s, Reason: fmt.Sprintf("unknown unit %q", word)}
		}

		exp := 1.0
		if i < len(runes) && runes[i] == '^' {
			i++
			estart := i
			if i < len(runes) && (runes[i] == '-' || runes[i] == '+') {
				i++
			}
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			e, err := strconv.ParseFloat(string(runes[estart:i]), 64)
			if err != nil {
				return Unit{}, &Error{Spelling: s, Reason: fmt.Sprintf("invalid exponent after %q", word)}
			}
			exp = e
		}

		out.Dimension = out.Dimension.Mul(u.Dimension.Pow(sign * exp))
		out.Multiplier *= pow(u.Multiplier, sign*exp)
		sign = 1
	}
	return out, nil
}
