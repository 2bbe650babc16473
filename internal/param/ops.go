package param

import (
	"math"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
)

// Apply combines two values with a binary operator.
//
// Subtraction (-) and division (/) treat the operands as independent and
// return the widest bounds, except when both operands read the same
// parameter, which collapses to 0 and 1. The standard variants (-- and //)
// pair corresponding endpoints.
func Apply(op expr.TokenType, x, y Value) Value {
	if f, ok := firstFailure(x, y); ok {
		return f
	}

	switch op {
	case expr.TOKEN_PLUS:
		return Add(x, y)
	case expr.TOKEN_MINUS:
		return Sub(x, y)
	case expr.TOKEN_MINUSMINUS:
		return SubStandard(x, y)
	case expr.TOKEN_STAR:
		return Mul(x, y)
	case expr.TOKEN_SLASH:
		return Div(x, y)
	case expr.TOKEN_SLASHSLASH:
		return DivStandard(x, y)
	case expr.TOKEN_POW:
		return Pow(x, y)
	case expr.TOKEN_LT, expr.TOKEN_GT, expr.TOKEN_LE, expr.TOKEN_GE, expr.TOKEN_EQ, expr.TOKEN_NE:
		return Compare(op, x, y)
	case expr.TOKEN_AND, expr.TOKEN_AMP:
		return And(x, y)
	case expr.TOKEN_OR, expr.TOKEN_PIPE:
		return Or(x, y)
	default:
		return Fail(diag.KindSyntax, "unsupported operator %s", op)
	}
}

// operands checks that both values are intervals.
func operands(verb string, x, y Value) (Interval, Interval, *Failed) {
	a, ok1 := x.(Interval)
	b, ok2 := y.(Interval)
	if !ok1 || !ok2 {
		f := Fail(diag.KindParameter, "Cannot %s %s and %s.", verb, describe(x), describe(y))
		return a, b, &f
	}
	return a, b, nil
}

// sameDimension checks that a and b can be added, subtracted or compared.
func sameDimension(verb string, a, b Interval) *Failed {
	if a.Dim == b.Dim {
		return nil
	}
	f := Fail(diag.KindUnitEvaluation, "Cannot %s %s and %s.", verb, describe(a), describe(b))
	return &f
}

// Add sums two intervals of the same dimension.
func Add(x, y Value) Value {
	a, b, f := operands("add", x, y)
	if f != nil {
		return *f
	}
	if f := sameDimension("add", a, b); f != nil {
		return *f
	}
	return Interval{Min: a.Min + b.Min, Max: a.Max + b.Max, Dim: a.Dim}
}

// Sub is extreme subtraction: [a.min-b.max, a.max-b.min].
func Sub(x, y Value) Value {
	a, b, f := operands("subtract", x, y)
	if f != nil {
		return *f
	}
	if f := sameDimension("subtract", a, b); f != nil {
		return *f
	}
	if a.Ref != "" && a.Ref == b.Ref {
		return Point(0, a.Dim)
	}
	return Interval{Min: a.Min - b.Max, Max: a.Max - b.Min, Dim: a.Dim}
}

// SubStandard is standard subtraction, pairing corresponding endpoints.
func SubStandard(x, y Value) Value {
	a, b, f := operands("subtract", x, y)
	if f != nil {
		return *f
	}
	if f := sameDimension("subtract", a, b); f != nil {
		return *f
	}
	return Span(a.Min-b.Min, a.Max-b.Max, a.Dim)
}

// Mul multiplies two intervals, bounding the product by all four endpoint
// products.
func Mul(x, y Value) Value {
	a, b, f := operands("multiply", x, y)
	if f != nil {
		return *f
	}
	lo, hi := extremes(a.Min*b.Min, a.Min*b.Max, a.Max*b.Min, a.Max*b.Max)
	return Interval{Min: lo, Max: hi, Dim: a.Dim.Mul(b.Dim)}
}

// Div is extreme division. A divisor interval containing zero is an error.
func Div(x, y Value) Value {
	a, b, f := operands("divide", x, y)
	if f != nil {
		return *f
	}
	if a.Ref != "" && a.Ref == b.Ref {
		return Number(1)
	}
	if b.Min <= 0 && b.Max >= 0 {
		return Fail(diag.KindDivideByZero, "Division by zero.")
	}
	lo, hi := extremes(a.Min/b.Min, a.Min/b.Max, a.Max/b.Min, a.Max/b.Max)
	return Interval{Min: lo, Max: hi, Dim: a.Dim.Div(b.Dim)}
}

// DivStandard is standard division, pairing corresponding endpoints.
func DivStandard(x, y Value) Value {
	a, b, f := operands("divide", x, y)
	if f != nil {
		return *f
	}
	if b.Min == 0 || b.Max == 0 {
		return Fail(diag.KindDivideByZero, "Division by zero.")
	}
	return Span(a.Min/b.Min, a.Max/b.Max, a.Dim.Div(b.Dim))
}

// Pow raises x to y. A dimensioned base needs a point exponent; the
// exponent is always unitless.
func Pow(x, y Value) Value {
	a, b, f := operands("exponentiate", x, y)
	if f != nil {
		return *f
	}
	if !b.Dim.IsDimensionless() || (!b.IsPoint() && !a.Dim.IsDimensionless()) {
		return Fail(diag.KindUnitEvaluation, "Exponent must be a single unitless Parameter or number.")
	}

	if a.Min < 0 && (!b.IsPoint() || b.Min != math.Trunc(b.Min)) {
		return Fail(diag.KindParameter, "Cannot raise the negative base %s to the fractional power %s.", a, b)
	}

	if b.IsPoint() {
		p := b.Min
		lo, hi := extremes(math.Pow(a.Min, p), math.Pow(a.Max, p))
		// An even power of an interval straddling zero reaches zero.
		if a.Min < 0 && a.Max > 0 && p > 0 && math.Mod(p, 2) == 0 {
			lo = 0
		}
		return Interval{Min: lo, Max: hi, Dim: a.Dim.Pow(p)}
	}
	lo, hi := extremes(
		math.Pow(a.Min, b.Min), math.Pow(a.Min, b.Max),
		math.Pow(a.Max, b.Min), math.Pow(a.Max, b.Max),
	)
	return Interval{Min: lo, Max: hi}
}

// Neg negates an interval: [-max, -min].
func Neg(x Value) Value {
	switch v := x.(type) {
	case Failed:
		return v
	case Interval:
		return Interval{Min: -v.Max, Max: -v.Min, Dim: v.Dim}
	default:
		return Fail(diag.KindParameter, "Cannot negate %s.", describe(x))
	}
}

// Compare applies a relational operator. Intervals compare endpoint by
// endpoint and the relation must hold at both. Both sides must share a
// dimension; Eval lets a literal 0 take the other side's dimension.
func Compare(op expr.TokenType, x, y Value) Value {
	if f, ok := firstFailure(x, y); ok {
		return f
	}

	switch a := x.(type) {
	case Option:
		return compareDiscrete(op, a, y)
	case Bool:
		return compareDiscrete(op, a, y)
	}

	a, b, f := operands("compare", x, y)
	if f != nil {
		return *f
	}
	if a.Dim != b.Dim {
		return Fail(diag.KindUnitEvaluation, "Cannot compare %s to %s.", describe(a), describe(b))
	}

	var rel func(p, q float64) bool
	switch op {
	case expr.TOKEN_LT:
		rel = func(p, q float64) bool { return p < q }
	case expr.TOKEN_GT:
		rel = func(p, q float64) bool { return p > q }
	case expr.TOKEN_LE:
		rel = func(p, q float64) bool { return p <= q }
	case expr.TOKEN_GE:
		rel = func(p, q float64) bool { return p >= q }
	case expr.TOKEN_EQ:
		rel = func(p, q float64) bool { return p == q }
	case expr.TOKEN_NE:
		return Bool(a.Min != b.Min || a.Max != b.Max)
	default:
		return Fail(diag.KindSyntax, "unsupported comparison %s", op)
	}
	return Bool(rel(a.Min, b.Min) && rel(a.Max, b.Max))
}

func compareDiscrete(op expr.TokenType, x, y Value) Value {
	var same bool
	switch x.(type) {
	case Option:
		_, same = y.(Option)
	case Bool:
		_, same = y.(Bool)
	}
	if !same {
		return Fail(diag.KindParameter, "Cannot compare %s to %s.", describe(x), describe(y))
	}
	switch op {
	case expr.TOKEN_EQ:
		return Bool(x == y)
	case expr.TOKEN_NE:
		return Bool(x != y)
	default:
		return Fail(diag.KindParameter, "Only == and != apply to %s.", describe(x))
	}
}

// truth converts a logical operand. Unitless intervals are true when both
// endpoints are non-zero.
func truth(verb string, v Value) (all, some bool, f *Failed) {
	switch x := v.(type) {
	case Bool:
		return bool(x), bool(x), nil
	case Interval:
		if !x.Dim.IsDimensionless() {
			fail := Fail(diag.KindUnitEvaluation, "%s is only valid for unitless parameters with boolean values.", verb)
			return false, false, &fail
		}
		return x.Min != 0 && x.Max != 0, x.Min != 0 || x.Max != 0, nil
	default:
		fail := Fail(diag.KindParameter, "%s is not valid for %s.", verb, describe(v))
		return false, false, &fail
	}
}

// And is logical conjunction.
func And(x, y Value) Value {
	if f, ok := firstFailure(x, y); ok {
		return f
	}
	a, _, f := truth("&", x)
	if f != nil {
		return *f
	}
	b, _, f := truth("&", y)
	if f != nil {
		return *f
	}
	return Bool(a && b)
}

// Or is logical disjunction. Unitless intervals count when either endpoint
// is non-zero.
func Or(x, y Value) Value {
	if f, ok := firstFailure(x, y); ok {
		return f
	}
	_, a, f := truth("|", x)
	if f != nil {
		return *f
	}
	_, b, f := truth("|", y)
	if f != nil {
		return *f
	}
	return Bool(a || b)
}

// Not is logical negation.
func Not(x Value) Value {
	if f, ok := firstFailure(x); ok {
		return f
	}
	a, _, f := truth("not", x)
	if f != nil {
		return *f
	}
	return Bool(!a)
}

func extremes(vs ...float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// with returns v moved to [lo, hi], keeping its dimension.
func (v Interval) with(lo, hi float64) Interval {
	return Interval{Min: lo, Max: hi, Dim: v.Dim}
}
