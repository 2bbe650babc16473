package param

import (
	"math"
	"sort"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/pkg/units"
)

type builtin struct {
	minArgs, maxArgs int
	fn               func(args []Interval) Value
}

var builtins = map[string]builtin{
	"sin":  unitless("sine", math.Sin),
	"cos":  unitless("cosine", math.Cos),
	"tan":  unitless("tangent", math.Tan),
	"asin": inverseTrig("arcsine", math.Asin),
	"acos": inverseTrig("arccosine", math.Acos),
	"atan": unitless("arctangent", math.Atan),
	"sinh": unitless("hyperbolic sine", math.Sinh),
	"cosh": unitless("hyperbolic cosine", math.Cosh),
	"tanh": unitless("hyperbolic tangent", math.Tanh),

	"sqrt":    {1, 1, sqrt},
	"abs":     {1, 1, abs},
	"log":     logarithm("log", math.Log),
	"ln":      logarithm("ln", math.Log),
	"log2":    logarithm("log2", math.Log2),
	"log10":   logarithm("log10", math.Log10),
	"floor":   endpoints(math.Floor),
	"ceiling": endpoints(math.Ceil),

	"min":    {1, 2, minimum},
	"max":    {1, 2, maximum},
	"mnmx":   {2, 2, minmax},
	"extent": {1, 2, extent},
	"range":  {1, 1, func(a []Interval) Value { return Point(a[0].Max-a[0].Min, a[0].Dim) }},
	"mid":    {1, 1, func(a []Interval) Value { return Point((a[0].Max+a[0].Min)/2, a[0].Dim) }},
	"sign":   {1, 1, func(a []Interval) Value { return Span(sign(a[0].Min), sign(a[0].Max), units.Dimensionless) }},
	"strip":  {1, 1, func(a []Interval) Value { return Interval{Min: a[0].Min, Max: a[0].Max} }},
}

// IsBuiltin reports whether name is a builtin function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Builtins returns the builtin function names, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallBuiltin applies a builtin function. The second result is false when
// name is not a builtin.
func CallBuiltin(name string, args []Value) (Value, bool) {
	b, ok := builtins[name]
	if !ok {
		return nil, false
	}
	if f, failed := firstFailure(args...); failed {
		return f, true
	}
	if len(args) < b.minArgs || len(args) > b.maxArgs {
		if b.minArgs == b.maxArgs {
			return Fail(diag.KindParameter, "%s() takes %d argument(s), %d given.", name, b.minArgs, len(args)), true
		}
		return Fail(diag.KindParameter, "%s() takes %d to %d arguments, %d given.", name, b.minArgs, b.maxArgs, len(args)), true
	}
	ivs := make([]Interval, len(args))
	for i, a := range args {
		iv, ok := a.(Interval)
		if !ok {
			return Fail(diag.KindParameter, "Input to %s() must be numeric, not %s.", name, describe(a)), true
		}
		ivs[i] = iv
	}
	return b.fn(ivs), true
}

func unitless(what string, f func(float64) float64) builtin {
	return builtin{1, 1, func(a []Interval) Value {
		v := a[0]
		if !v.Dim.IsDimensionless() {
			return Fail(diag.KindUnitEvaluation, "Input to %s must be unitless.", what)
		}
		return Span(f(v.Min), f(v.Max), v.Dim)
	}}
}

func inverseTrig(what string, f func(float64) float64) builtin {
	inner := unitless(what, f)
	return builtin{1, 1, func(a []Interval) Value {
		v := a[0]
		if v.Dim.IsDimensionless() && (v.Min < -1 || v.Max > 1) {
			return Fail(diag.KindParameter, "Input to %s must be between -1 and 1.", what)
		}
		return inner.fn(a)
	}}
}

func logarithm(name string, f func(float64) float64) builtin {
	return builtin{1, 1, func(a []Interval) Value {
		v := a[0]
		if v.Min <= 0 {
			return Fail(diag.KindParameter, "Input to %s must be >0.", name)
		}
		return Span(f(v.Min), f(v.Max), units.Dimensionless)
	}}
}

func endpoints(f func(float64) float64) builtin {
	return builtin{1, 1, func(a []Interval) Value {
		return Span(f(a[0].Min), f(a[0].Max), a[0].Dim)
	}}
}

func sqrt(a []Interval) Value {
	v := a[0]
	if v.Min < 0 {
		return Fail(diag.KindParameter, "Input to sqrt must be >=0.")
	}
	return Interval{Min: math.Sqrt(v.Min), Max: math.Sqrt(v.Max), Dim: v.Dim.Pow(0.5)}
}

func abs(a []Interval) Value {
	v := a[0]
	lo, hi := extremes(math.Abs(v.Min), math.Abs(v.Max))
	if v.Min < 0 && v.Max > 0 {
		lo = 0
	}
	return v.with(lo, hi)
}

// pair checks that the two arguments of a binary min, max or extent share a
// dimension. The second result is true when both read the same parameter.
func pair(name string, a []Interval) (same bool, f *Failed) {
	x, y := a[0], a[1]
	if x.Ref != "" && x.Ref == y.Ref {
		return true, nil
	}
	if x.Dim != y.Dim {
		fail := Fail(diag.KindUnitEvaluation, "%s(): cannot compare %s to %s.", name, describe(x), describe(y))
		return false, &fail
	}
	return false, nil
}

func minimum(a []Interval) Value {
	x := a[0]
	if len(a) == 1 {
		return Point(x.Min, x.Dim)
	}
	same, f := pair("min", a)
	if f != nil {
		return *f
	}
	if same {
		return Point(x.Min, x.Dim)
	}
	y := a[1]
	return x.with(math.Min(x.Min, y.Min), math.Min(x.Max, y.Max))
}

func maximum(a []Interval) Value {
	x := a[0]
	if len(a) == 1 {
		return Point(x.Max, x.Dim)
	}
	same, f := pair("max", a)
	if f != nil {
		return *f
	}
	if same {
		return Point(x.Max, x.Dim)
	}
	y := a[1]
	return x.with(math.Max(x.Min, y.Min), math.Max(x.Max, y.Max))
}

func minmax(a []Interval) Value {
	if _, f := pair("mnmx", a); f != nil {
		return *f
	}
	x, y := a[0], a[1]
	return x.with(math.Min(x.Min, y.Min), math.Max(x.Max, y.Max))
}

func extent(a []Interval) Value {
	x := a[0]
	m := math.Max(math.Abs(x.Min), math.Abs(x.Max))
	if len(a) == 2 {
		same, f := pair("extent", a)
		if f != nil {
			return *f
		}
		if !same {
			m = math.Max(m, math.Max(math.Abs(a[1].Min), math.Abs(a[1].Max)))
		}
	}
	return Point(m, x.Dim)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
