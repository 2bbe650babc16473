package param

import (
	"errors"
	"math"
	"testing"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/pkg/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv struct {
	values map[string]Value
	funcs  map[string]Func
}

func (e mapEnv) Lookup(ref expr.QualifiedID) Value {
	if v, ok := e.values[ref.String()]; ok {
		return v
	}
	return Fail(diag.KindIdentifier, "%s is not defined", ref)
}

func (e mapEnv) Function(name string) (Func, bool) {
	f, ok := e.funcs[name]
	return f, ok
}

func mustUnit(t *testing.T, spelling string) units.Unit {
	t.Helper()
	u, err := units.Parse(spelling)
	require.NoError(t, err)
	return u
}

func evalString(t *testing.T, src string, env Env) Value {
	t.Helper()
	n, err := expr.Parse(src)
	require.NoError(t, err)
	return Eval(n, env)
}

func TestMismatchIsAValue(t *testing.T) {
	kg := mustUnit(t, "kg").Dimension
	m := mustUnit(t, "m").Dimension
	env := mapEnv{values: map[string]Value{
		"P": Point(1, kg),
		"Q": Point(2, m),
	}}

	for _, src := range []string{"P + Q", "P - Q", "P -- Q", "P < Q", "P > Q", "P <= Q", "P >= Q", "P == Q", "P != Q"} {
		t.Run(src, func(t *testing.T) {
			v := evalString(t, src, env)
			f, ok := v.(Failed)
			require.True(t, ok, "got %v", v)
			assert.Equal(t, diag.KindUnitEvaluation, f.Err.Kind)
			require.NotEmpty(t, f.Err.Notes)
			assert.Equal(t, "in "+src, f.Err.Notes[0])
		})
	}
}

func TestFailurePropagates(t *testing.T) {
	kg := mustUnit(t, "kg").Dimension
	m := mustUnit(t, "m").Dimension
	env := mapEnv{values: map[string]Value{
		"P": Point(1, kg),
		"Q": Point(2, m),
		"R": Point(3, m),
	}}

	v := evalString(t, "sqrt((P + Q) * R) / 2", env)
	f, ok := v.(Failed)
	require.True(t, ok)
	assert.Equal(t, []string{
		"in P + Q",
		"in (P + Q) * R",
		"in sqrt((P + Q) * R)",
		"in sqrt((P + Q) * R) / 2",
	}, f.Err.Notes)
}

func TestArithmetic(t *testing.T) {
	m := mustUnit(t, "m").Dimension
	env := mapEnv{values: map[string]Value{
		"a": Interval{Min: 1, Max: 2, Dim: m},
		"b": Interval{Min: 3, Max: 5, Dim: m},
		"c": Interval{Min: -1, Max: 2},
		"x": Number(4),
	}}

	tests := []struct {
		src      string
		min, max float64
	}{
		{"a + b", 4, 7},
		{"b - a", 1, 4},
		{"b -- a", 2, 3},
		{"a - a", 0, 0},
		{"a * b", 3, 10},
		{"c * c", -2, 4},
		{"b / a", 1.5, 5},
		{"b // a", 2.5, 3},
		{"a / a", 1, 1},
		{"-a", -2, -1},
		{"c ** 2", 0, 4},
		{"x ^ 0.5", 2, 2},
		{"2 ** c", 0.5, 4},
		{"-x ** 2", -16, -16},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v := evalString(t, tt.src, env)
			iv, ok := v.(Interval)
			require.True(t, ok, "got %v", v)
			assert.InDelta(t, tt.min, iv.Min, 1e-12)
			assert.InDelta(t, tt.max, iv.Max, 1e-12)
			assert.LessOrEqual(t, iv.Min, iv.Max)
		})
	}
}

func TestArithmetic_Dimensions(t *testing.T) {
	env := mapEnv{values: map[string]Value{
		"m": Point(10, mustUnit(t, "kg").Dimension),
		"a": Point(2, mustUnit(t, "m/s^2").Dimension),
		"A": Point(4, mustUnit(t, "m^2").Dimension),
	}}

	force := evalString(t, "m * a", env).(Interval)
	assert.Equal(t, map[string]float64{"kg": 1, "m": 1, "s": -2}, force.Dim.Exponents())
	assert.Equal(t, 20.0, force.Min)
	assert.Equal(t, 20.0, force.Max)
	assert.Equal(t, "20 N", FormatValue(force, "", 4))

	side := evalString(t, "sqrt(A)", env).(Interval)
	assert.Equal(t, map[string]float64{"m": 1}, side.Dim.Exponents())
	assert.Equal(t, 2.0, side.Min)

	cube := evalString(t, "A ** 1.5", env).(Interval)
	assert.Equal(t, map[string]float64{"m": 3}, cube.Dim.Exponents())
}

func TestArithmetic_Errors(t *testing.T) {
	env := mapEnv{values: map[string]Value{
		"L":    Interval{Min: 1, Max: 2, Dim: mustUnit(t, "m").Dimension},
		"z":    Interval{Min: -1, Max: 1},
		"n":    Interval{Min: 1, Max: 2},
		"mode": Option("fast"),
	}}

	tests := []struct {
		src  string
		kind diag.Kind
	}{
		{"L + 1", diag.KindUnitEvaluation},
		{"n / z", diag.KindDivideByZero},
		{"n // 0", diag.KindDivideByZero},
		{"L ** n", diag.KindUnitEvaluation},
		{"2 ** L", diag.KindUnitEvaluation},
		{"z ** 0.5", diag.KindParameter},
		{"z ** n", diag.KindParameter},
		{"sqrt(z)", diag.KindParameter},
		{"asin(n * 2)", diag.KindParameter},
		{"sin(L)", diag.KindUnitEvaluation},
		{"log(z)", diag.KindParameter},
		{"L & n", diag.KindUnitEvaluation},
		{"mode * 2", diag.KindParameter},
		{"mode < 'slow'", diag.KindParameter},
		{"min(L, n)", diag.KindUnitEvaluation},
		{"max()", diag.KindParameter},
		{"drag(L)", diag.KindIdentifier},
		{"missing + 1", diag.KindIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v := evalString(t, tt.src, env)
			f, ok := v.(Failed)
			require.True(t, ok, "got %v", v)
			assert.Equal(t, tt.kind, f.Err.Kind, f.Err.Error())
		})
	}
}

func TestPow_NegativeBase(t *testing.T) {
	env := mapEnv{values: map[string]Value{"z": Interval{Min: -1, Max: 1}}}

	f, ok := evalString(t, "z ** 1.5", env).(Failed)
	require.True(t, ok)
	assert.Equal(t, diag.KindParameter, f.Err.Kind)
	assert.Contains(t, f.Err.Message, "negative base -1|1")

	cube, ok := evalString(t, "z ** 3", env).(Interval)
	require.True(t, ok)
	assert.Equal(t, -1.0, cube.Min)
	assert.Equal(t, 1.0, cube.Max)
}

func TestCompareAndLogic(t *testing.T) {
	m := mustUnit(t, "m").Dimension
	env := mapEnv{values: map[string]Value{
		"x":    Point(5, units.Dimensionless),
		"L":    Interval{Min: 1, Max: 3, Dim: m},
		"K":    Interval{Min: 2, Max: 4, Dim: m},
		"mode": Option("fast"),
	}}

	tests := []struct {
		src  string
		want bool
	}{
		{"x < 0", false},
		{"x >= 0", true},
		{"L < K", true},
		{"L > 0", true},
		{"L == L", true},
		{"L != K", true},
		{"x > 1 and x < 10", true},
		{"x > 1 & x > 10", false},
		{"x > 10 or x == 5", true},
		{"x > 10 | x < 1", false},
		{"not x > 10", true},
		{"!(x == 5)", false},
		{"mode == 'fast'", true},
		{"mode != 'fast'", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v := evalString(t, tt.src, env)
			require.IsType(t, Bool(false), v, "got %v", v)
			assert.Equal(t, Bool(tt.want), v)
		})
	}
}

func TestCompare_ZeroValuedParameter(t *testing.T) {
	kg := mustUnit(t, "kg").Dimension
	env := mapEnv{values: map[string]Value{
		"m": Point(5, kg),
		"z": Number(0),
	}}

	for _, src := range []string{"m > z", "z < m", "m != z"} {
		t.Run(src, func(t *testing.T) {
			f, ok := evalString(t, src, env).(Failed)
			require.True(t, ok, "a unitless parameter that is zero still has a different dimension")
			assert.Equal(t, diag.KindUnitEvaluation, f.Err.Kind)
		})
	}

	assert.Equal(t, Bool(true), evalString(t, "m > 0", env))
	assert.Equal(t, Bool(true), evalString(t, "0 < m", env))

	_, ok := Compare(expr.TOKEN_GT, Interval{Min: 5, Max: 5, Dim: kg, Ref: "m"}, Interval{Ref: "z"}).(Failed)
	assert.True(t, ok)
}

func TestBuiltins(t *testing.T) {
	m := mustUnit(t, "m").Dimension
	env := mapEnv{values: map[string]Value{
		"L": Interval{Min: -2, Max: 3, Dim: m},
		"K": Interval{Min: 1, Max: 5, Dim: m},
		"n": Interval{Min: 0.25, Max: 0.5},
	}}

	tests := []struct {
		src      string
		min, max float64
		dim      units.Dimension
	}{
		{"abs(L)", 0, 3, m},
		{"min(L)", -2, -2, m},
		{"max(L)", 3, 3, m},
		{"min(L, K)", -2, 3, m},
		{"max(L, K)", 1, 5, m},
		{"min(L, L)", -2, -2, m},
		{"mnmx(L, K)", -2, 5, m},
		{"extent(L)", 3, 3, m},
		{"extent(L, K)", 5, 5, m},
		{"range(K)", 4, 4, m},
		{"mid(K)", 3, 3, m},
		{"sign(L)", -1, 1, units.Dimensionless},
		{"strip(K)", 1, 5, units.Dimensionless},
		{"floor(n * 10)", 2, 5, units.Dimensionless},
		{"ceiling(n * 10)", 3, 5, units.Dimensionless},
		{"log10(n * 400)", 2, math.Log10(200), units.Dimensionless},
		{"log2(n * 16)", 2, 3, units.Dimensionless},
		{"ln(e)", 1, 1, units.Dimensionless},
		{"cos(0)", 1, 1, units.Dimensionless},
		{"asin(1)", math.Pi / 2, math.Pi / 2, units.Dimensionless},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v := evalString(t, tt.src, env)
			iv, ok := v.(Interval)
			require.True(t, ok, "got %v", v)
			assert.InDelta(t, tt.min, iv.Min, 1e-12)
			assert.InDelta(t, tt.max, iv.Max, 1e-12)
			assert.Equal(t, tt.dim, iv.Dim)
		})
	}
}

func TestExternalFunction(t *testing.T) {
	env := mapEnv{
		values: map[string]Value{"v": Number(3)},
		funcs: map[string]Func{
			"double": func(args []Value) (Value, error) {
				iv := args[0].(Interval)
				return Span(iv.Min*2, iv.Max*2, iv.Dim), nil
			},
			"broken": func([]Value) (Value, error) {
				return nil, errors.New("boom")
			},
		},
	}

	v := evalString(t, "double(v) + 1", env)
	assert.Equal(t, 7.0, v.(Interval).Min)

	f, ok := evalString(t, "broken(v)", env).(Failed)
	require.True(t, ok)
	assert.Equal(t, diag.KindImportedFunction, f.Err.Kind)
	assert.Contains(t, f.Err.Error(), "boom")
}

func TestParameter_WriteOnce(t *testing.T) {
	env := mapEnv{values: map[string]Value{"b": Number(1)}}
	n, err := expr.Parse("b + 1")
	require.NoError(t, err)

	p := New("a", "alpha")
	p.Equation = &Expr{Node: n}
	require.NoError(t, p.Calculate(env))
	assert.Equal(t, Number(2), p.Value)

	err = p.Calculate(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Parameters cannot be re-calculated")
	assert.Equal(t, Number(2), p.Value, "a rejected re-write keeps the value")

	err = p.Write(Number(3))
	require.Error(t, err)

	p.Reset()
	assert.False(t, p.Resolved())
	require.NoError(t, p.Calculate(env))
}

func TestParameter_Checks(t *testing.T) {
	km := mustUnit(t, "km")

	t.Run("limits", func(t *testing.T) {
		p := New("h", "height")
		p.Unit, p.UnitSpelling = km, "km"
		p.Limits = Limits{Min: 0, Max: 10000}
		err := p.SetLiteral(Number(12))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Values out of bounds [0|10 km]")
		assert.True(t, diag.IsKind(err, diag.KindParameter))
		_, failed := p.Value.(Failed)
		assert.True(t, failed)
	})

	t.Run("default limits reject negatives", func(t *testing.T) {
		p := New("x", "x")
		assert.Error(t, p.SetLiteral(Number(-1)))
	})

	t.Run("min greater than max", func(t *testing.T) {
		p := New("x", "x")
		assert.Error(t, p.Write(Interval{Min: 2, Max: 1}))
	})

	t.Run("units", func(t *testing.T) {
		p := New("h", "height")
		p.Unit = km
		err := p.Write(Point(1, mustUnit(t, "kg").Dimension))
		require.Error(t, err)
		assert.True(t, diag.IsKind(err, diag.KindUnitEvaluation))
	})

	t.Run("options", func(t *testing.T) {
		p := New("mode", "mode")
		p.Options = []string{"fast", "slow"}
		require.NoError(t, p.Write(Option("fast")))

		q := New("mode", "mode")
		q.Options = []string{"fast", "slow"}
		err := q.Write(Option("warp"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not among its options")
	})

	t.Run("literal conversion", func(t *testing.T) {
		p := New("h", "height")
		p.Unit, p.UnitSpelling = km, "km"
		require.NoError(t, p.SetLiteral(Interval{Min: 1, Max: 2}))
		iv := p.Value.(Interval)
		assert.Equal(t, 1000.0, iv.Min)
		assert.Equal(t, 2000.0, iv.Max)
		assert.Equal(t, "1|2 km", p.Display(4))
	})
}

func TestParameter_ErrorContext(t *testing.T) {
	n, err := expr.Parse("m + L")
	require.NoError(t, err)
	p := New("bad", "bad")
	p.Equation = &Expr{Node: n}
	p.Source = "bad: bad = m + L"
	p.Pos.File, p.Pos.Line = "sat.on", 7

	env := mapEnv{values: map[string]Value{
		"m": Point(1, mustUnit(t, "kg").Dimension),
		"L": Point(1, mustUnit(t, "m").Dimension),
	}}
	err = p.Calculate(env)
	require.Error(t, err)
	var d *diag.Error
	require.ErrorAs(t, err, &d)
	assert.Equal(t, "bad", d.Param)
	assert.Equal(t, 7, d.Pos.Line)
	assert.Equal(t, []string{"in m + L"}, d.Notes)
}

func TestPiecewise(t *testing.T) {
	clause := func(src string) Clause {
		v, c, err := expr.ParseClause(src)
		require.NoError(t, err)
		return Clause{Value: &Expr{Node: v}, Cond: c}
	}
	pw := &Piecewise{Clauses: []Clause{clause("1 if x < 0"), clause("2 if x >= 0")}}
	assert.Equal(t, []string{"x"}, pw.Refs())

	v := pw.Eval(mapEnv{values: map[string]Value{"x": Number(5)}})
	assert.Equal(t, Number(2), v)

	none := &Piecewise{Clauses: []Clause{clause("1 if x < 0"), clause("2 if x > 10")}}
	f, ok := none.Eval(mapEnv{values: map[string]Value{"x": Number(5)}}).(Failed)
	require.True(t, ok)
	assert.Equal(t, "No piecewise condition was met.", f.Err.Message)
}

func TestMinMax(t *testing.T) {
	lo, err := expr.Parse("a * 2")
	require.NoError(t, err)
	hi, err := expr.Parse("a * 3")
	require.NoError(t, err)
	mm := &MinMax{Lo: &Expr{Node: lo}, Hi: &Expr{Node: hi}}

	v := mm.Eval(mapEnv{values: map[string]Value{"a": Interval{Min: 1, Max: 2}}})
	assert.Equal(t, Interval{Min: 2, Max: 6}, v)
	assert.Equal(t, "a * 2 | a * 3", mm.String())

	inverted := New("r", "range")
	inverted.Equation = &MinMax{Lo: &Expr{Node: hi}, Hi: &Expr{Node: lo}}
	err = inverted.Calculate(mapEnv{values: map[string]Value{"a": Number(2)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Parameter min is greater than Parameter max.")
	_, failed := inverted.Value.(Failed)
	assert.True(t, failed)
}

func TestFormatValue(t *testing.T) {
	m := mustUnit(t, "m").Dimension
	assert.Equal(t, "500 m | 2 km", FormatValue(Interval{Min: 500, Max: 2000, Dim: m}, "", 4))
	assert.Equal(t, "1.235 km", FormatValue(Point(1234.6, m), "km", 4))
	assert.Equal(t, "0.5", FormatValue(Number(0.5), "", 4))
	assert.Equal(t, "fast", FormatValue(Option("fast"), "", 4))
	assert.Equal(t, "unresolved", FormatValue(nil, "", 4))
}
