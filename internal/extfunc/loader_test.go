package extfunc

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/internal/testutil"
	"github.com/careweather/oneil/pkg/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

const dragModule = `
def cd(v):
    return 0.5 * v

def spread(v):
    return (v - 1, v + 1)

def width(iv):
    lo, hi = iv
    return hi - lo

def hypot(a, b):
    return math.sqrt(a * a + b * b)

def kind(mode):
    return "fast" if mode == "race" else "slow"

def fails(v):
    fail("drag diverged")

def _helper():
    return 1

RHO = 1.225
`

func writeModule(t *testing.T, dir, name, body string) {
	t.Helper()
	testutil.WriteFile(t, dir, name+Ext, body)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "drag", dragModule)
	l := NewLoader(testutil.NewTestLogger(t))

	funcs, err := l.Load("drag", []string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)

	assert.Contains(t, funcs, "cd")
	assert.NotContains(t, funcs, "_helper")
	assert.NotContains(t, funcs, "RHO")

	tests := []struct {
		name string
		fn   string
		args []param.Value
		want param.Value
	}{
		{name: "point in, point out", fn: "cd", args: []param.Value{param.Number(4)}, want: param.Number(2)},
		{name: "pair out", fn: "spread", args: []param.Value{param.Number(4)}, want: param.Span(3, 5, units.Dimensionless)},
		{name: "interval in", fn: "width", args: []param.Value{param.Span(2, 7, units.Dimensionless)}, want: param.Number(5)},
		{name: "math module", fn: "hypot", args: []param.Value{param.Number(3), param.Number(4)}, want: param.Number(5)},
		{name: "option", fn: "kind", args: []param.Value{param.Option("race")}, want: param.Option("fast")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := funcs[tt.fn](tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("error", func(t *testing.T) {
		_, err := funcs["fails"]([]param.Value{param.Number(1)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "drag diverged")
	})
}

func TestLoader_Cache(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "drag", dragModule)
	l := NewLoader(nil)

	_, err := l.Load("drag", []string{dir})
	require.NoError(t, err)

	// A cached module is not executed again.
	writeModule(t, dir, "drag", "def cd(v):\n    return v\n")
	funcs, err := l.Load("drag", []string{dir})
	require.NoError(t, err)
	got, err := funcs["cd"]([]param.Value{param.Number(4)})
	require.NoError(t, err)
	assert.Equal(t, param.Number(2), got)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "broken", "def cd(v)\n    return v\n")
	l := NewLoader(nil)

	_, err := l.Load("absent", []string{dir})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = l.Load("broken", []string{dir})
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Message, "Starlark execution error")

	_, err = l.Load("9lives", []string{dir})
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Message, "invalid module name")
}

func TestConvert(t *testing.T) {
	_, err := toStarlark(param.Failed{})
	assert.Error(t, err)

	_, err = fromStarlark(starlarkTuple(1, 2, 3))
	assert.Error(t, err)

	v, err := fromStarlark(starlarkTuple(5, 1))
	require.NoError(t, err)
	assert.Equal(t, param.Span(1, 5, units.Dimensionless), v)

	v, err = fromStarlark(starlarkTuple(math.Inf(-1), 0))
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.(param.Interval).Min, -1))
}

func starlarkTuple(vs ...float64) starlark.Tuple {
	out := make(starlark.Tuple, len(vs))
	for i, v := range vs {
		out[i] = starlark.Float(v)
	}
	return out
}
