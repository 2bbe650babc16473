package extfunc

import (
	"fmt"

	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/pkg/units"
	"go.starlark.net/starlark"
)

// wrap adapts a Starlark callable to a model function. Each call runs on
// its own thread.
func wrap(name string, fn starlark.Callable) param.Func {
	return func(args []param.Value) (param.Value, error) {
		in := make(starlark.Tuple, len(args))
		for i, a := range args {
			v, err := toStarlark(a)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			in[i] = v
		}

		thread := &starlark.Thread{
			Name:  "call:" + name,
			Print: func(_ *starlark.Thread, _ string) {},
		}
		out, err := starlark.Call(thread, fn, in, nil)
		if err != nil {
			return nil, err
		}
		return fromStarlark(out)
	}
}

// toStarlark passes a point as a float and a wider interval as a
// (min, max) tuple. Values are in base units.
func toStarlark(v param.Value) (starlark.Value, error) {
	switch x := v.(type) {
	case param.Interval:
		if x.IsPoint() {
			return starlark.Float(x.Min), nil
		}
		return starlark.Tuple{starlark.Float(x.Min), starlark.Float(x.Max)}, nil
	case param.Option:
		return starlark.String(x), nil
	case param.Bool:
		return starlark.Bool(x), nil
	default:
		return nil, fmt.Errorf("unsupported value %s", v)
	}
}

// fromStarlark reads a result: a number, a (min, max) pair, a string
// option or a bool. Numbers come back dimensionless.
func fromStarlark(v starlark.Value) (param.Value, error) {
	switch x := v.(type) {
	case starlark.Bool:
		return param.Bool(x), nil
	case starlark.String:
		return param.Option(x), nil
	case starlark.Indexable:
		if x.Len() != 2 {
			return nil, fmt.Errorf("expected a (min, max) pair, got %d values", x.Len())
		}
		lo, err := number(x.Index(0))
		if err != nil {
			return nil, err
		}
		hi, err := number(x.Index(1))
		if err != nil {
			return nil, err
		}
		return param.Span(lo, hi, units.Dimensionless), nil
	default:
		f, err := number(v)
		if err != nil {
			return nil, err
		}
		return param.Number(f), nil
	}
}

func number(v starlark.Value) (float64, error) {
	f, ok := starlark.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %s", v.Type())
	}
	return f, nil
}
