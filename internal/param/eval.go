package param

import (
	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
)

// Func is an external function: positional arguments in, one value out.
type Func func(args []Value) (Value, error)

// Env resolves the names an expression refers to.
type Env interface {
	// Lookup returns the current value of a reference. Unknown or
	// unresolved references come back as Failed.
	Lookup(ref expr.QualifiedID) Value
	// Function returns an imported external function.
	Function(name string) (Func, bool)
}

// Eval evaluates an expression tree. It never returns nil; failures are
// Failed values whose notes trace the enclosing expressions.
func Eval(n expr.Node, env Env) Value {
	switch x := n.(type) {
	case *expr.Number:
		return Number(x.Value)

	case *expr.String:
		return Option(x.Value)

	case *expr.Ident:
		if c, ok := expr.Constants[x.Name]; ok {
			return Number(c)
		}
		v := env.Lookup(x.Ref)
		if iv, ok := v.(Interval); ok {
			iv.Ref = x.Name
			return iv
		}
		return v

	case *expr.Unary:
		v := Eval(x.X, env)
		var out Value
		if x.Op == expr.TOKEN_MINUS {
			out = Neg(v)
		} else {
			out = Not(v)
		}
		return traced(out, n)

	case *expr.Binary:
		a := Eval(x.X, env)
		b := Eval(x.Y, env)
		if isComparison(x.Op) {
			a, b = literalZero(x.X, a, b), literalZero(x.Y, b, a)
		}
		return traced(Apply(x.Op, a, b), n)

	case *expr.Call:
		args := make([]Value, len(x.Args))
		for i, arg := range x.Args {
			args[i] = Eval(arg, env)
		}
		return traced(call(x.Func, args, env), n)

	default:
		return Fail(diag.KindSyntax, "cannot evaluate %T", n)
	}
}

func isComparison(op expr.TokenType) bool {
	switch op {
	case expr.TOKEN_LT, expr.TOKEN_GT, expr.TOKEN_LE, expr.TOKEN_GE, expr.TOKEN_EQ, expr.TOKEN_NE:
		return true
	}
	return false
}

// literalZero gives a literal 0 operand the dimension of the other side, so
// "L > 0" compares with any unit. Zero-valued parameters get no such pass.
func literalZero(n expr.Node, v, other Value) Value {
	num, ok := n.(*expr.Number)
	if !ok || num.Value != 0 {
		return v
	}
	if o, ok := other.(Interval); ok {
		return Point(0, o.Dim)
	}
	return v
}

func call(name string, args []Value, env Env) Value {
	if v, ok := CallBuiltin(name, args); ok {
		return v
	}
	fn, ok := env.Function(name)
	if !ok {
		return Fail(diag.KindIdentifier, "Function %q is not a builtin or an imported function.", name)
	}
	if f, failed := firstFailure(args...); failed {
		return f
	}
	v, err := fn(args)
	if err != nil {
		return Failed{Err: diag.Wrap(diag.KindImportedFunction, err, "Function "+name+" raised an error")}
	}
	return v
}

// traced appends the expression to the trail of a failure.
func traced(v Value, n expr.Node) Value {
	if f, ok := v.(Failed); ok {
		return f.Trace("in " + n.String())
	}
	return v
}

// IsExternalCall reports whether n is a direct call to a non-builtin
// function. Such a call's result takes the dimension of the parameter it is
// written to.
func IsExternalCall(n expr.Node) bool {
	c, ok := n.(*expr.Call)
	return ok && !IsBuiltin(c.Func)
}
