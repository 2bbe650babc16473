package param

import (
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
)

// Equation computes a dependent parameter's value.
type Equation interface {
	// Refs lists the free variables, in first-use order.
	Refs() []string
	String() string
	Eval(env Env) Value
}

// Expr is an algebraic equation, possibly a single external call.
type Expr struct {
	Node expr.Node
}

// Literal is a constant branch of a piecewise or min/max equation, already
// converted to base units.
type Literal struct {
	Value Value
	Text  string
}

// Pointer copies the value of another parameter.
type Pointer struct {
	Target expr.QualifiedID
}

// MinMax takes the minimum of the Lo branch and the maximum of the Hi
// branch.
type MinMax struct {
	Lo, Hi Equation
}

// Clause is one piece of a piecewise equation.
type Clause struct {
	Value Equation
	Cond  expr.Node
}

// Piecewise takes the value of the first clause whose condition holds.
type Piecewise struct {
	Clauses []Clause
}

func (e *Expr) Refs() []string { return expr.Refs(e.Node) }

func (e *Expr) String() string { return e.Node.String() }

func (e *Expr) Eval(env Env) Value { return Eval(e.Node, env) }

func (e *Literal) Refs() []string { return nil }

func (e *Literal) String() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Value.String()
}

func (e *Literal) Eval(Env) Value { return e.Value }

func (e *Pointer) Refs() []string { return []string{e.Target.String()} }

func (e *Pointer) String() string { return "=> " + e.Target.String() }

func (e *Pointer) Eval(env Env) Value { return env.Lookup(e.Target) }

func (e *MinMax) Refs() []string {
	return mergeRefs(e.Lo.Refs(), e.Hi.Refs())
}

func (e *MinMax) String() string { return e.Lo.String() + " | " + e.Hi.String() }

func (e *MinMax) Eval(env Env) Value {
	lo := e.Lo.Eval(env)
	hi := e.Hi.Eval(env)
	if f, ok := firstFailure(lo, hi); ok {
		return f.Trace("in " + e.String())
	}
	a, b, f := operands("combine", lo, hi)
	if f != nil {
		return *f
	}
	if f := sameDimension("combine", a, b); f != nil {
		return *f
	}
	return a.with(a.Min, b.Max)
}

func (e *Piecewise) Refs() []string {
	var lists [][]string
	for _, c := range e.Clauses {
		lists = append(lists, c.Value.Refs(), expr.Refs(c.Cond))
	}
	return mergeRefs(lists...)
}

func (e *Piecewise) String() string {
	parts := make([]string, len(e.Clauses))
	for i, c := range e.Clauses {
		parts[i] = "{" + c.Value.String() + " if " + c.Cond.String()
	}
	return strings.Join(parts, " ")
}

// Eval resolves every condition before choosing a clause, so an error in a
// later condition is never hidden by an earlier match.
func (e *Piecewise) Eval(env Env) Value {
	conds := make([]bool, len(e.Clauses))
	for i, c := range e.Clauses {
		switch v := Eval(c.Cond, env).(type) {
		case Failed:
			return v.Trace("in condition " + c.Cond.String())
		case Bool:
			conds[i] = bool(v)
		default:
			return Fail(diag.KindParameter, "Piecewise condition %s is not a boolean.", c.Cond.String())
		}
	}
	for i, ok := range conds {
		if ok {
			return e.Clauses[i].Value.Eval(env)
		}
	}
	return Fail(diag.KindParameter, "No piecewise condition was met.")
}

func mergeRefs(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lists {
		for _, r := range l {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}
