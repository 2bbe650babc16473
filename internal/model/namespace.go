package model

import (
	"slices"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
)

// CheckNamespace verifies that every reference in the model and its
// sub-models names a parameter, a constant or a sub-model parameter, and
// that every called function is a builtin or imported. All undefined
// identifiers of a model are reported together.
func (m *Model) CheckNamespace() error {
	var errs diag.List
	m.walk(func(cur *Model) {
		errs = append(errs, cur.checkLocal()...)
	})
	return errs.Err()
}

func (m *Model) checkLocal() diag.List {
	var (
		undefined []diag.Reference
		errs      diag.List
	)

	for _, p := range m.Parameters() {
		for _, ref := range p.Refs() {
			if !m.defines(ref) {
				undefined = append(undefined, diag.Reference{Name: ref, Param: p.ID, Pos: p.Pos})
			}
		}
		for _, n := range equationNodes(p.Equation) {
			errs = append(errs, m.checkCalls(n, p.ID, p)...)
		}
	}

	for _, t := range m.Tests {
		for _, ref := range expr.Refs(t.Expr) {
			if slices.Contains(t.Inputs, ref) || m.defines(ref) {
				continue
			}
			undefined = append(undefined, diag.Reference{Name: ref, Param: "test", Pos: t.Pos})
		}
		for _, name := range expr.Calls(t.Expr) {
			if !m.callable(name) {
				errs = append(errs, diag.Newf(diag.KindIdentifier,
					"Function %q is not a builtin or an imported function.", name).At(t.Pos, t.Source))
			}
		}
	}

	for _, s := range m.Symbols {
		sub := m.Submodels[s]
		for _, b := range sub.Inputs {
			if _, err := m.Lookup(b.Ref); err != nil {
				undefined = append(undefined, diag.Reference{Name: b.Ref.String(), Param: "use " + s, Pos: sub.Pos})
			}
		}
	}

	if len(undefined) > 0 {
		errs = append(diag.List{diag.Undefined(m.Name, undefined)}, errs...)
	}
	return errs
}

// defines reports whether ref resolves in m.
func (m *Model) defines(ref string) bool {
	if expr.IsConstant(ref) {
		return true
	}
	_, err := m.Lookup(expr.ParseQualifiedID(ref))
	return err == nil
}

func (m *Model) callable(name string) bool {
	if param.IsBuiltin(name) {
		return true
	}
	_, ok := m.funcs[name]
	return ok
}

func (m *Model) checkCalls(n expr.Node, id string, p *param.Parameter) diag.List {
	var errs diag.List
	for _, name := range expr.Calls(n) {
		if !m.callable(name) {
			e := diag.Newf(diag.KindIdentifier, "Function %q is not a builtin or an imported function.", name)
			if i := strings.LastIndex(name, "."); i > 0 {
				e.WithNote("is module " + name[:i] + " imported?")
			}
			errs = append(errs, e.For(id).At(p.Pos, p.Source))
		}
	}
	return errs
}

// equationNodes returns the expression trees an equation evaluates.
func equationNodes(eq param.Equation) []expr.Node {
	switch e := eq.(type) {
	case *param.Expr:
		return []expr.Node{e.Node}
	case *param.MinMax:
		return append(equationNodes(e.Lo), equationNodes(e.Hi)...)
	case *param.Piecewise:
		var nodes []expr.Node
		for _, c := range e.Clauses {
			nodes = append(nodes, equationNodes(c.Value)...)
			nodes = append(nodes, c.Cond)
		}
		return nodes
	default:
		return nil
	}
}
