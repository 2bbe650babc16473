// Package model builds and evaluates Oneil models.
//
// A Model owns the parameters declared in one file and the sub-models it
// imports. Loading resolves the import graph and checks that every
// reference names something; Evaluate then fills each dependent parameter
// exactly once, in dependency order, sub-models first.
package model

import (
	"log/slog"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/internal/parser"
	"github.com/careweather/oneil/pkg/token"
)

// DefaultDesign is the design name of a model with no overrides applied.
const DefaultDesign = "default"

// Model is a loaded model file.
type Model struct {
	Name string
	Path string
	Note string

	// Params holds the declared parameters; Order keeps declaration order.
	Params map[string]*param.Parameter
	Order  []string

	// Submodels maps a local symbol to an imported model.
	Submodels map[string]*Submodel
	Symbols   []string

	Tests  []*parser.Test
	Design string

	funcs  map[string]param.Func
	logger *slog.Logger
}

// Submodel is an imported model bound to a local symbol.
type Submodel struct {
	Symbol string
	Model  *Model
	// Path lists the symbols walked from the importing model to reach the
	// sub-model: the symbol itself for "use", the source chain plus the
	// model for "from".
	Path   []string
	Inputs []parser.Binding

	Pos    token.Position
	Source string
}

func newModel(f *parser.File, logger *slog.Logger) *Model {
	m := &Model{
		Name:      f.Name,
		Path:      f.Path,
		Note:      f.Note,
		Params:    make(map[string]*param.Parameter, len(f.Params)),
		Submodels: make(map[string]*Submodel),
		Tests:     f.Tests,
		Design:    DefaultDesign,
		funcs:     make(map[string]param.Func),
		logger:    logger,
	}
	for _, p := range f.Params {
		m.Params[p.ID] = p
		m.Order = append(m.Order, p.ID)
	}
	return m
}

// Parameters returns the declared parameters in declaration order.
func (m *Model) Parameters() []*param.Parameter {
	out := make([]*param.Parameter, 0, len(m.Order))
	for _, id := range m.Order {
		out = append(out, m.Params[id])
	}
	return out
}

// Submodel follows a chain of symbols, outermost first.
func (m *Model) Submodel(symbols ...string) (*Model, error) {
	cur := m
	for i, s := range symbols {
		sub, ok := cur.Submodels[s]
		if !ok {
			if i == 0 {
				return nil, diag.Newf(diag.KindIdentifier, "Submodel %q not found in %s.", s, m.Name)
			}
			return nil, diag.Newf(diag.KindIdentifier, "Submodel %q not found in path %s.", s, strings.Join(symbols[:i], "."))
		}
		cur = sub.Model
	}
	return cur, nil
}

// Lookup finds a parameter of m or, when ref has a path, of one of its
// sub-models.
func (m *Model) Lookup(ref expr.QualifiedID) (*param.Parameter, error) {
	target, err := m.Submodel(ref.Path...)
	if err != nil {
		return nil, err
	}
	p, ok := target.Params[ref.ID]
	if !ok {
		if ref.IsLocal() {
			return nil, diag.Newf(diag.KindIdentifier, "Parameter %q not found in %s.", ref.ID, m.Name)
		}
		return nil, diag.Newf(diag.KindIdentifier, "Parameter %q not found in path %s.", ref.ID, strings.Join(ref.Path, "."))
	}
	return p, nil
}

// Function returns an external function imported by this model.
func (m *Model) Function(name string) (param.Func, bool) {
	f, ok := m.funcs[name]
	return f, ok
}

// walk calls fn for m and every model it imports, each once.
func (m *Model) walk(fn func(*Model)) {
	seen := make(map[*Model]bool)
	var visit func(*Model)
	visit = func(cur *Model) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		for _, s := range cur.Symbols {
			visit(cur.Submodels[s].Model)
		}
		fn(cur)
	}
	visit(m)
}

// env resolves references while evaluating expressions of m.
type env struct {
	m *Model
	// inputs are test inputs supplied by an importing model.
	inputs map[string]param.Value
}

func (e env) Lookup(ref expr.QualifiedID) param.Value {
	if v, ok := e.inputs[ref.ID]; ok && ref.IsLocal() {
		return v
	}
	p, err := e.m.Lookup(ref)
	if err != nil {
		var d *diag.Error
		if de, ok := err.(*diag.Error); ok {
			d = de
		} else {
			d = diag.Wrap(diag.KindIdentifier, err, ref.String())
		}
		return param.Failed{Err: d}
	}
	if p.Value == nil {
		return param.Fail(diag.KindParameter, "Parameter %s is unresolved.", ref)
	}
	return p.Value
}

func (e env) Function(name string) (param.Func, bool) {
	return e.m.Function(name)
}
