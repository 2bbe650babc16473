package parser

import (
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/pkg/token"
	"github.com/careweather/oneil/pkg/units"
)

// File is the parsed content of one model or design file.
type File struct {
	// Path is the file path as given to the parser.
	Path string
	// Name is the file name without directory or ".on" extension.
	Name string
	// Note is the model note: indented lines before the first declaration.
	Note string

	Params    []*param.Parameter
	Uses      []*Use
	Imports   []*Import
	Tests     []*Test
	Overrides []*Override
}

// Param returns the declared parameter with the given id.
func (f *File) Param(id string) (*param.Parameter, bool) {
	for _, p := range f.Params {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Binding passes a value of the importing model to a test input of a
// sub-model: "use battery(v=bus_voltage) as batt".
type Binding struct {
	Input string
	Ref   expr.QualifiedID
}

// Use imports a sub-model under a local symbol.
//
// A plain "use" names a model file. A "from" import reaches through
// sub-models already imported: Via lists the symbols to walk, outermost
// first, and Model is the symbol bound inside the last of them.
type Use struct {
	Model  string
	Via    []string
	Symbol string
	Inputs []Binding

	Pos    token.Position
	Source string
}

// IsFrom reports whether the import reaches through another sub-model.
func (u *Use) IsFrom() bool {
	return len(u.Via) > 0
}

// Import registers a module of external functions.
type Import struct {
	Module string
	Pos    token.Position
	Source string
}

// Test is an assertion evaluated against a built model.
type Test struct {
	Expr expr.Node
	Text string
	// Inputs must all be supplied by an importing model for the test to run.
	Inputs  []string
	Trace   bool
	Section string
	Note    string

	Pos    token.Position
	Source string
}

// Override is a design line, "id[.symbol...] = value[: units]". It replaces
// the value or equation of a parameter of the model it is applied to.
type Override struct {
	// Target names the parameter; its Path addresses a nested sub-model.
	Target expr.QualifiedID
	// Equation is the right side as written.
	Equation string
	Pointer  bool
	// Unit is nil when the line gives none; the overridden parameter's unit
	// then applies.
	Unit         *units.Unit
	UnitSpelling string

	Trace   bool
	Section string
	Note    string

	Pos    token.Position
	Source string

	rhs segment
}

// Key is the qualified target of the override, "id.symbol...".
func (o *Override) Key() string {
	return o.Target.String()
}

// Apply writes the override's value or equation into p. p carries the
// metadata of the parameter being replaced; its unit must already be set.
func (o *Override) Apply(p *param.Parameter) error {
	a := &assigner{p: p, pos: o.Pos, line: o.Source}
	a.assign(o.rhs, o.Pointer)
	if pw, ok := p.Equation.(*param.Piecewise); ok {
		a.checkPiecewise(pw)
	}
	return a.errs.Err()
}
