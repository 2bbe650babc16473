package param

import (
	"math"
	"slices"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/pkg/token"
	"github.com/careweather/oneil/pkg/units"
)

// Limits are the continuous bounds a parameter's value must lie within,
// in base units.
type Limits struct {
	Min, Max float64
}

// DefaultLimits applies when a declaration gives neither limits nor options.
var DefaultLimits = Limits{Min: 0, Max: math.Inf(1)}

// Parameter is a named quantity of a model.
//
// An independent parameter has no equation; its value is set once when the
// model is loaded. A dependent parameter starts unresolved and is written
// exactly once by Calculate. Only Reset returns it to unresolved.
type Parameter struct {
	ID   string
	Name string

	// Unit is the declared unit; UnitSpelling is how it was written and is
	// the preferred display unit.
	Unit         units.Unit
	UnitSpelling string

	Limits  Limits
	Options []string

	Equation Equation
	Value    Value
	Err      *diag.Error

	Performance bool
	Trace       bool
	Section     string
	Note        string

	Pos    token.Position
	Source string
}

// New creates an unresolved parameter with default limits and a
// dimensionless unit.
func New(id, name string) *Parameter {
	return &Parameter{
		ID:     id,
		Name:   name,
		Unit:   units.Unit{Multiplier: 1},
		Limits: DefaultLimits,
	}
}

// Independent reports whether the parameter is given rather than computed.
func (p *Parameter) Independent() bool {
	return p.Equation == nil
}

// Resolved reports whether the parameter holds a value or a failure.
func (p *Parameter) Resolved() bool {
	return p.Value != nil
}

// Refs returns the free variables of the equation.
func (p *Parameter) Refs() []string {
	if p.Equation == nil {
		return nil
	}
	return p.Equation.Refs()
}

// Reset clears a dependent parameter so it can be computed again.
func (p *Parameter) Reset() {
	if p.Equation != nil {
		p.Value = nil
		p.Err = nil
	}
}

// SetLiteral writes a value given in the declared unit, converting unitless
// numbers to base units first.
func (p *Parameter) SetLiteral(v Value) error {
	if iv, ok := v.(Interval); ok && iv.Dim.IsDimensionless() {
		v = Interval{Min: p.Unit.ToBase(iv.Min), Max: p.Unit.ToBase(iv.Max), Dim: p.Unit.Dimension}
	}
	return p.Write(v)
}

// Calculate evaluates the equation and writes the result.
func (p *Parameter) Calculate(env Env) error {
	if p.Value != nil {
		return p.reject(diag.New(diag.KindParameter, "Parameters cannot be re-calculated."))
	}
	if p.Equation == nil {
		return p.fail(diag.New(diag.KindParameter, "Parameter needs an equation or value defined."))
	}

	v := p.Equation.Eval(env)
	if e, ok := p.Equation.(*Expr); ok && IsExternalCall(e.Node) {
		if iv, ok := v.(Interval); ok && iv.Dim.IsDimensionless() {
			iv.Dim = p.Unit.Dimension
			v = iv
		}
	}
	return p.Write(v)
}

// Write stores a value after checking its dimension, order, limits and
// options. A rejected value leaves the parameter errored.
func (p *Parameter) Write(v Value) error {
	if p.Value != nil {
		return p.reject(diag.New(diag.KindParameter, "Parameters cannot be re-calculated."))
	}

	switch x := v.(type) {
	case Failed:
		return p.fail(x.Err.Clone())

	case Interval:
		if p.Options != nil {
			return p.fail(diag.New(diag.KindParameter, "Parameter was given a value that is not among its options."))
		}
		if x.Dim != p.Unit.Dimension {
			return p.fail(diag.Newf(diag.KindUnitEvaluation,
				"Input or calculated units (%s) do not match the required units: (%s).",
				units.Describe(x.Dim), units.Describe(p.Unit.Dimension)))
		}
		if math.IsNaN(x.Min) || math.IsNaN(x.Max) {
			return p.fail(diag.New(diag.KindParameter, "Parameter value is not a number."))
		}
		if x.Min > x.Max {
			return p.fail(diag.New(diag.KindParameter, "Parameter min is greater than Parameter max."))
		}
		if p.Limits.Min > p.Limits.Max {
			return p.fail(diag.New(diag.KindParameter, "Minimum limit > maximum limit."))
		}
		if x.Min < p.Limits.Min || x.Max > p.Limits.Max {
			bounds := Interval{Min: p.Limits.Min, Max: p.Limits.Max, Dim: p.Unit.Dimension}
			return p.fail(diag.Newf(diag.KindParameter,
				"Values out of bounds [%s]. Revise values or limits.", FormatValue(bounds, p.UnitSpelling, 4)))
		}
		x.Ref = ""
		p.Value = x

	case Option:
		if !slices.Contains(p.Options, string(x)) {
			return p.fail(diag.New(diag.KindParameter, "Parameter was assigned an option that is not among its options."))
		}
		p.Value = x

	case Bool:
		if !p.Unit.Dimension.IsDimensionless() {
			return p.fail(diag.Newf(diag.KindUnitEvaluation,
				"A boolean cannot be written to a parameter measured in %s.", units.Describe(p.Unit.Dimension)))
		}
		p.Value = x

	default:
		return p.fail(diag.New(diag.KindParameter, "Value is empty."))
	}
	return nil
}

// fail records e as the parameter's value.
func (p *Parameter) fail(e *diag.Error) error {
	e.For(p.ID).At(p.Pos, p.Source)
	p.Err = e
	p.Value = Failed{Err: e}
	return e
}

// reject reports e without touching the stored value.
func (p *Parameter) reject(e *diag.Error) error {
	return e.For(p.ID).At(p.Pos, p.Source)
}

// Display renders the value with the given significant figures, in the
// declared unit when it can show the value.
func (p *Parameter) Display(sigfigs int) string {
	return FormatValue(p.Value, p.UnitSpelling, sigfigs)
}

// FormatValue renders a value for display: "20 N", "1|2 km" or, when the
// endpoints pick different units, "500 m | 2 km".
func FormatValue(v Value, preferred string, sigfigs int) string {
	switch x := v.(type) {
	case nil:
		return "unresolved"
	case Interval:
		lo, loUnit := displayPart(x.Dim, x.Min, preferred)
		if x.IsPoint() {
			return joinUnit(formatFloat(lo, sigfigs), loUnit)
		}
		hi, hiUnit := displayPart(x.Dim, x.Max, preferred)
		if loUnit == hiUnit {
			return joinUnit(formatFloat(lo, sigfigs)+"|"+formatFloat(hi, sigfigs), loUnit)
		}
		return joinUnit(formatFloat(lo, sigfigs), loUnit) + " | " + joinUnit(formatFloat(hi, sigfigs), hiUnit)
	default:
		return v.String()
	}
}

func displayPart(d units.Dimension, base float64, preferred string) (float64, string) {
	v, u, err := units.Format(d, base, preferred)
	if err != nil {
		v, u, _ = units.Format(d, base, "")
	}
	return v, u
}

func joinUnit(num, unit string) string {
	return strings.TrimSpace(num + " " + unit)
}
