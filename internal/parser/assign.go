package parser

import (
	"errors"
	"strings"
	"unicode"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/pkg/token"
)

// segment is a slice of a source line that remembers the 1-based column it
// starts at, so expression errors can point into the line.
type segment struct {
	text string
	col  int
}

func (g segment) trim() segment {
	left := strings.TrimLeftFunc(g.text, unicode.IsSpace)
	return segment{
		text: strings.TrimRightFunc(left, unicode.IsSpace),
		col:  g.col + len(g.text) - len(left),
	}
}

// cut splits at the first sep. When sep is absent, after is empty.
func (g segment) cut(sep string) (before, after segment, found bool) {
	i := strings.Index(g.text, sep)
	if i < 0 {
		return g, segment{col: g.col + len(g.text)}, false
	}
	return segment{text: g.text[:i], col: g.col},
		segment{text: g.text[i+len(sep):], col: g.col + i + len(sep)},
		true
}

func (g segment) cutPrefix(prefix string) (segment, bool) {
	rest, ok := strings.CutPrefix(g.text, prefix)
	if !ok {
		return g, false
	}
	return segment{text: rest, col: g.col + len(prefix)}, true
}

// splitTop splits at every sep that sits outside parentheses, brackets and
// quotes.
func splitTop(g segment, sep byte) []segment {
	var parts []segment
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(g.text); i++ {
		c := g.text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, segment{text: g.text[start:i], col: g.col + start})
			start = i + 1
		}
	}
	return append(parts, segment{text: g.text[start:], col: g.col + start})
}

// rebase maps an expression error onto the line the expression came from.
// offset is the column of the expression's first character.
func rebase(err error, pos token.Position, line string, offset int) *diag.Error {
	var d *diag.Error
	if !errors.As(err, &d) {
		return diag.Wrap(diag.KindSyntax, err, "invalid expression").At(pos, line)
	}
	d = d.Clone()
	col := d.Pos.Column
	d.Pos = pos
	if col > 0 {
		d.Pos = pos.Shift(offset + col - 1)
	}
	d.Source = line
	return d
}

// constants resolves nothing but the named constants, for values that are
// computed once at load time.
type constants struct{}

func (constants) Lookup(ref expr.QualifiedID) param.Value {
	return param.Fail(diag.KindIdentifier, "%s is not a constant", ref)
}

func (constants) Function(string) (param.Func, bool) { return nil, false }

// assigner builds a parameter's value or equation from the right side of a
// declaration and collects the problems it finds on that line.
type assigner struct {
	p    *param.Parameter
	pos  token.Position
	line string
	errs diag.List
}

func (a *assigner) errorf(kind diag.Kind, format string, args ...any) {
	a.errs = append(a.errs, diag.Newf(kind, format, args...).For(a.p.ID).At(a.pos, a.line))
}

func (a *assigner) parse(g segment) (expr.Node, bool) {
	n, err := expr.Parse(g.text)
	if err != nil {
		a.errs = append(a.errs, rebase(err, a.pos, a.line, g.col).For(a.p.ID))
		return nil, false
	}
	return n, true
}

func (a *assigner) collect(err error) {
	var d *diag.Error
	if errors.As(err, &d) {
		a.errs = append(a.errs, d)
	}
}

// assign handles "= rhs" and, when pointer is set, "=> rhs".
func (a *assigner) assign(rhs segment, pointer bool) {
	rhs = rhs.trim()
	if rhs.text == "" {
		a.errorf(diag.KindSyntax, "Parameter %s needs an equation or value defined.", a.p.ID)
		return
	}

	if strings.HasPrefix(rhs.text, "{") {
		a.p.Equation = &param.Piecewise{Clauses: a.clauses(rhs)}
		return
	}

	parts := splitTop(rhs, '|')
	switch len(parts) {
	case 1:
	case 2:
		if pointer {
			a.errorf(diag.KindSyntax, "A pointer must name a single parameter.")
			return
		}
		a.minmax(parts[0].trim(), parts[1].trim())
		return
	default:
		a.errorf(diag.KindSyntax, "A min/max equation takes exactly two branches.")
		return
	}

	n, ok := a.parse(rhs)
	if !ok {
		return
	}
	if id, ok := n.(*expr.Ident); ok && !expr.IsConstant(id.Name) {
		switch {
		case pointer || a.p.Options == nil:
			a.p.Equation = &param.Pointer{Target: id.Ref}
		default:
			a.collect(a.p.SetLiteral(param.Option(id.Name)))
		}
		return
	}
	if pointer {
		a.errorf(diag.KindSyntax, "A pointer must name a single parameter.")
		return
	}
	if expr.IsLiteral(n, param.IsBuiltin) {
		a.collect(a.p.SetLiteral(param.Eval(n, constants{})))
		return
	}
	a.p.Equation = &param.Expr{Node: n}
}

// minmax handles "lo | hi". Two literal sides make an independent interval.
func (a *assigner) minmax(lo, hi segment) {
	loEq, ok1 := a.branch(lo)
	hiEq, ok2 := a.branch(hi)
	if !ok1 || !ok2 {
		return
	}
	l, lok := loEq.(*param.Literal)
	h, hok := hiEq.(*param.Literal)
	if lok && hok {
		lv, ok1 := l.Value.(param.Interval)
		hv, ok2 := h.Value.(param.Interval)
		if !ok1 || !ok2 {
			a.errorf(diag.KindParameter, "Both sides of %s | %s must be numbers.", l.Text, h.Text)
			return
		}
		a.collect(a.p.Write(param.Interval{Min: lv.Min, Max: hv.Max, Dim: lv.Dim}))
		return
	}
	a.p.Equation = &param.MinMax{Lo: loEq, Hi: hiEq}
}

// branch parses one side of a min/max equation or the value of a piecewise
// clause. Literal branches are converted to base units here.
func (a *assigner) branch(g segment) (param.Equation, bool) {
	if g.text == "" {
		a.errorf(diag.KindSyntax, "Missing value in equation for %s.", a.p.ID)
		return nil, false
	}
	n, ok := a.parse(g)
	if !ok {
		return nil, false
	}
	return a.equation(n, g.text)
}

func (a *assigner) equation(n expr.Node, text string) (param.Equation, bool) {
	if id, ok := n.(*expr.Ident); ok && !expr.IsConstant(id.Name) {
		if a.p.Options != nil {
			return &param.Literal{Value: param.Option(id.Name), Text: id.Name}, true
		}
		return &param.Pointer{Target: id.Ref}, true
	}
	if !expr.IsLiteral(n, param.IsBuiltin) {
		return &param.Expr{Node: n}, true
	}
	v := param.Eval(n, constants{})
	if f, ok := v.(param.Failed); ok {
		a.errs = append(a.errs, f.Err.Clone().For(a.p.ID).At(a.pos, a.line))
		return nil, false
	}
	if iv, ok := v.(param.Interval); ok && iv.Dim.IsDimensionless() {
		u := a.p.Unit
		v = param.Interval{Min: u.ToBase(iv.Min), Max: u.ToBase(iv.Max), Dim: u.Dimension}
	}
	return &param.Literal{Value: v, Text: text}, true
}

// clauses parses one or more "{value if condition" pieces. A closing brace
// after each piece is optional.
func (a *assigner) clauses(g segment) []param.Clause {
	var out []param.Clause
	for _, piece := range splitTop(g, '{')[1:] {
		piece = piece.trim()
		piece.text = strings.TrimSpace(strings.TrimSuffix(piece.text, "}"))
		value, cond, err := expr.ParseClause(piece.text)
		if err != nil {
			a.errs = append(a.errs, rebase(err, a.pos, a.line, piece.col).For(a.p.ID))
			continue
		}
		eq, ok := a.equation(value, value.String())
		if !ok {
			continue
		}
		out = append(out, param.Clause{Value: eq, Cond: cond})
	}
	return out
}

// checkPiecewise enforces the rules that can only be checked once every
// clause has been read.
func (a *assigner) checkPiecewise(pw *param.Piecewise) {
	switch {
	case len(pw.Clauses) < 2:
		a.errorf(diag.KindParameter, "Piecewise parameters need at least two clauses.")
	case len(pw.Refs()) == 0:
		a.errorf(diag.KindParameter, "Piecewise parameters must be dependent on another parameter.")
	}
}
