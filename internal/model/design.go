package model

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/internal/parser"
	"github.com/careweather/oneil/pkg/units"
)

// ApplyDesigns layers design files onto m, highest priority first: when two
// files set the same parameter, the earlier one wins. Parameters and tests
// declared in a design file are added to the model. The model is then reset
// and evaluated again. On any error m is left as it was.
func (l *Loader) ApplyDesigns(m *Model, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	files := make([]*parser.File, 0, len(paths))
	for _, path := range paths {
		f, err := l.parser.ParseFile(path)
		if err != nil {
			return err
		}
		if len(f.Uses) > 0 || len(f.Imports) > 0 {
			e := diag.New(diag.KindModelLoading, "Design files cannot import models or functions.")
			e.Pos.File = path
			return e
		}
		files = append(files, f)
	}

	var (
		errs diag.List
		set  = make(map[string]bool)
		prev = m.snapshot()
	)
	for _, f := range files {
		for _, o := range f.Overrides {
			if set[o.Key()] {
				continue
			}
			set[o.Key()] = true
			if err := m.override(o); err != nil {
				errs = append(errs, flatten(err)...)
			}
		}
		for _, p := range f.Params {
			if set[p.ID] {
				continue
			}
			set[p.ID] = true
			m.declare(p)
		}
		m.Tests = append(m.Tests, f.Tests...)
	}
	if len(errs) > 0 {
		prev.restore()
		return errs.Err()
	}
	if err := m.CheckNamespace(); err != nil {
		prev.restore()
		return err
	}

	stems := make([]string, len(files))
	for i, f := range files {
		stems[i] = f.Name
	}
	name := strings.Join(stems, "@")
	if m.Design != DefaultDesign {
		name += "@" + m.Design
	}
	m.Design = name

	m.Reset()
	l.logger.Info("applied design",
		slog.String("model", m.Name),
		slog.String("design", m.Design),
		slog.Int("overrides", len(set)))
	return m.Evaluate()
}

// override replaces the parameter addressed by o with one that carries the
// same declaration and the new value or equation.
func (m *Model) override(o *parser.Override) error {
	target, err := m.Submodel(o.Target.Path...)
	if err != nil {
		e := diag.Newf(diag.KindModelLoading, "Design value %s addresses a missing sub-model.", o.Key())
		e.Cause = err
		return e.At(o.Pos, o.Source)
	}
	base, ok := target.Params[o.Target.ID]
	if !ok {
		return diag.Newf(diag.KindIdentifier, "Design value %s does not match any parameter of %s.", o.Key(), target.Name).
			At(o.Pos, o.Source)
	}

	p := param.New(base.ID, base.Name)
	p.Unit = base.Unit
	p.UnitSpelling = base.UnitSpelling
	p.Limits = base.Limits
	p.Options = base.Options
	p.Performance = base.Performance
	p.Trace = base.Trace || o.Trace
	p.Section = base.Section
	p.Note = base.Note
	if o.Note != "" {
		p.Note = o.Note
	}
	p.Pos = o.Pos
	p.Source = o.Source

	if o.Unit != nil {
		if o.Unit.Dimension != base.Unit.Dimension {
			return diag.Newf(diag.KindUnitEvaluation,
				"Design units (%s) do not match the units of %s: (%s).",
				units.Describe(o.Unit.Dimension), o.Key(), units.Describe(base.Unit.Dimension)).
				For(o.Key()).At(o.Pos, o.Source)
		}
		p.Unit = *o.Unit
		p.UnitSpelling = o.UnitSpelling
	}

	if err := o.Apply(p); err != nil {
		return err
	}
	target.Params[o.Target.ID] = p
	return nil
}

// declare adds a parameter declared in a design file, replacing one with
// the same id.
func (m *Model) declare(p *param.Parameter) {
	if _, exists := m.Params[p.ID]; !exists {
		m.Order = append(m.Order, p.ID)
	}
	m.Params[p.ID] = p
}

// snapshot records the parameter tables and tests of a model tree so a
// failed design can be undone. Parameters are replaced, never mutated, by
// overrides, so the tables alone are enough.
type snapshot []modelState

type modelState struct {
	m      *Model
	params map[string]*param.Parameter
	order  []string
	tests  []*parser.Test
}

func (m *Model) snapshot() snapshot {
	var s snapshot
	m.walk(func(cur *Model) {
		s = append(s, modelState{
			m:      cur,
			params: maps.Clone(cur.Params),
			order:  slices.Clone(cur.Order),
			tests:  slices.Clone(cur.Tests),
		})
	})
	return s
}

func (s snapshot) restore() {
	for _, st := range s {
		st.m.Params = st.params
		st.m.Order = st.order
		st.m.Tests = st.tests
	}
}
