package model

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/careweather/oneil/internal/dag"
	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
)

// Evaluate resolves every dependent parameter of the model, sub-models
// first. Parameters that are already resolved are left untouched, so
// evaluating twice without Reset changes nothing.
//
// The returned error lists each parameter whose own equation failed.
// Parameters that only inherit a failure keep it as their value but are not
// reported again.
func (m *Model) Evaluate() error {
	var errs diag.List
	m.walk(func(cur *Model) {
		errs = append(errs, cur.evaluateLocal()...)
	})
	return errs.Err()
}

// Reset clears every dependent parameter of the model and its sub-models.
func (m *Model) Reset() {
	m.walk(func(cur *Model) {
		for _, p := range cur.Params {
			p.Reset()
		}
	})
}

func (m *Model) evaluateLocal() diag.List {
	var errs diag.List
	e := env{m: m}

	for {
		g := m.dependencyGraph(true)
		nodes, err := g.TopologicalSort()
		if err == nil {
			m.logger.Debug("evaluating model",
				slog.String("model", m.Name),
				slog.Int("pending", g.NodeCount()),
				slog.Int("edges", g.EdgeCount()))
			for _, n := range nodes {
				if ferr := m.resolve(m.Params[n.ID], e); ferr != nil {
					errs = append(errs, ferr)
				}
			}
			return errs
		}

		var cycle *dag.CycleError
		if !errors.As(err, &cycle) {
			return append(errs, diag.Wrap(diag.KindParameter, err, "Failed to order parameters"))
		}
		// The cycle's members are now resolved to the error; the next
		// pass reports it through the first of them.
		m.failCycle(cycle.Path)
	}
}

// resolve computes p if needed and returns its error when the failure
// started in p.
func (m *Model) resolve(p *param.Parameter, e env) *diag.Error {
	if !p.Resolved() {
		_ = p.Calculate(e)
		m.logger.Debug("resolved parameter",
			slog.String("model", m.Name),
			slog.String("id", p.ID),
			slog.String("value", p.Display(4)))
		if p.Trace {
			m.trace(p, e)
		}
	}
	if p.Err != nil && p.Err.Param == p.ID && p.Err.Pos == p.Pos {
		return p.Err
	}
	return nil
}

func (m *Model) trace(p *param.Parameter, e env) {
	args := []any{slog.String("model", m.Name), slog.String("id", p.ID)}
	if p.Equation != nil {
		args = append(args, slog.String("equation", p.Equation.String()))
	}
	for _, ref := range p.Refs() {
		args = append(args, slog.String(ref, param.FormatValue(e.Lookup(expr.ParseQualifiedID(ref)), "", 4)))
	}
	args = append(args, slog.String("value", p.Display(4)))
	m.logger.Debug("trace", args...)
}

// failCycle writes a circular dependency error to every parameter on
// path. path follows dependency edges; the message follows references.
func (m *Model) failCycle(path []string) {
	refs := slices.Clone(path)
	slices.Reverse(refs)

	first := m.Params[refs[0]]
	cerr := diag.Newf(diag.KindParameter, "Circular dependency found in path: %s", strings.Join(refs, "=>")).
		For(first.ID).At(first.Pos, first.Source)

	for _, id := range refs[:len(refs)-1] {
		p := m.Params[id]
		if !p.Resolved() {
			_ = p.Write(param.Failed{Err: cerr})
		}
	}
}

// dependencyGraph links local parameters to the local parameters they
// reference. With pending set, only unresolved parameters get incoming
// edges.
func (m *Model) dependencyGraph(pending bool) *dag.Graph {
	g := dag.NewGraph()
	for _, id := range m.Order {
		g.AddNode(id, m.Params[id])
	}
	for _, id := range m.Order {
		p := m.Params[id]
		if pending && p.Resolved() {
			continue
		}
		for _, ref := range p.Refs() {
			if _, ok := m.Params[ref]; ok {
				_ = g.AddEdge(ref, id)
			}
		}
	}
	return g
}
