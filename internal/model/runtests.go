package model

import (
	"fmt"
	"log/slog"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/internal/parser"
)

// TestResult is the outcome of one model test.
type TestResult struct {
	Model string
	Test  *parser.Test
	// Passed is false for failed, skipped and errored tests.
	Passed bool
	// Skipped is set when an importing model did not supply every input.
	Skipped bool
	Err     *diag.Error
}

// TestReport collects the results of RunTests.
type TestReport struct {
	Results []TestResult
	Passed  int
	Total   int
}

// Failed returns the results that did not pass.
func (r *TestReport) Failed() []TestResult {
	var out []TestResult
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// RunTests runs the tests of the model and of every sub-model, each model
// once. Inputs bound on a "use" line are evaluated in the importing model
// and passed to the sub-model's tests. The model must be evaluated first.
func (m *Model) RunTests() *TestReport {
	report := &TestReport{}
	visited := make(map[*Model]bool)

	var visit func(cur *Model, inputs map[string]param.Value)
	visit = func(cur *Model, inputs map[string]param.Value) {
		if visited[cur] {
			return
		}
		visited[cur] = true

		e := env{m: cur, inputs: inputs}
		for _, t := range cur.Tests {
			res := cur.runTest(t, e)
			report.Results = append(report.Results, res)
			report.Total++
			if res.Passed {
				report.Passed++
			}
		}

		for _, s := range cur.Symbols {
			sub := cur.Submodels[s]
			var bound map[string]param.Value
			if len(sub.Inputs) > 0 {
				bound = make(map[string]param.Value, len(sub.Inputs))
				for _, b := range sub.Inputs {
					bound[b.Input] = e.Lookup(b.Ref)
				}
			}
			visit(sub.Model, bound)
		}
	}
	visit(m, nil)

	m.logger.Info("tests complete",
		slog.String("model", m.Name),
		slog.String("design", m.Design),
		slog.Int("passed", report.Passed),
		slog.Int("total", report.Total))
	return report
}

func (m *Model) runTest(t *parser.Test, e env) TestResult {
	res := TestResult{Model: m.Name, Test: t}
	for _, in := range t.Inputs {
		if _, ok := e.inputs[in]; !ok {
			res.Skipped = true
			return res
		}
	}

	switch v := param.Eval(t.Expr, e).(type) {
	case param.Bool:
		res.Passed = bool(v)
	case param.Failed:
		err := v.Err.Clone().WithNote("in test " + t.Text)
		if err.Pos.IsValid() {
			err.WithNote(fmt.Sprintf("raised at %s", err.Pos))
		}
		err.Pos, err.Source = t.Pos, t.Source
		res.Err = err
	default:
		res.Err = diag.New(diag.KindParameter,
			fmt.Sprintf("Test %s did not evaluate to true or false.", t.Text)).At(t.Pos, t.Source)
	}
	if t.Trace {
		m.logger.Debug("trace test",
			slog.String("model", m.Name),
			slog.String("test", t.Text),
			slog.Bool("passed", res.Passed))
	}
	return res
}
