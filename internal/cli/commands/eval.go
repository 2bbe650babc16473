package commands

import (
	"github.com/careweather/oneil/internal/cli/output"
	"github.com/careweather/oneil/internal/model"
	"github.com/careweather/oneil/internal/param"
	"github.com/spf13/cobra"
)

// EvalOptions holds options for the eval command.
type EvalOptions struct {
	All   bool
	Exprs []string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval <model>",
		Short: "Evaluate a model and show its performance parameters",
		Long: `Load a model and every model it imports, evaluate all parameters and run
the model's tests.

Performance parameters (declared with a leading $) are listed by default.
Design files given with --design or a named --stack are applied first.`,
		Example: `  # Evaluate a model
  oneil eval rover.on

  # Show every parameter
  oneil eval rover.on --all

  # Apply design overrides, highest priority first
  oneil eval rover.on --design heavy.on --design base.on

  # Evaluate expressions against the built model
  oneil eval rover.on -e "m*g" -e "P.battery/P"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Show every parameter, not only performance parameters")
	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "Evaluate an expression against the model (repeatable)")

	return cmd
}

func runEval(cmd *cobra.Command, path string, opts *EvalOptions) error {
	c := NewCommandContext(cmd)

	designs, err := c.Designs(cmd)
	if err != nil {
		return err
	}
	m, err := c.Build(path, designs)
	if m == nil {
		return c.failed(path, err)
	}
	return c.renderEval(m, err, opts, "eval")
}

// renderEval runs the tests of a built model, records the run and renders
// the summary. evalErr is the error the model was built with.
func (c *CommandContext) renderEval(m *model.Model, evalErr error, opts *EvalOptions, command string) error {
	report := m.RunTests()
	runID := c.Record(command, m, report, evalErr)

	summary := output.NewSummary(m, report, opts.All, c.Cfg.Sigfigs)
	summary.RunID = runID
	for _, e := range opts.Exprs {
		summary.Queries = append(summary.Queries, query(m, e, c.Cfg.Sigfigs))
	}
	if err := c.Renderer.RenderSummary(summary); err != nil {
		return err
	}

	if evalErr != nil {
		return c.failed(m.Path, evalErr)
	}
	for _, res := range report.Failed() {
		if res.Err != nil {
			c.Renderer.Diagnostics(res.Err)
		}
	}
	return nil
}

func query(m *model.Model, e string, sigfigs int) output.Query {
	q := output.Query{Expr: e}
	v, err := m.Eval(e)
	if err != nil {
		q.Error = err.Error()
		return q
	}
	q.Value = param.FormatValue(v, "", sigfigs)
	return q
}
