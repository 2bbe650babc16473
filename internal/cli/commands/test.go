package commands

import (
	"fmt"
	"runtime"

	"github.com/careweather/oneil/internal/cli/output"
	"github.com/careweather/oneil/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewTestCommand creates the test command.
func NewTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <model>...",
		Short: "Run the tests of one or more models",
		Long: `Evaluate each model and run its tests and the tests of every sub-model.

Sub-model tests that declare inputs run only when the importing model binds
them on its "use" line; otherwise they are reported as skipped, and skipped
tests count as not passed. Each model file is evaluated on its own model
graph, concurrently.`,
		Example: `  # Test a model
  oneil test rover.on

  # Test several models under a design stack
  oneil test rover.on lander.on --stack flight`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, args)
		},
	}

	return cmd
}

type testOutcome struct {
	model  *model.Model
	report *model.TestReport
	err    error
}

func runTest(cmd *cobra.Command, paths []string) error {
	c := NewCommandContext(cmd)

	designs, err := c.Designs(cmd)
	if err != nil {
		return err
	}

	outcomes := make([]testOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			m, err := c.Build(path, designs)
			o := testOutcome{model: m, err: err}
			if m != nil {
				o.report = m.RunTests()
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	var reports []output.TestReport
	failures := 0
	for i, o := range outcomes {
		if o.model == nil {
			c.Renderer.Diagnostics(o.err)
			failures++
			continue
		}
		c.Record("test", o.model, o.report, o.err)

		rep := output.NewTestReport(o.model, o.report)
		if o.err != nil {
			for _, d := range output.Flatten(o.err) {
				rep.Errors = append(rep.Errors, output.FormatDiagnostic(d))
			}
			failures++
		} else if o.report.Passed < o.report.Total {
			failures++
		}
		reports = append(reports, rep)
		c.Logger.Debug("tested model", "path", paths[i], "passed", o.report.Passed, "total", o.report.Total)
	}

	if err := c.Renderer.RenderTestReports(reports); err != nil {
		return err
	}
	for _, rep := range reports {
		for _, res := range rep.Results {
			if res.Error != "" {
				c.Renderer.Errorf("%s", res.Error)
			}
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d model(s) failed", failures, len(paths))
	}
	return nil
}
