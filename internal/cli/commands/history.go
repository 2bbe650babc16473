package commands

import (
	"errors"
	"path/filepath"

	"github.com/careweather/oneil/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		modelPath string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded evaluation runs",
		Long: `List the runs recorded by eval, test and watch, most recent first, or show
one run with the performance values it recorded.`,
		Example: `  # Last 20 runs
  oneil history

  # Runs of one model
  oneil history --model rover.on

  # One run with its values
  oneil history 3f6c1a2e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)

			store, cleanup, err := c.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()
			if store == nil {
				return errors.New("run history is disabled")
			}

			if len(args) == 1 {
				run, err := store.GetRun(args[0])
				if err != nil {
					return err
				}
				values, err := store.GetRunValues(run.ID)
				if err != nil {
					return err
				}
				return c.Renderer.RenderRun(output.NewRun(run, values))
			}

			if modelPath != "" {
				if modelPath, err = filepath.Abs(modelPath); err != nil {
					return err
				}
			}
			runs, err := store.ListRuns(modelPath, limit)
			if err != nil {
				return err
			}
			out := make([]output.Run, 0, len(runs))
			for _, run := range runs {
				out = append(out, output.NewRun(run, nil))
			}
			return c.Renderer.RenderRuns(out)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "Only show runs of this model file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}
