package commands

import (
	"github.com/careweather/oneil/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	var levels int

	cmd := &cobra.Command{
		Use:   "tree <model> <param>...",
		Short: "Show the dependency tree of parameters",
		Long: `Show, for each parameter, the parameters and constants its value was
computed from, recursively. Parameters of sub-models are addressed as
id.symbol.`,
		Example: `  # Full tree of the total mass
  oneil tree rover.on m_total

  # Only two levels, for a sub-model parameter
  oneil tree rover.on P.battery --levels 2`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)

			designs, err := c.Designs(cmd)
			if err != nil {
				return err
			}
			m, err := c.Build(args[0], designs)
			if m == nil {
				return c.failed(args[0], err)
			}
			if err != nil {
				c.Renderer.Diagnostics(err)
			}

			nodes, err := m.Tree(args[1:], levels)
			if err != nil {
				return c.failed(args[0], err)
			}
			trees := make([]output.Tree, len(nodes))
			for i, n := range nodes {
				trees[i] = output.NewTree(n, c.Cfg.Sigfigs)
			}
			return c.Renderer.RenderTrees(trees)
		},
	}

	cmd.Flags().IntVarP(&levels, "levels", "l", 0, "Maximum depth of the tree (0 for no limit)")

	return cmd
}
