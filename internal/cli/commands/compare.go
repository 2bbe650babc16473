package commands

import (
	"errors"

	"github.com/careweather/oneil/internal/cli/output"
	"github.com/careweather/oneil/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewCompareCommand creates the compare command.
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <model> [param]...",
		Short: "Compare parameters under two design stacks",
		Long: `Evaluate a model twice: once under the designs selected with --design and
--stack, and once under the alternate designs selected with --with and
--with-stack. For each parameter both values are shown with the ratio of
their maxima. Without parameters the performance parameters are compared.`,
		Example: `  # Compare the default design with a heavy variant
  oneil compare rover.on m_total P --with heavy.on

  # Compare two named stacks from oneil.yaml
  oneil compare rover.on --stack baseline --with-stack flight`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], args[1:])
		},
	}

	cmd.Flags().StringSlice("with", nil, "Alternate design file (repeatable, highest priority first)")
	cmd.Flags().String("with-stack", "", "Alternate named design stack from the configuration")

	return cmd
}

func runCompare(cmd *cobra.Command, path string, refs []string) error {
	c := NewCommandContext(cmd)

	baseDesigns, err := c.Designs(cmd)
	if err != nil {
		return err
	}
	altDesigns, err := c.designs(cmd, "with", "with-stack")
	if err != nil {
		return err
	}
	if len(altDesigns) == 0 {
		return errors.New("no alternate design: use --with or --with-stack")
	}

	// Each side gets its own loader, so the two model graphs share nothing.
	var base, alt *model.Model
	var g errgroup.Group
	g.Go(func() error {
		m, err := c.Build(path, baseDesigns)
		base = m
		return err
	})
	g.Go(func() error {
		m, err := c.Build(path, altDesigns)
		alt = m
		return err
	})
	if err := g.Wait(); err != nil {
		return c.failed(path, err)
	}

	if len(refs) == 0 {
		for _, p := range base.Summarize().Performance {
			refs = append(refs, p.ID)
		}
	}
	cmp, err := model.Compare(base, alt, refs)
	if err != nil {
		return c.failed(path, err)
	}
	return c.Renderer.RenderComparisons(output.NewComparisons(base, alt, cmp, c.Cfg.Sigfigs))
}
