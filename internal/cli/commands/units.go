package commands

import (
	"fmt"

	"github.com/careweather/oneil/internal/cli/output"
	"github.com/careweather/oneil/pkg/units"
	"github.com/spf13/cobra"
)

// NewUnitsCommand creates the units command.
func NewUnitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units [unit]...",
		Short: "Describe unit spellings",
		Long: `Show the dimension and conversion to base units of each unit spelling.
Compound spellings ("kg*m/s^2") and decibel wrappers ("dBmW") are accepted.
Without arguments every registered spelling is listed.`,
		Example: `  oneil units kW "kg*m/s^2" dBmW
  oneil units --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)

			var out []output.Unit
			if len(args) == 0 {
				for _, s := range units.Default.Symbols() {
					if u, ok := units.Default.Lookup(s); ok {
						out = append(out, output.NewUnit(s, u))
					}
				}
				return c.Renderer.RenderUnits(out)
			}

			failed := 0
			for _, s := range args {
				u, err := units.Parse(s)
				if err != nil {
					c.Renderer.Errorf("%v", err)
					failed++
					continue
				}
				out = append(out, output.NewUnit(s, u))
			}
			if err := c.Renderer.RenderUnits(out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d unit(s) could not be parsed", failed)
			}
			return nil
		},
	}

	return cmd
}
