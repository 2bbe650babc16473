package commands

import (
	"github.com/careweather/oneil/internal/cli/output"
	"github.com/careweather/oneil/internal/expr"
	"github.com/spf13/cobra"
)

// Dependents is the encoded result of the dependents command.
type Dependents struct {
	Ref        string         `json:"ref" yaml:"ref"`
	Dependents []output.Param `json:"dependents" yaml:"dependents"`
}

// NewDependentsCommand creates the dependents command.
func NewDependentsCommand() *cobra.Command {
	var transitive bool

	cmd := &cobra.Command{
		Use:   "dependents <model> <param>",
		Short: "List the parameters that depend on a parameter",
		Example: `  # Parameters computed directly from the battery capacity
  oneil dependents rover.on E.battery

  # Everything downstream of the mass
  oneil dependents rover.on m --transitive`,
		Args: cobra.ExactArgs(2),
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

			refs, err := m.Dependents(args[1], transitive)
			if err != nil {
				return c.failed(args[0], err)
			}

			out := Dependents{Ref: args[1], Dependents: []output.Param{}}
			for _, ref := range refs {
				p, err := m.Lookup(expr.ParseQualifiedID(ref))
				if err != nil {
					return err
				}
				out.Dependents = append(out.Dependents, output.NewParam(ref, p, c.Cfg.Sigfigs))
			}

			r := c.Renderer
			if r.Structured() {
				return r.Encode(out)
			}
			if len(out.Dependents) == 0 {
				r.Printf("Nothing depends on %s.\n", args[1])
				return nil
			}
			rows := make([][]string, 0, len(out.Dependents))
			for _, d := range out.Dependents {
				rows = append(rows, []string{d.ID, d.Name, d.Value})
			}
			r.Table([]string{"ID", "Name", "Value"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&transitive, "transitive", "t", false, "Include indirect dependents")

	return cmd
}
