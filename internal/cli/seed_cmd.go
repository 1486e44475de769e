package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Load a YAML or JSON dataset into an empty store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Seed.SeedFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Seeded %d group(s), %d employee(s), %d project(s), %d budget line(s), %d allocation line(s), %d effort record(s)\n",
				resp.Groups, resp.Employees, resp.Projects, resp.BudgetLines, resp.AllocationLines, resp.Efforts)
			return nil
		},
	}
}
