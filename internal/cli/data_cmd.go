package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/cli/formatter"
)

func newFixTotalsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fix-totals",
		Short: "Bring every employee's monthly total to 100% using Non-Project lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Reconcile.FixTotals(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatFixTotals(resp))
			return nil
		},
	}
}

func newGridCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "grid",
		Short: "Show allocation lines with effort by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.Query.Grid(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatGrid(g))
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit trail, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.History.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(entries, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries (0 for all)")
	return cmd
}
