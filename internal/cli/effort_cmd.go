package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/cli/formatter"
	"github.com/alexanderramin/effort/internal/contract"
)

func newEffortCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "effort",
		Short: "Set or clear monthly effort on an allocation line",
	}

	cmd.AddCommand(
		newEffortSetCmd(app),
		newEffortClearCmd(app),
	)

	return cmd
}

func setEffort(cmd *cobra.Command, app *App, line int64, month monthValue, pct float64) error {
	if month.ym == nil {
		return fmt.Errorf("--month is required")
	}
	ym := *month.ym
	req := contract.SetEffortRequest{LineID: line, Year: ym.Year, Month: ym.Month, Percentage: pct}
	if err := app.Edits.SetEffort(cmd.Context(), req); err != nil {
		return err
	}
	if pct == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared line %d in %s\n", line, ym)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Set line %d in %s to %s%%\n", line, ym, formatter.Pct(pct))
	}
	return nil
}

func newEffortSetCmd(app *App) *cobra.Command {
	var line int64
	var month monthValue
	var pct float64

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the effort percentage for one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEffort(cmd, app, line, month, pct)
		},
	}

	cmd.Flags().Int64Var(&line, "line", 0, "Allocation line ID")
	cmd.Flags().Var(&month, "month", "Month (YYYY-MM)")
	cmd.Flags().Float64Var(&pct, "pct", 0, "Effort percentage (0-100; 0 clears)")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("pct")

	return cmd
}

func newEffortClearCmd(app *App) *cobra.Command {
	var line int64
	var month monthValue

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the effort record for one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEffort(cmd, app, line, month, 0)
		},
	}

	cmd.Flags().Int64Var(&line, "line", 0, "Allocation line ID")
	cmd.Flags().Var(&month, "month", "Month (YYYY-MM)")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func newLineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Add or remove allocation lines",
	}

	cmd.AddCommand(
		newLineAddCmd(app),
		newLineRemoveCmd(app),
	)

	return cmd
}

func newLineAddCmd(app *App) *cobra.Command {
	var req contract.AddAllocationLineRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Allocate an employee to a budget line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.Edits.AddAllocationLine(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added allocation line %d: %s on %s\n", l.ID, req.Employee, req.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Employee, "employee", "", "Employee name (Last,First)")
	cmd.Flags().StringVar(&req.Code, "code", "", "Budget line code")
	accountingFlags(cmd, &req.Accounting)
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newLineRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete an allocation line and its effort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid allocation line ID %q", args[0])
			}
			if err := app.Edits.RemoveAllocationLine(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed allocation line %d\n", id)
			return nil
		},
	}
}
