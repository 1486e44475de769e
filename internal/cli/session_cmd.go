package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/cli/formatter"
	"github.com/alexanderramin/effort/internal/contract"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Open, inspect, merge or discard the editing session",
	}

	cmd.AddCommand(
		newSessionOpenCmd(app),
		newSessionStatusCmd(app),
		newSessionMergeCmd(app),
		newSessionDiscardCmd(app),
	)

	return cmd
}

func newSessionOpenCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Start an editing session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Sessions.Open(cmd.Context(), contract.OpenSessionRequest{Name: name})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSession(s))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Session name (default edit-<timestamp>)")
	return cmd
}

func newSessionStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Sessions.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSessionStatus(st))
			return nil
		},
	}
}

func newSessionMergeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Commit the session's changes to the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Sessions.Merge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMerge(res))
			return nil
		},
	}
}

func newSessionDiscardCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "discard",
		Short: "Throw away every change made in the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.confirm(yes, "Discard all changes in the open session?"); err != nil {
				return err
			}
			res, err := app.Sessions.Discard(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDiscard(res))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
