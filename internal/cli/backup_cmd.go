package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/cli/formatter"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "List, restore or prune pre-merge backups",
	}

	cmd.AddCommand(
		newBackupListCmd(app),
		newBackupRevertCmd(app),
		newBackupPruneCmd(app),
	)

	return cmd
}

func newBackupListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.Backups.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBackups(list, app.now()))
			return nil
		},
	}
}

func newBackupRevertCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "revert [NAME]",
		Short: "Restore the dataset from a backup (default newest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			target := name
			if target == "" {
				target = "the newest backup"
			}
			if err := app.confirm(yes, fmt.Sprintf("Replace the dataset with %s?", target)); err != nil {
				return err
			}
			b, err := app.Backups.Revert(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", formatter.Bold(b.Name))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newBackupPruneCmd(app *App) *cobra.Command {
	var keep int
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.confirm(yes, "Delete older backups?"); err != nil {
				return err
			}
			resp, err := app.Backups.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			for _, name := range resp.Removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Kept %d backup(s), removed %d\n", resp.Kept, len(resp.Removed))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Backups to keep (default from config)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
