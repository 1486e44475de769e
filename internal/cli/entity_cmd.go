package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/contract"
)

func newGroupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}
	cmd.AddCommand(newGroupAddCmd(app))
	return cmd
}

func newGroupAddCmd(app *App) *cobra.Command {
	var internal bool

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.Edits.AddGroup(cmd.Context(), contract.AddGroupRequest{Name: args[0], Internal: internal})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%d)\n", g.Name, g.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&internal, "internal", false, "Group belongs to the organization")
	return cmd
}

func newEmployeeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Manage employees",
	}
	cmd.AddCommand(
		newEmployeeAddCmd(app),
		newEmployeeUpdateCmd(app),
	)
	return cmd
}

func newEmployeeAddCmd(app *App) *cobra.Command {
	var req contract.AddEmployeeRequest
	var salary float64
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Window = window.input()
			req.Salary = floatFlag(cmd, "salary", salary)
			e, err := app.Edits.AddEmployee(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created employee %s (%d)\n", e.Name, e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Last, "last", "", "Last name")
	cmd.Flags().StringVar(&req.First, "first", "", "First name")
	cmd.Flags().StringVar(&req.Middle, "middle", "", "Middle name or initial")
	cmd.Flags().StringVar(&req.Group, "group", "", "Group name")
	cmd.Flags().Float64Var(&salary, "salary", 0, "Annual salary (default 120000)")
	window.register(cmd)
	_ = cmd.MarkFlagRequired("last")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func newEmployeeUpdateCmd(app *App) *cobra.Command {
	var group string
	var salary float64
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change an employee's group, salary or window",
		Long:  "Change an employee's group, salary or window. Giving --start or --end replaces both bounds.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := window.update(cmd)
			req := contract.UpdateEmployeeRequest{
				Name:   args[0],
				Group:  stringFlag(cmd, "group", group),
				Salary: floatFlag(cmd, "salary", salary),
				Window: w,
			}
			e, err := app.Edits.UpdateEmployee(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated employee %s\n", e.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Group name")
	cmd.Flags().Float64Var(&salary, "salary", 0, "Annual salary")
	window.register(cmd)
	return cmd
}

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectUpdateCmd(app),
	)
	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var req contract.AddProjectRequest
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			req.Window = window.input()
			p, err := app.Edits.AddProject(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%d)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.LocalPI, "pi", "", "Local PI (employee name)")
	cmd.Flags().StringVar(&req.AdminGroup, "admin-group", "", "Administering group")
	cmd.Flags().BoolVar(&req.NonProject, "nonproject", false, "Mark as the Non-Project sentinel")
	window.register(cmd)
	return cmd
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, s)
	}
	return id, nil
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var name, pi, adminGroup string
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a project's name, PI, admin group or window",
		Long:  "Change a project's name, PI, admin group or window. An empty --pi or --admin-group clears the link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project", args[0])
			if err != nil {
				return err
			}
			w := window.update(cmd)
			req := contract.UpdateProjectRequest{
				ID:         id,
				Name:       stringFlag(cmd, "name", name),
				LocalPI:    stringFlag(cmd, "pi", pi),
				AdminGroup: stringFlag(cmd, "admin-group", adminGroup),
				Window:     w,
			}
			p, err := app.Edits.UpdateProject(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (%d)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&pi, "pi", "", "Local PI (employee name)")
	cmd.Flags().StringVar(&adminGroup, "admin-group", "", "Administering group")
	window.register(cmd)
	return cmd
}

func newBudgetLineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budget-line",
		Aliases: []string{"bl"},
		Short:   "Manage budget lines",
	}
	cmd.AddCommand(
		newBudgetLineAddCmd(app),
		newBudgetLineUpdateCmd(app),
		newBudgetLineReassignCmd(app),
	)
	return cmd
}

func newBudgetLineAddCmd(app *App) *cobra.Command {
	var req contract.AddBudgetLineRequest
	var budget float64
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a budget line under a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Window = window.input()
			req.PersonnelBudget = floatFlag(cmd, "budget", budget)
			b, err := app.Edits.AddBudgetLine(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created budget line %s (%s)\n", b.Code, b.Name)
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.ProjectID, "project", 0, "Project ID")
	cmd.Flags().StringVar(&req.Code, "code", "", "Budget line code (default next numeric code)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Name (default project name)")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "Display name")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Personnel budget")
	window.register(cmd)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newBudgetLineUpdateCmd(app *App) *cobra.Command {
	var displayName string
	var budget float64
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "update CODE",
		Short: "Change a budget line's display name, budget or window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := window.update(cmd)
			req := contract.UpdateBudgetLineRequest{
				Code:            args[0],
				DisplayName:     stringFlag(cmd, "display-name", displayName),
				PersonnelBudget: floatFlag(cmd, "budget", budget),
				Window:          w,
			}
			b, err := app.Edits.UpdateBudgetLine(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated budget line %s\n", b.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Personnel budget")
	window.register(cmd)
	return cmd
}

func newBudgetLineReassignCmd(app *App) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "reassign CODE",
		Short: "Move a budget line to another project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.ReassignBudgetLineRequest{Code: args[0], ProjectID: projectID}
			b, err := app.Edits.ReassignBudgetLine(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget line %s now belongs to project %d\n", b.Code, b.ProjectID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "Target project ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
