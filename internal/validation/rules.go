// Package validation holds the data invariants checked before writes:
// date-window containment, local PI eligibility and name uniqueness.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// Rules checks invariants against one store, normally the session workspace.
type Rules struct {
	s *repository.Store
}

func New(s *repository.Store) *Rules {
	return &Rules{s: s}
}

// EffortAllowed reports whether a line may carry effort in ym. The line's
// employee, budget line and project windows must all contain the month.
func (r *Rules) EffortAllowed(ctx context.Context, lineID int64, ym domain.YearMonth) error {
	if !ym.Valid() {
		return domain.NewValidationError("month", "invalid month %d-%02d", ym.Year, ym.Month)
	}
	line, err := r.s.AllocationLines.GetByID(ctx, lineID)
	if err != nil {
		return err
	}
	emp, err := r.s.Employees.GetByID(ctx, line.EmployeeID)
	if err != nil {
		return err
	}
	if !emp.Window.Contains(ym) {
		return domain.NewValidationError("month", "%s is outside employee %s's active window%s", ym, emp.Name, describe(emp.Window))
	}
	bl, err := r.s.BudgetLines.GetByID(ctx, line.BudgetLineID)
	if err != nil {
		return err
	}
	if !bl.Window.Contains(ym) {
		return domain.NewValidationError("month", "%s is outside budget line %s's window%s", ym, bl.Code, describe(bl.Window))
	}
	proj, err := r.s.Projects.GetByID(ctx, bl.ProjectID)
	if err != nil {
		return err
	}
	if !proj.Window.Contains(ym) {
		return domain.NewValidationError("month", "%s is outside project %s's window%s", ym, proj.Name, describe(proj.Window))
	}
	return nil
}

// EmployeeWindow rejects a window that would exclude recorded effort.
func (r *Rules) EmployeeWindow(ctx context.Context, employeeID int64, w domain.Window) error {
	return r.window(ctx, "employee", repository.ScopeEmployee, employeeID, w)
}

func (r *Rules) ProjectWindow(ctx context.Context, projectID int64, w domain.Window) error {
	return r.window(ctx, "project", repository.ScopeProject, projectID, w)
}

func (r *Rules) BudgetLineWindow(ctx context.Context, budgetLineID int64, w domain.Window) error {
	return r.window(ctx, "budget line", repository.ScopeBudgetLine, budgetLineID, w)
}

// Reassignment checks that moving a budget line under projectID keeps all
// of its effort inside the new project's window.
func (r *Rules) Reassignment(ctx context.Context, budgetLineID, projectID int64) error {
	proj, err := r.s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	months, err := r.s.Efforts.Months(ctx, repository.ScopeBudgetLine, budgetLineID)
	if err != nil {
		return err
	}
	return outside("project", proj.Window, months)
}

func (r *Rules) window(ctx context.Context, kind string, scope repository.EffortScope, id int64, w domain.Window) error {
	if !w.Valid() {
		return domain.NewValidationError("window", "%s window is invalid%s", kind, describe(w))
	}
	months, err := r.s.Efforts.Months(ctx, scope, id)
	if err != nil {
		return err
	}
	return outside(kind, w, months)
}

func outside(kind string, w domain.Window, months []domain.YearMonth) error {
	if w.Start != nil {
		var early []domain.YearMonth
		for _, ym := range months {
			if ym.Before(*w.Start) {
				early = append(early, ym)
			}
		}
		if len(early) > 0 {
			return domain.NewValidationError("start", "effort exists before %s start (%s): %s", kind, w.Start, domain.FormatMonths(early))
		}
	}
	if w.End != nil {
		var late []domain.YearMonth
		for _, ym := range months {
			if ym.After(*w.End) {
				late = append(late, ym)
			}
		}
		if len(late) > 0 {
			return domain.NewValidationError("end", "effort exists after %s end (%s): %s", kind, w.End, domain.FormatMonths(late))
		}
	}
	return nil
}

func describe(w domain.Window) string {
	switch {
	case w.Start != nil && w.End != nil:
		return fmt.Sprintf(" (%s to %s)", w.Start, w.End)
	case w.Start != nil:
		return fmt.Sprintf(" (from %s)", w.Start)
	case w.End != nil:
		return fmt.Sprintf(" (until %s)", w.End)
	default:
		return ""
	}
}

// LocalPI requires the employee to exist and belong to an internal group.
func (r *Rules) LocalPI(ctx context.Context, employeeID int64) error {
	emp, err := r.s.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	g, err := r.s.Groups.GetByID(ctx, emp.GroupID)
	if err != nil {
		return err
	}
	if !g.IsInternal {
		return domain.NewValidationError("local_pi", "local PI must be an internal employee: %s belongs to %s", emp.Name, g.Name)
	}
	return nil
}

// GroupChange rejects moving a project's local PI into an external group.
func (r *Rules) GroupChange(ctx context.Context, employeeID int64, g *domain.Group) error {
	if g.IsInternal {
		return nil
	}
	projects, err := r.s.Projects.List(ctx)
	if err != nil {
		return err
	}
	var led []string
	for _, p := range projects {
		if p.LocalPIID != nil && *p.LocalPIID == employeeID {
			led = append(led, p.Name)
		}
	}
	if len(led) > 0 {
		return domain.NewValidationError("group", "local PI of %s must stay in an internal group; %s is external",
			strings.Join(led, ", "), g.Name)
	}
	return nil
}

func (r *Rules) GroupNameFree(ctx context.Context, name string) error {
	_, err := r.s.Groups.GetByName(ctx, name)
	return taken(err, "name", "group %q already exists", name)
}

func (r *Rules) EmployeeNameFree(ctx context.Context, name string) error {
	_, err := r.s.Employees.GetByName(ctx, name)
	return taken(err, "name", "employee %q already exists", name)
}

func (r *Rules) ProjectNameFree(ctx context.Context, name string) error {
	_, err := r.s.Projects.GetByName(ctx, name)
	return taken(err, "name", "project %q already exists", name)
}

func (r *Rules) BudgetLineCodeFree(ctx context.Context, code string) error {
	_, err := r.s.BudgetLines.GetByCode(ctx, code)
	return taken(err, "code", "budget line code %q already exists", code)
}

// taken turns a successful lookup into a validation error.
func taken(lookupErr error, field, format string, args ...any) error {
	if lookupErr == nil {
		return domain.NewValidationError(field, format, args...)
	}
	if errors.Is(lookupErr, domain.ErrNotFound) {
		return nil
	}
	return lookupErr
}
