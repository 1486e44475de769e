package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// Result is what one fix-totals run changed.
type Result struct {
	Changes      []domain.EffortChange `json:"changes"`
	LinesCreated int                   `json:"lines_created"`
}

// Load reads the planner input through s.
func Load(ctx context.Context, s *repository.Store) (Input, error) {
	cells, err := s.Reports.Cells(ctx)
	if err != nil {
		return Input{}, err
	}
	employees, err := s.Employees.List(ctx)
	if err != nil {
		return Input{}, err
	}
	in := Input{Cells: cells, Windows: make(map[int64]domain.Window, len(employees))}
	for _, e := range employees {
		in.Windows[e.ID] = e.Window
	}

	np, err := s.Projects.GetNonProject(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Input{}, err
	}
	if np != nil {
		lines, err := s.BudgetLines.ListByProject(ctx, np.ID)
		if err != nil {
			return Input{}, err
		}
		if len(lines) > 0 {
			in.NonProjectBudgetLineID = lines[0].ID
		}
		in.NonProjectWindows = make(map[int64][]domain.Window, len(lines))
		for _, bl := range lines {
			in.NonProjectWindows[bl.ID] = []domain.Window{bl.Window, np.Window}
		}
	}
	return in, nil
}

// Apply creates the planned lines and writes every change. Percentages at
// or below the tolerance are deleted rather than stored.
func Apply(ctx context.Context, s *repository.Store, plan *Plan, policy Policy) (*Result, error) {
	tol := policy.tolerance().InexactFloat64()

	created := make(map[int64]int64, len(plan.NewLines))
	for _, nl := range plan.NewLines {
		line := &domain.AllocationLine{EmployeeID: nl.EmployeeID, BudgetLineID: nl.BudgetLineID}
		if err := s.AllocationLines.Create(ctx, line); err != nil {
			return nil, fmt.Errorf("creating Non-Project line for %s: %w", nl.Employee, err)
		}
		created[nl.EmployeeID] = line.ID
	}

	out := make([]domain.EffortChange, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		if c.LineID == 0 {
			id, ok := created[c.EmployeeID]
			if !ok {
				return nil, fmt.Errorf("change for %s targets a line that was not planned", c.Employee)
			}
			c.LineID = id
		}
		ym := domain.YearMonth{Year: c.Year, Month: c.Month}
		var err error
		if c.New <= tol {
			c.New = 0
			err = s.Efforts.Delete(ctx, c.LineID, ym)
		} else {
			err = s.Efforts.Set(ctx, c.LineID, ym, c.New)
		}
		if err != nil {
			return nil, fmt.Errorf("adjusting %s in %s: %w", c.Employee, ym, err)
		}
		out = append(out, c)
	}
	return &Result{Changes: out, LinesCreated: len(created)}, nil
}

// Run loads, plans and applies in one pass over s.
func Run(ctx context.Context, s *repository.Store, policy Policy) (*Result, error) {
	in, err := Load(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("loading effort: %w", err)
	}
	return Apply(ctx, s, Build(in, policy), policy)
}

// ParseTolerance accepts a decimal string such as "0.01".
func ParseTolerance(s string) (decimal.Decimal, error) {
	if s == "" {
		return DefaultTolerance, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, domain.NewValidationError("reconcile.tolerance", "tolerance must be a positive decimal, got %q", s)
	}
	return d, nil
}
