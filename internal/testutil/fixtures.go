package testutil

import (
	"context"
	"testing"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// Employee options
type EmployeeOption func(*domain.Employee)

func WithEmployeeWindow(start, end *domain.YearMonth) EmployeeOption {
	return func(e *domain.Employee) {
		e.Window = domain.Window{Start: start, End: end}
	}
}

func WithSalary(s float64) EmployeeOption {
	return func(e *domain.Employee) {
		e.Salary = s
	}
}

// Project options
type ProjectOption func(*domain.Project)

func AsNonProject() ProjectOption {
	return func(p *domain.Project) {
		p.IsNonProject = true
	}
}

func WithProjectWindow(start, end *domain.YearMonth) ProjectOption {
	return func(p *domain.Project) {
		p.Window = domain.Window{Start: start, End: end}
	}
}

func WithLocalPI(id int64) ProjectOption {
	return func(p *domain.Project) {
		p.LocalPIID = &id
	}
}

// Budget line options
type BudgetLineOption func(*domain.BudgetLine)

func WithBudgetLineWindow(start, end *domain.YearMonth) BudgetLineOption {
	return func(b *domain.BudgetLine) {
		b.Window = domain.Window{Start: start, End: end}
	}
}

func WithDisplayName(name string) BudgetLineOption {
	return func(b *domain.BudgetLine) {
		b.DisplayName = name
	}
}

// Allocation line options
type LineOption func(*domain.AllocationLine)

func WithFundCode(code string) LineOption {
	return func(l *domain.AllocationLine) {
		l.FundCode = code
	}
}

func MustGroup(t *testing.T, s *repository.Store, name string, internal bool) *domain.Group {
	t.Helper()
	g := &domain.Group{Name: name, IsInternal: internal}
	if err := s.Groups.Create(context.Background(), g); err != nil {
		t.Fatalf("creating group %q: %v", name, err)
	}
	return g
}

func MustEmployee(t *testing.T, s *repository.Store, name string, groupID int64, opts ...EmployeeOption) *domain.Employee {
	t.Helper()
	e := &domain.Employee{Name: name, GroupID: groupID, Salary: domain.DefaultSalary}
	for _, opt := range opts {
		opt(e)
	}
	if err := s.Employees.Create(context.Background(), e); err != nil {
		t.Fatalf("creating employee %q: %v", name, err)
	}
	return e
}

func MustProject(t *testing.T, s *repository.Store, name string, opts ...ProjectOption) *domain.Project {
	t.Helper()
	p := &domain.Project{Name: name}
	for _, opt := range opts {
		opt(p)
	}
	if err := s.Projects.Create(context.Background(), p); err != nil {
		t.Fatalf("creating project %q: %v", name, err)
	}
	return p
}

func MustBudgetLine(t *testing.T, s *repository.Store, projectID int64, code string, opts ...BudgetLineOption) *domain.BudgetLine {
	t.Helper()
	b := &domain.BudgetLine{ProjectID: projectID, Code: code, Name: "Line " + code}
	for _, opt := range opts {
		opt(b)
	}
	if err := s.BudgetLines.Create(context.Background(), b); err != nil {
		t.Fatalf("creating budget line %q: %v", code, err)
	}
	return b
}

func MustLine(t *testing.T, s *repository.Store, employeeID, budgetLineID int64, opts ...LineOption) *domain.AllocationLine {
	t.Helper()
	l := &domain.AllocationLine{EmployeeID: employeeID, BudgetLineID: budgetLineID}
	for _, opt := range opts {
		opt(l)
	}
	if err := s.AllocationLines.Create(context.Background(), l); err != nil {
		t.Fatalf("creating allocation line: %v", err)
	}
	return l
}

func MustEffort(t *testing.T, s *repository.Store, lineID int64, year, month int, pct float64) {
	t.Helper()
	ym := domain.YearMonth{Year: year, Month: month}
	if err := s.Efforts.Set(context.Background(), lineID, ym, pct); err != nil {
		t.Fatalf("setting effort for line %d in %s: %v", lineID, ym, err)
	}
}

// World is a small dataset shared by many tests: one internal group, the
// Non-Project sentinel with budget line "NP", and a funded project with
// budget line "1001".
type World struct {
	Group        *domain.Group
	NonProject   *domain.Project
	NonProjectBL *domain.BudgetLine
	Project      *domain.Project
	ProjectBL    *domain.BudgetLine
}

func NewWorld(t *testing.T, s *repository.Store) *World {
	t.Helper()
	w := &World{}
	w.Group = MustGroup(t, s, "Ocean Science", true)
	w.NonProject = MustProject(t, s, "Non-Project", AsNonProject())
	w.NonProjectBL = MustBudgetLine(t, s, w.NonProject.ID, "NP")
	w.Project = MustProject(t, s, "Kelp Survey")
	w.ProjectBL = MustBudgetLine(t, s, w.Project.ID, "1001")
	return w
}
