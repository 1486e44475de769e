package contract

import (
	"time"

	"github.com/alexanderramin/effort/internal/domain"
)

// SessionStatus describes the session state of a dataset for the UI.
type SessionStatus struct {
	Open    bool            `json:"open"`
	Mode    string          `json:"mode"`
	Dataset string          `json:"dataset"`
	Session *domain.Session `json:"session,omitempty"`
}

type FixTotalsResponse struct {
	RunID        string                `json:"run_id"`
	Changes      []domain.EffortChange `json:"changes"`
	LinesCreated int                   `json:"lines_created"`
}

type Backup struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type PruneResponse struct {
	Kept    int      `json:"kept"`
	Removed []string `json:"removed"`
}

// Grid is the spreadsheet view: one row per allocation line and one column
// per month that has effort anywhere in the dataset.
type Grid struct {
	Months []domain.YearMonth `json:"months"`
	Rows   []GridRow          `json:"rows"`
}

type GridRow struct {
	LineID     int64             `json:"allocation_line_id"`
	Employee   string            `json:"employee"`
	Group      string            `json:"group"`
	Project    string            `json:"project"`
	Code       string            `json:"code"`
	BudgetLine string            `json:"budget_line"`
	NonProject bool              `json:"is_nonproject"`
	Accounting domain.Accounting `json:"accounting"`
	// Effort holds one value per Months entry; zero means no record.
	Effort []float64 `json:"effort"`
}

type ErrorResponse struct {
	Error string            `json:"error"`
	Class domain.ErrorClass `json:"class"`
	Field string            `json:"field,omitempty"`
}

type GroupView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Internal bool   `json:"is_internal"`
}

func GroupViewOf(g *domain.Group) GroupView {
	return GroupView{ID: g.ID, Name: g.Name, Internal: g.IsInternal}
}

// EmployeeView carries the group name when it was resolved by the caller.
type EmployeeView struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	GroupID int64         `json:"group_id"`
	Group   string        `json:"group,omitempty"`
	Salary  float64       `json:"salary"`
	Window  domain.Window `json:"window"`
}

func EmployeeViewOf(e *domain.Employee) EmployeeView {
	return EmployeeView{ID: e.ID, Name: e.Name, GroupID: e.GroupID, Salary: e.Salary, Window: e.Window}
}

type ProjectView struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	LocalPIID    *int64        `json:"local_pi_id,omitempty"`
	LocalPI      string        `json:"local_pi,omitempty"`
	AdminGroupID *int64        `json:"admin_group_id,omitempty"`
	AdminGroup   string        `json:"admin_group,omitempty"`
	NonProject   bool          `json:"is_nonproject"`
	Window       domain.Window `json:"window"`
}

func ProjectViewOf(p *domain.Project) ProjectView {
	return ProjectView{
		ID:           p.ID,
		Name:         p.Name,
		LocalPIID:    p.LocalPIID,
		AdminGroupID: p.AdminGroupID,
		NonProject:   p.IsNonProject,
		Window:       p.Window,
	}
}

type BudgetLineView struct {
	ID              int64         `json:"id"`
	ProjectID       int64         `json:"project_id"`
	Project         string        `json:"project,omitempty"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	DisplayName     string        `json:"display_name,omitempty"`
	PersonnelBudget *float64      `json:"personnel_budget,omitempty"`
	Window          domain.Window `json:"window"`
}

func BudgetLineViewOf(b *domain.BudgetLine) BudgetLineView {
	return BudgetLineView{
		ID:              b.ID,
		ProjectID:       b.ProjectID,
		Code:            b.Code,
		Name:            b.Name,
		DisplayName:     b.DisplayName,
		PersonnelBudget: b.PersonnelBudget,
		Window:          b.Window,
	}
}

type AllocationLineView struct {
	ID           int64 `json:"id"`
	EmployeeID   int64 `json:"employee_id"`
	BudgetLineID int64 `json:"budget_line_id"`
	domain.Accounting
}

func AllocationLineViewOf(l *domain.AllocationLine) AllocationLineView {
	return AllocationLineView{ID: l.ID, EmployeeID: l.EmployeeID, BudgetLineID: l.BudgetLineID, Accounting: l.Accounting}
}

// SeedResponse counts what a seed file created.
type SeedResponse struct {
	Groups          int `json:"groups"`
	Employees       int `json:"employees"`
	Projects        int `json:"projects"`
	BudgetLines     int `json:"budget_lines"`
	AllocationLines int `json:"allocation_lines"`
	Efforts         int `json:"efforts"`
}
