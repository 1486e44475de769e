package service

import (
	"context"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
)

type SessionService interface {
	Open(ctx context.Context, req contract.OpenSessionRequest) (*domain.Session, error)
	Status(ctx context.Context) (*contract.SessionStatus, error)
	Merge(ctx context.Context) (*domain.MergeResult, error)
	Discard(ctx context.Context) (*domain.DiscardResult, error)
}

// EditService applies entity edits inside the open session.
type EditService interface {
	SetEffort(ctx context.Context, req contract.SetEffortRequest) error
	AddAllocationLine(ctx context.Context, req contract.AddAllocationLineRequest) (*domain.AllocationLine, error)
	RemoveAllocationLine(ctx context.Context, id int64) error
	AddGroup(ctx context.Context, req contract.AddGroupRequest) (*domain.Group, error)
	AddEmployee(ctx context.Context, req contract.AddEmployeeRequest) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, req contract.UpdateEmployeeRequest) (*domain.Employee, error)
	AddProject(ctx context.Context, req contract.AddProjectRequest) (*domain.Project, error)
	UpdateProject(ctx context.Context, req contract.UpdateProjectRequest) (*domain.Project, error)
	AddBudgetLine(ctx context.Context, req contract.AddBudgetLineRequest) (*domain.BudgetLine, error)
	UpdateBudgetLine(ctx context.Context, req contract.UpdateBudgetLineRequest) (*domain.BudgetLine, error)
	ReassignBudgetLine(ctx context.Context, req contract.ReassignBudgetLineRequest) (*domain.BudgetLine, error)
}

type ReconcileService interface {
	FixTotals(ctx context.Context) (*contract.FixTotalsResponse, error)
}

type HistoryService interface {
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

type BackupService interface {
	List(ctx context.Context) ([]contract.Backup, error)
	// Revert restores the named backup, or the newest when name is empty.
	Revert(ctx context.Context, name string) (*contract.Backup, error)
	Prune(ctx context.Context, keep int) (*contract.PruneResponse, error)
}

// QueryService reads through the open session when there is one.
type QueryService interface {
	Grid(ctx context.Context) (*contract.Grid, error)
	Groups(ctx context.Context) ([]contract.GroupView, error)
	Employees(ctx context.Context) ([]contract.EmployeeView, error)
	Projects(ctx context.Context) ([]contract.ProjectView, error)
	BudgetLines(ctx context.Context) ([]contract.BudgetLineView, error)
}

type SeedService interface {
	SeedFile(ctx context.Context, path string) (*contract.SeedResponse, error)
}
