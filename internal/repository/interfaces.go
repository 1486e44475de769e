package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/effort/internal/domain"
)

type GroupRepo interface {
	Create(ctx context.Context, g *domain.Group) error
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	GetByName(ctx context.Context, name string) (*domain.Group, error)
	List(ctx context.Context) ([]*domain.Group, error)
}

type EmployeeRepo interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	GetByName(ctx context.Context, name string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
	Update(ctx context.Context, e *domain.Employee) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	// GetNonProject returns the sentinel project, or ErrNotFound.
	GetNonProject(ctx context.Context) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
}

type BudgetLineRepo interface {
	Create(ctx context.Context, b *domain.BudgetLine) error
	GetByID(ctx context.Context, id int64) (*domain.BudgetLine, error)
	GetByCode(ctx context.Context, code string) (*domain.BudgetLine, error)
	List(ctx context.Context) ([]*domain.BudgetLine, error)
	ListByProject(ctx context.Context, projectID int64) ([]*domain.BudgetLine, error)
	Update(ctx context.Context, b *domain.BudgetLine) error
	// MaxNumericCode returns the largest all-digit code, or 0.
	MaxNumericCode(ctx context.Context) (int64, error)
}

type AllocationLineRepo interface {
	Create(ctx context.Context, l *domain.AllocationLine) error
	GetByID(ctx context.Context, id int64) (*domain.AllocationLine, error)
	List(ctx context.Context) ([]*domain.AllocationLine, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*domain.AllocationLine, error)
	// Delete removes the line together with its effort rows.
	Delete(ctx context.Context, id int64) error
}

// EffortScope selects which effort rows a month query covers.
type EffortScope int

const (
	ScopeAll EffortScope = iota
	ScopeLine
	ScopeEmployee
	ScopeBudgetLine
	ScopeProject
)

type EffortRepo interface {
	// Get returns the effort for a line and month, or ErrNotFound.
	Get(ctx context.Context, lineID int64, ym domain.YearMonth) (*domain.Effort, error)
	// Set upserts a percentage in (0, 100].
	Set(ctx context.Context, lineID int64, ym domain.YearMonth, pct float64) error
	// Delete removes the row if present.
	Delete(ctx context.Context, lineID int64, ym domain.YearMonth) error
	ListByLine(ctx context.Context, lineID int64) ([]*domain.Effort, error)
	List(ctx context.Context) ([]*domain.Effort, error)
	// Months returns the distinct months with effort in scope, ascending.
	Months(ctx context.Context, scope EffortScope, id int64) ([]domain.YearMonth, error)
}

// Cell is one allocation line joined with its context and, when present,
// one month of effort. Lines without effort yield a single cell with a nil
// Month.
type Cell struct {
	LineID       int64
	EmployeeID   int64
	Employee     string
	Group        string
	Internal     bool
	BudgetLineID int64
	Code         string
	BudgetLine   string
	ProjectID    int64
	Project      string
	NonProject   bool
	domain.Accounting
	Month      *domain.YearMonth
	Percentage float64
}

type ReportRepo interface {
	// Cells returns every allocation line crossed with its effort rows,
	// ordered by employee name, line id, year and month.
	Cells(ctx context.Context) ([]Cell, error)
}

type AuditRepo interface {
	Append(ctx context.Context, action domain.AuditAction, details map[string]any) (*domain.AuditEntry, error)
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
	// ReplaceAll overwrites the trail with entries, preserving ids.
	ReplaceAll(ctx context.Context, entries []*domain.AuditEntry) error
}

type MetaRepo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type ChangeSetRepo interface {
	Create(ctx context.Context, name string, at time.Time) (*domain.Session, error)
	// GetOpen returns the open change set, or ErrNotFound.
	GetOpen(ctx context.Context) (*domain.Session, error)
	Close(ctx context.Context, id int64, status domain.SessionStatus, at time.Time) error
}
