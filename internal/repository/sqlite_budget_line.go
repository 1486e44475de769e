package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

const budgetLineColumns = `id, project_id, budget_line_code, name, display_name,
	start_year, start_month, end_year, end_month, personnel_budget`

// SQLiteBudgetLineRepo implements BudgetLineRepo using a SQLite database.
type SQLiteBudgetLineRepo struct {
	db db.DBTX
	w  writer
}

// NewSQLiteBudgetLineRepo creates a new SQLiteBudgetLineRepo.
func NewSQLiteBudgetLineRepo(db db.DBTX, journal Journal) *SQLiteBudgetLineRepo {
	return &SQLiteBudgetLineRepo{db: db, w: newWriter(db, journal, "budget_lines")}
}

func (r *SQLiteBudgetLineRepo) Create(ctx context.Context, b *domain.BudgetLine) error {
	args := []any{b.ProjectID, b.Code, nullableString(b.Name), nullableString(b.DisplayName)}
	args = append(args, windowArgs(b.Window)...)
	args = append(args, nullableFloat(b.PersonnelBudget))
	id, err := r.w.insert(ctx, fmt.Sprintf("budget line %q", b.Code),
		`INSERT INTO budget_lines (project_id, budget_line_code, name, display_name,
		 start_year, start_month, end_year, end_month, personnel_budget)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r *SQLiteBudgetLineRepo) GetByID(ctx context.Context, id int64) (*domain.BudgetLine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetLineColumns+` FROM budget_lines WHERE id = ?`, id)
	return r.scanBudgetLine(row, fmt.Sprintf("budget line %d", id))
}

func (r *SQLiteBudgetLineRepo) GetByCode(ctx context.Context, code string) (*domain.BudgetLine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetLineColumns+` FROM budget_lines WHERE budget_line_code = ?`, code)
	return r.scanBudgetLine(row, fmt.Sprintf("budget line %q", code))
}

func (r *SQLiteBudgetLineRepo) List(ctx context.Context) ([]*domain.BudgetLine, error) {
	return r.list(ctx, `SELECT `+budgetLineColumns+` FROM budget_lines ORDER BY budget_line_code`)
}

func (r *SQLiteBudgetLineRepo) ListByProject(ctx context.Context, projectID int64) ([]*domain.BudgetLine, error) {
	return r.list(ctx, `SELECT `+budgetLineColumns+` FROM budget_lines WHERE project_id = ? ORDER BY id`, projectID)
}

func (r *SQLiteBudgetLineRepo) Update(ctx context.Context, b *domain.BudgetLine) error {
	args := []any{b.ProjectID, b.Code, nullableString(b.Name), nullableString(b.DisplayName)}
	args = append(args, windowArgs(b.Window)...)
	args = append(args, nullableFloat(b.PersonnelBudget), b.ID)
	return r.w.update(ctx, fmt.Sprintf("budget line %q", b.Code), b.ID,
		`UPDATE budget_lines SET project_id = ?, budget_line_code = ?, name = ?, display_name = ?,
		 start_year = ?, start_month = ?, end_year = ?, end_month = ?, personnel_budget = ?
		 WHERE id = ?`, args...)
}

func (r *SQLiteBudgetLineRepo) MaxNumericCode(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(CAST(budget_line_code AS INTEGER)) FROM budget_lines
		 WHERE budget_line_code <> '' AND budget_line_code NOT GLOB '*[^0-9]*'`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("finding max budget line code: %w", err)
	}
	return max.Int64, nil
}

func (r *SQLiteBudgetLineRepo) list(ctx context.Context, query string, args ...any) ([]*domain.BudgetLine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing budget lines: %w", err)
	}
	defer rows.Close()

	var out []*domain.BudgetLine
	for rows.Next() {
		b, err := r.scanFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning budget line row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budget lines: %w", err)
	}
	return out, nil
}

func (r *SQLiteBudgetLineRepo) scanBudgetLine(row *sql.Row, what string) (*domain.BudgetLine, error) {
	b, err := r.scanFrom(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning budget line: %w", err)
	}
	return b, nil
}

func (r *SQLiteBudgetLineRepo) scanFrom(scan func(dest ...any) error) (*domain.BudgetLine, error) {
	var b domain.BudgetLine
	var name, display sql.NullString
	var budget sql.NullFloat64
	var w windowScan
	dest := append([]any{&b.ID, &b.ProjectID, &b.Code, &name, &display}, w.dest()...)
	dest = append(dest, &budget)
	if err := scan(dest...); err != nil {
		return nil, err
	}
	b.Name = name.String
	b.DisplayName = display.String
	b.Window = w.window()
	b.PersonnelBudget = floatPtr(budget)
	return &b, nil
}
