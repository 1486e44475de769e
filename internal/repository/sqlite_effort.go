package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// SQLiteEffortRepo implements EffortRepo using a SQLite database.
type SQLiteEffortRepo struct {
	db db.DBTX
	w  writer
}

// NewSQLiteEffortRepo creates a new SQLiteEffortRepo.
func NewSQLiteEffortRepo(db db.DBTX, journal Journal) *SQLiteEffortRepo {
	return &SQLiteEffortRepo{db: db, w: newWriter(db, journal, "efforts")}
}

func (r *SQLiteEffortRepo) Get(ctx context.Context, lineID int64, ym domain.YearMonth) (*domain.Effort, error) {
	var e domain.Effort
	err := r.db.QueryRowContext(ctx,
		`SELECT id, allocation_line_id, year, month, percentage FROM efforts
		 WHERE allocation_line_id = ? AND year = ? AND month = ?`, lineID, ym.Year, ym.Month).
		Scan(&e.ID, &e.AllocationLineID, &e.Year, &e.Month, &e.Percentage)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("effort for line %d in %s: %w", lineID, ym, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning effort: %w", err)
	}
	return &e, nil
}

// Set is an insert when the cell is empty and an update otherwise, so the
// journal sees the same operation kinds as any other table.
func (r *SQLiteEffortRepo) Set(ctx context.Context, lineID int64, ym domain.YearMonth, pct float64) error {
	what := fmt.Sprintf("effort for line %d in %s", lineID, ym)
	existing, err := r.Get(ctx, lineID, ym)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing == nil {
		_, err := r.w.insert(ctx, what,
			`INSERT INTO efforts (allocation_line_id, year, month, percentage) VALUES (?, ?, ?, ?)`,
			lineID, ym.Year, ym.Month, pct)
		return err
	}
	return r.w.update(ctx, what, existing.ID,
		`UPDATE efforts SET percentage = ? WHERE id = ?`, pct, existing.ID)
}

func (r *SQLiteEffortRepo) Delete(ctx context.Context, lineID int64, ym domain.YearMonth) error {
	existing, err := r.Get(ctx, lineID, ym)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return r.w.delete(ctx, fmt.Sprintf("effort for line %d in %s", lineID, ym), existing.ID)
}

func (r *SQLiteEffortRepo) ListByLine(ctx context.Context, lineID int64) ([]*domain.Effort, error) {
	return r.list(ctx, `SELECT id, allocation_line_id, year, month, percentage FROM efforts
		WHERE allocation_line_id = ? ORDER BY year, month`, lineID)
}

func (r *SQLiteEffortRepo) List(ctx context.Context) ([]*domain.Effort, error) {
	return r.list(ctx, `SELECT id, allocation_line_id, year, month, percentage FROM efforts
		ORDER BY allocation_line_id, year, month`)
}

var monthScopes = map[EffortScope]string{
	ScopeAll: `SELECT DISTINCT e.year, e.month FROM efforts e ORDER BY e.year, e.month`,
	ScopeLine: `SELECT DISTINCT e.year, e.month FROM efforts e
		WHERE e.allocation_line_id = ? ORDER BY e.year, e.month`,
	ScopeEmployee: `SELECT DISTINCT e.year, e.month FROM efforts e
		JOIN allocation_lines al ON al.id = e.allocation_line_id
		WHERE al.employee_id = ? ORDER BY e.year, e.month`,
	ScopeBudgetLine: `SELECT DISTINCT e.year, e.month FROM efforts e
		JOIN allocation_lines al ON al.id = e.allocation_line_id
		WHERE al.budget_line_id = ? ORDER BY e.year, e.month`,
	ScopeProject: `SELECT DISTINCT e.year, e.month FROM efforts e
		JOIN allocation_lines al ON al.id = e.allocation_line_id
		JOIN budget_lines bl ON bl.id = al.budget_line_id
		WHERE bl.project_id = ? ORDER BY e.year, e.month`,
}

func (r *SQLiteEffortRepo) Months(ctx context.Context, scope EffortScope, id int64) ([]domain.YearMonth, error) {
	query, ok := monthScopes[scope]
	if !ok {
		return nil, fmt.Errorf("unknown effort scope %d", scope)
	}
	var args []any
	if scope != ScopeAll {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing effort months: %w", err)
	}
	defer rows.Close()

	var out []domain.YearMonth
	for rows.Next() {
		var ym domain.YearMonth
		if err := rows.Scan(&ym.Year, &ym.Month); err != nil {
			return nil, fmt.Errorf("scanning effort month: %w", err)
		}
		out = append(out, ym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating effort months: %w", err)
	}
	return out, nil
}

func (r *SQLiteEffortRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Effort, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing efforts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Effort
	for rows.Next() {
		var e domain.Effort
		if err := rows.Scan(&e.ID, &e.AllocationLineID, &e.Year, &e.Month, &e.Percentage); err != nil {
			return nil, fmt.Errorf("scanning effort row: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating efforts: %w", err)
	}
	return out, nil
}
