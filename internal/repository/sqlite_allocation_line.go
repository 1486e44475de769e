package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

const allocationLineColumns = `id, employee_id, budget_line_id, fund_code, source, account,
	cost_code_1, cost_code_2, cost_code_3, program_code`

// SQLiteAllocationLineRepo implements AllocationLineRepo using a SQLite database.
type SQLiteAllocationLineRepo struct {
	db      db.DBTX
	w       writer
	efforts *SQLiteEffortRepo
}

// NewSQLiteAllocationLineRepo creates a new SQLiteAllocationLineRepo.
func NewSQLiteAllocationLineRepo(db db.DBTX, journal Journal) *SQLiteAllocationLineRepo {
	return &SQLiteAllocationLineRepo{
		db:      db,
		w:       newWriter(db, journal, "allocation_lines"),
		efforts: NewSQLiteEffortRepo(db, journal),
	}
}

func (r *SQLiteAllocationLineRepo) Create(ctx context.Context, l *domain.AllocationLine) error {
	a := l.Accounting
	id, err := r.w.insert(ctx, "allocation line",
		`INSERT INTO allocation_lines (employee_id, budget_line_id, fund_code, source, account,
		 cost_code_1, cost_code_2, cost_code_3, program_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.EmployeeID, l.BudgetLineID,
		nullableString(a.FundCode), nullableString(a.Source), nullableString(a.Account),
		nullableString(a.CostCode1), nullableString(a.CostCode2), nullableString(a.CostCode3),
		nullableString(a.ProgramCode),
	)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r *SQLiteAllocationLineRepo) GetByID(ctx context.Context, id int64) (*domain.AllocationLine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+allocationLineColumns+` FROM allocation_lines WHERE id = ?`, id)
	l, err := scanAllocationLine(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("allocation line %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning allocation line: %w", err)
	}
	return l, nil
}

func (r *SQLiteAllocationLineRepo) List(ctx context.Context) ([]*domain.AllocationLine, error) {
	return r.list(ctx, `SELECT `+allocationLineColumns+` FROM allocation_lines ORDER BY id`)
}

func (r *SQLiteAllocationLineRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]*domain.AllocationLine, error) {
	return r.list(ctx, `SELECT `+allocationLineColumns+` FROM allocation_lines WHERE employee_id = ? ORDER BY id`, employeeID)
}

// Delete removes each effort row individually before the line itself so
// every removed row lands in the journal.
func (r *SQLiteAllocationLineRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	efforts, err := r.efforts.ListByLine(ctx, id)
	if err != nil {
		return err
	}
	for _, e := range efforts {
		if err := r.efforts.Delete(ctx, id, e.YearMonth); err != nil {
			return err
		}
	}
	return r.w.delete(ctx, "allocation line", id)
}

func (r *SQLiteAllocationLineRepo) list(ctx context.Context, query string, args ...any) ([]*domain.AllocationLine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing allocation lines: %w", err)
	}
	defer rows.Close()

	var out []*domain.AllocationLine
	for rows.Next() {
		l, err := scanAllocationLine(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning allocation line row: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocation lines: %w", err)
	}
	return out, nil
}

func scanAllocationLine(scan func(dest ...any) error) (*domain.AllocationLine, error) {
	var l domain.AllocationLine
	var fund, source, account, cc1, cc2, cc3, program sql.NullString
	if err := scan(&l.ID, &l.EmployeeID, &l.BudgetLineID,
		&fund, &source, &account, &cc1, &cc2, &cc3, &program); err != nil {
		return nil, err
	}
	l.Accounting = domain.Accounting{
		FundCode:    fund.String,
		Source:      source.String,
		Account:     account.String,
		CostCode1:   cc1.String,
		CostCode2:   cc2.String,
		CostCode3:   cc3.String,
		ProgramCode: program.String,
	}
	return &l, nil
}
