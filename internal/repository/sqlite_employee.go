package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

const employeeColumns = `id, name, group_id, salary, start_year, start_month, end_year, end_month`

// SQLiteEmployeeRepo implements EmployeeRepo using a SQLite database.
type SQLiteEmployeeRepo struct {
	db db.DBTX
	w  writer
}

// NewSQLiteEmployeeRepo creates a new SQLiteEmployeeRepo.
func NewSQLiteEmployeeRepo(db db.DBTX, journal Journal) *SQLiteEmployeeRepo {
	return &SQLiteEmployeeRepo{db: db, w: newWriter(db, journal, "employees")}
}

func (r *SQLiteEmployeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	args := append([]any{e.Name, e.GroupID, e.Salary}, windowArgs(e.Window)...)
	id, err := r.w.insert(ctx, fmt.Sprintf("employee %q", e.Name),
		`INSERT INTO employees (name, group_id, salary, start_year, start_month, end_year, end_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *SQLiteEmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	return r.scanEmployee(row, fmt.Sprintf("employee %d", id))
}

func (r *SQLiteEmployeeRepo) GetByName(ctx context.Context, name string) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE name = ?`, name)
	return r.scanEmployee(row, fmt.Sprintf("employee %q", name))
}

func (r *SQLiteEmployeeRepo) List(ctx context.Context) ([]*domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var out []*domain.Employee
	for rows.Next() {
		var e domain.Employee
		var w windowScan
		dest := append([]any{&e.ID, &e.Name, &e.GroupID, &e.Salary}, w.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning employee row: %w", err)
		}
		e.Window = w.window()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return out, nil
}

func (r *SQLiteEmployeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	args := append([]any{e.Name, e.GroupID, e.Salary}, windowArgs(e.Window)...)
	args = append(args, e.ID)
	return r.w.update(ctx, fmt.Sprintf("employee %q", e.Name), e.ID,
		`UPDATE employees SET name = ?, group_id = ?, salary = ?,
		 start_year = ?, start_month = ?, end_year = ?, end_month = ?
		 WHERE id = ?`, args...)
}

func (r *SQLiteEmployeeRepo) scanEmployee(row *sql.Row, what string) (*domain.Employee, error) {
	var e domain.Employee
	var w windowScan
	dest := append([]any{&e.ID, &e.Name, &e.GroupID, &e.Salary}, w.dest()...)
	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning employee: %w", err)
	}
	e.Window = w.window()
	return &e, nil
}
