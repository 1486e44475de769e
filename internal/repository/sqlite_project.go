package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

const projectColumns = `id, name, local_pi_id, admin_group_id, is_nonproject, start_year, start_month, end_year, end_month`

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
type SQLiteProjectRepo struct {
	db db.DBTX
	w  writer
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(db db.DBTX, journal Journal) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: db, w: newWriter(db, journal, "projects")}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	args := append([]any{p.Name, nullableInt64(p.LocalPIID), nullableInt64(p.AdminGroupID), boolToInt(p.IsNonProject)},
		windowArgs(p.Window)...)
	id, err := r.w.insert(ctx, fmt.Sprintf("project %q", p.Name),
		`INSERT INTO projects (name, local_pi_id, admin_group_id, is_nonproject, start_year, start_month, end_year, end_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return r.scanProject(row, fmt.Sprintf("project %d", id))
}

func (r *SQLiteProjectRepo) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE name = ? ORDER BY id LIMIT 1`, name)
	return r.scanProject(row, fmt.Sprintf("project %q", name))
}

func (r *SQLiteProjectRepo) GetNonProject(ctx context.Context) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE is_nonproject = 1 ORDER BY id LIMIT 1`)
	return r.scanProject(row, "non-project")
}

func (r *SQLiteProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p, err := r.scanFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return out, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	args := append([]any{p.Name, nullableInt64(p.LocalPIID), nullableInt64(p.AdminGroupID), boolToInt(p.IsNonProject)},
		windowArgs(p.Window)...)
	args = append(args, p.ID)
	return r.w.update(ctx, fmt.Sprintf("project %q", p.Name), p.ID,
		`UPDATE projects SET name = ?, local_pi_id = ?, admin_group_id = ?, is_nonproject = ?,
		 start_year = ?, start_month = ?, end_year = ?, end_month = ?
		 WHERE id = ?`, args...)
}

func (r *SQLiteProjectRepo) scanProject(row *sql.Row, what string) (*domain.Project, error) {
	p, err := r.scanFrom(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	return p, nil
}

func (r *SQLiteProjectRepo) scanFrom(scan func(dest ...any) error) (*domain.Project, error) {
	var p domain.Project
	var pi, admin sql.NullInt64
	var nonProject int
	var w windowScan
	dest := append([]any{&p.ID, &p.Name, &pi, &admin, &nonProject}, w.dest()...)
	if err := scan(dest...); err != nil {
		return nil, err
	}
	p.LocalPIID = int64Ptr(pi)
	p.AdminGroupID = int64Ptr(admin)
	p.IsNonProject = intToBool(nonProject)
	p.Window = w.window()
	return &p, nil
}
