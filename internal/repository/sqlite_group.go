package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// SQLiteGroupRepo implements GroupRepo using a SQLite database.
type SQLiteGroupRepo struct {
	db db.DBTX
	w  writer
}

// NewSQLiteGroupRepo creates a new SQLiteGroupRepo.
func NewSQLiteGroupRepo(db db.DBTX, journal Journal) *SQLiteGroupRepo {
	return &SQLiteGroupRepo{db: db, w: newWriter(db, journal, "groups")}
}

func (r *SQLiteGroupRepo) Create(ctx context.Context, g *domain.Group) error {
	id, err := r.w.insert(ctx, fmt.Sprintf("group %q", g.Name),
		`INSERT INTO groups (name, is_internal) VALUES (?, ?)`, g.Name, boolToInt(g.IsInternal))
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

func (r *SQLiteGroupRepo) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_internal FROM groups WHERE id = ?`, id)
	return scanGroup(row, fmt.Sprintf("group %d", id))
}

func (r *SQLiteGroupRepo) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_internal FROM groups WHERE name = ?`, name)
	return scanGroup(row, fmt.Sprintf("group %q", name))
}

func (r *SQLiteGroupRepo) List(ctx context.Context) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, is_internal FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		var g domain.Group
		var internal int
		if err := rows.Scan(&g.ID, &g.Name, &internal); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		g.IsInternal = intToBool(internal)
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

func scanGroup(row *sql.Row, what string) (*domain.Group, error) {
	var g domain.Group
	var internal int
	if err := row.Scan(&g.ID, &g.Name, &internal); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning group: %w", err)
	}
	g.IsInternal = intToBool(internal)
	return &g, nil
}
