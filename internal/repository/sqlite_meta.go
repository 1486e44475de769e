package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
)

// Dataset metadata keys.
const (
	MetaRole       = "db_role"
	MetaBranchName = "branch_name"
	MetaSourceDB   = "source_db"
	MetaCreatedAt  = "created_at"
)

// SQLiteMetaRepo implements MetaRepo using a SQLite database.
type SQLiteMetaRepo struct {
	db db.DBTX
}

// NewSQLiteMetaRepo creates a new SQLiteMetaRepo.
func NewSQLiteMetaRepo(db db.DBTX) *SQLiteMetaRepo {
	return &SQLiteMetaRepo{db: db}
}

func (r *SQLiteMetaRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT value FROM _meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading meta %s: %w", key, err)
	}
	return v.String, true, nil
}

func (r *SQLiteMetaRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO _meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing meta %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteMetaRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM _meta WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting meta %s: %w", key, err)
	}
	return nil
}
