package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// SQLiteChangeSetRepo implements ChangeSetRepo using a SQLite database.
type SQLiteChangeSetRepo struct {
	db db.DBTX
}

// NewSQLiteChangeSetRepo creates a new SQLiteChangeSetRepo.
func NewSQLiteChangeSetRepo(db db.DBTX) *SQLiteChangeSetRepo {
	return &SQLiteChangeSetRepo{db: db}
}

// Create inserts an open change set. The partial unique index on status
// rejects a second open row, which surfaces as ErrConflict.
func (r *SQLiteChangeSetRepo) Create(ctx context.Context, name string, at time.Time) (*domain.Session, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO change_sets (name, status, created_at) VALUES (?, 'open', ?)`, name, formatTime(at))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.Conflictf("a change set is already open")
		}
		return nil, fmt.Errorf("creating change set: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading change set id: %w", err)
	}
	return &domain.Session{ID: id, Name: name, Status: domain.SessionOpen, CreatedAt: at.UTC()}, nil
}

func (r *SQLiteChangeSetRepo) GetOpen(ctx context.Context) (*domain.Session, error) {
	var s domain.Session
	var status, created string
	var closed sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at, closed_at FROM change_sets WHERE status = 'open'`).
		Scan(&s.ID, &s.Name, &status, &created, &closed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("open change set: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning change set: %w", err)
	}
	s.Status = domain.SessionStatus(status)
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing change set created_at: %w", err)
	}
	s.ClosedAt = parseNullableTime(closed)
	return &s, nil
}

func (r *SQLiteChangeSetRepo) Close(ctx context.Context, id int64, status domain.SessionStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE change_sets SET status = ?, closed_at = ? WHERE id = ? AND status = 'open'`,
		string(status), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("closing change set: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("closing change set: %w", err)
	}
	if n == 0 {
		return domain.Conflictf("change set %d is not open", id)
	}
	return nil
}
