package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// SQLiteAuditRepo implements AuditRepo using a SQLite database.
type SQLiteAuditRepo struct {
	db  db.DBTX
	now func() time.Time
}

// NewSQLiteAuditRepo creates a new SQLiteAuditRepo.
func NewSQLiteAuditRepo(db db.DBTX) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: db, now: time.Now}
}

func (r *SQLiteAuditRepo) Append(ctx context.Context, action domain.AuditAction, details map[string]any) (*domain.AuditEntry, error) {
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encoding audit details: %w", err)
	}
	ts := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (timestamp, action, details) VALUES (?, ?, ?)`,
		formatTime(ts), string(action), string(payload))
	if err != nil {
		return nil, fmt.Errorf("appending audit entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading audit entry id: %w", err)
	}
	return &domain.AuditEntry{ID: id, Timestamp: ts, Action: action, Details: details}, nil
}

func (r *SQLiteAuditRepo) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	query := `SELECT id, timestamp, action, details FROM audit_log ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var ts, action string
		var details sql.NullString
		if err := rows.Scan(&e.ID, &ts, &action, &details); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing audit timestamp: %w", err)
		}
		e.Action = domain.AuditAction(action)
		e.Details = map[string]any{}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("decoding audit details: %w", err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return out, nil
}

func (r *SQLiteAuditRepo) ReplaceAll(ctx context.Context, entries []*domain.AuditEntry) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audit_log`); err != nil {
		return fmt.Errorf("clearing audit log: %w", err)
	}
	for _, e := range entries {
		payload, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encoding audit details: %w", err)
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO audit_log (id, timestamp, action, details) VALUES (?, ?, ?, ?)`,
			e.ID, formatTime(e.Timestamp), string(e.Action), string(payload)); err != nil {
			return fmt.Errorf("copying audit entry %d: %w", e.ID, err)
		}
	}
	return nil
}
