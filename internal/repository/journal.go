package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// Journal receives every write made to an entity table.
type Journal interface {
	RecordMutation(ctx context.Context, m domain.Mutation) error
}

// NopJournal discards mutations. Branch sessions use it because the branch
// file itself is the isolation boundary.
type NopJournal struct{}

func (NopJournal) RecordMutation(context.Context, domain.Mutation) error { return nil }

// SQLiteJournalRepo appends mutations to the open change set's journal.
type SQLiteJournalRepo struct {
	db db.DBTX
}

// NewSQLiteJournalRepo creates a journal bound to the given handle. Writes
// must share the handle's transaction so the journal row commits or rolls
// back together with the change it describes.
func NewSQLiteJournalRepo(db db.DBTX) *SQLiteJournalRepo {
	return &SQLiteJournalRepo{db: db}
}

// RecordMutation appends m under the next sequence number of the open change
// set. It does nothing when no change set is open.
func (r *SQLiteJournalRepo) RecordMutation(ctx context.Context, m domain.Mutation) error {
	if err := CheckImage(m.Table, m.Before); err != nil {
		return err
	}
	if err := CheckImage(m.Table, m.After); err != nil {
		return err
	}

	var changeSetID int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM change_sets WHERE status = 'open'`).Scan(&changeSetID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding open change set: %w", err)
	}

	before, err := m.Before.Encode()
	if err != nil {
		return fmt.Errorf("encoding before image: %w", err)
	}
	after, err := m.After.Encode()
	if err != nil {
		return fmt.Errorf("encoding after image: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO mutation_journal (change_set_id, seq, table_name, operation, row_id, before_image, after_image)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM mutation_journal WHERE change_set_id = ?), ?, ?, ?, ?, ?)`,
		changeSetID, changeSetID, m.Table, string(m.Op), m.RowID, nullableBytes(before), nullableBytes(after),
	)
	if err != nil {
		return fmt.Errorf("recording mutation: %w", err)
	}
	return nil
}

// ListForUndo returns a change set's mutations in descending sequence order.
func (r *SQLiteJournalRepo) ListForUndo(ctx context.Context, changeSetID int64) ([]domain.Mutation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, change_set_id, seq, table_name, operation, row_id, before_image, after_image
		 FROM mutation_journal WHERE change_set_id = ? ORDER BY seq DESC`, changeSetID)
	if err != nil {
		return nil, fmt.Errorf("listing mutations: %w", err)
	}
	defer rows.Close()

	var out []domain.Mutation
	for rows.Next() {
		var m domain.Mutation
		var op string
		var before, after sql.NullString
		if err := rows.Scan(&m.ID, &m.ChangeSetID, &m.Seq, &m.Table, &op, &m.RowID, &before, &after); err != nil {
			return nil, fmt.Errorf("scanning mutation: %w", err)
		}
		m.Op = domain.Operation(op)
		if m.Before, err = domain.DecodeImage([]byte(before.String)); err != nil {
			return nil, err
		}
		if m.After, err = domain.DecodeImage([]byte(after.String)); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mutations: %w", err)
	}
	return out, nil
}

// Count returns the number of mutations journaled for a change set.
func (r *SQLiteJournalRepo) Count(ctx context.Context, changeSetID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mutation_journal WHERE change_set_id = ?`, changeSetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting mutations: %w", err)
	}
	return n, nil
}

func nullableBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
