package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// Entity tables whose writes are journaled while a change set is open, with
// the columns a row image may carry. Journal replay refuses anything else.
var journaledColumns = map[string][]string{
	"groups": {"id", "name", "is_internal"},
	"employees": {"id", "name", "group_id", "salary",
		"start_year", "start_month", "end_year", "end_month"},
	"projects": {"id", "name", "local_pi_id", "admin_group_id", "is_nonproject",
		"start_year", "start_month", "end_year", "end_month"},
	"budget_lines": {"id", "project_id", "budget_line_code", "name", "display_name",
		"start_year", "start_month", "end_year", "end_month", "personnel_budget"},
	"allocation_lines": {"id", "employee_id", "budget_line_id", "fund_code", "source",
		"account", "cost_code_1", "cost_code_2", "cost_code_3", "program_code"},
	"efforts": {"id", "allocation_line_id", "year", "month", "percentage"},
}

// JournaledTables lists the tables eligible for journaling in a stable order.
func JournaledTables() []string {
	tables := make([]string, 0, len(journaledColumns))
	for t := range journaledColumns {
		tables = append(tables, t)
	}
	slices.Sort(tables)
	return tables
}

// Columns returns the allow-listed columns of a journaled table.
func Columns(table string) ([]string, error) {
	cols, ok := journaledColumns[table]
	if !ok {
		return nil, fmt.Errorf("table %q is not journaled", table)
	}
	return cols, nil
}

// CheckImage verifies that every column in img belongs to table.
func CheckImage(table string, img domain.Image) error {
	cols, err := Columns(table)
	if err != nil {
		return err
	}
	for _, c := range img {
		if !slices.Contains(cols, c.Name) {
			return fmt.Errorf("column %q is not journaled for %s", c.Name, table)
		}
	}
	return nil
}

// SnapshotRow captures the full image of one row. It returns ErrNotFound
// when the row does not exist.
func SnapshotRow(ctx context.Context, q db.DBTX, table string, id int64) (domain.Image, error) {
	cols, err := Columns(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, strings.Join(cols, ", "), table)
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("snapshotting %s row %d: %w", table, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s row %d: %w", table, id, ErrNotFound)
	}
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning %s row %d: %w", table, id, err)
	}

	img := make(domain.Image, len(cols))
	for i, name := range cols {
		v, err := domain.ValueOf(raw[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table, name, err)
		}
		img[i] = domain.Column{Name: name, Value: v}
	}
	return img, nil
}

// writer performs journaled writes against one table.
type writer struct {
	q       db.DBTX
	journal Journal
	table   string
}

func newWriter(q db.DBTX, journal Journal, table string) writer {
	if journal == nil {
		journal = NopJournal{}
	}
	return writer{q: q, journal: journal, table: table}
}

func (w writer) insert(ctx context.Context, what, query string, args ...any) (int64, error) {
	res, err := w.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapWriteErr(err, what)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading %s id: %w", what, err)
	}
	after, err := SnapshotRow(ctx, w.q, w.table, id)
	if err != nil {
		return 0, err
	}
	if err := w.journal.RecordMutation(ctx, domain.Mutation{
		Table: w.table, Op: domain.OpInsert, RowID: id, After: after,
	}); err != nil {
		return 0, err
	}
	return id, nil
}

// update journals only the columns whose values changed; a no-op update
// records nothing.
func (w writer) update(ctx context.Context, what string, id int64, query string, args ...any) error {
	before, err := SnapshotRow(ctx, w.q, w.table, id)
	if err != nil {
		return err
	}
	if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
		return mapWriteErr(err, what)
	}
	after, err := SnapshotRow(ctx, w.q, w.table, id)
	if err != nil {
		return err
	}
	b, a := domain.Changed(before, after)
	if len(a) == 0 {
		return nil
	}
	return w.journal.RecordMutation(ctx, domain.Mutation{
		Table: w.table, Op: domain.OpUpdate, RowID: id, Before: b, After: a,
	})
}

func (w writer) delete(ctx context.Context, what string, id int64) error {
	before, err := SnapshotRow(ctx, w.q, w.table, id)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, w.table)
	if _, err := w.q.ExecContext(ctx, query, id); err != nil {
		return mapWriteErr(err, what)
	}
	return w.journal.RecordMutation(ctx, domain.Mutation{
		Table: w.table, Op: domain.OpDelete, RowID: id, Before: before,
	})
}
