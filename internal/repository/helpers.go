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

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = domain.ErrNotFound

// timestampLayout keeps sub-second precision so entries written in quick
// succession still order by time.
const timestampLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

// parseNullableTime parses a sql.NullString into a *time.Time.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// nullableString stores empty strings as SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	x := v.Int64
	return &x
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	x := v.Float64
	return &x
}

// windowArgs flattens a window into start_year, start_month, end_year, end_month.
func windowArgs(w domain.Window) []any {
	args := []any{nil, nil, nil, nil}
	if w.Start != nil {
		args[0], args[1] = w.Start.Year, w.Start.Month
	}
	if w.End != nil {
		args[2], args[3] = w.End.Year, w.End.Month
	}
	return args
}

// windowScan holds the nullable window columns while scanning.
type windowScan struct {
	startYear, startMonth, endYear, endMonth sql.NullInt64
}

func (w *windowScan) dest() []any {
	return []any{&w.startYear, &w.startMonth, &w.endYear, &w.endMonth}
}

func (w *windowScan) window() domain.Window {
	var out domain.Window
	if w.startYear.Valid && w.startMonth.Valid {
		out.Start = domain.YM(int(w.startYear.Int64), int(w.startMonth.Int64))
	}
	if w.endYear.Valid && w.endMonth.Valid {
		out.End = domain.YM(int(w.endYear.Int64), int(w.endMonth.Int64))
	}
	return out
}

// mapWriteErr turns constraint failures into validation errors.
func mapWriteErr(err error, what string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return domain.NewValidationError("", "%s already exists", what)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return domain.NewValidationError("", "%s references a missing row", what)
	case strings.Contains(msg, "CHECK constraint failed"):
		return domain.NewValidationError("", "%s has an out-of-range value", what)
	}
	return fmt.Errorf("writing %s: %w", what, err)
}

// queryInt64s runs a query returning one integer column.
func queryInt64s(ctx context.Context, q db.DBTX, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
