package isolation

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// undoAll reverses mutations, which must be in descending sequence order.
// Foreign keys must be suspended on q: rows come back in reverse order of
// their removal, so children can precede parents.
func undoAll(ctx context.Context, q db.DBTX, muts []domain.Mutation) error {
	for _, m := range muts {
		if err := undo(ctx, q, m); err != nil {
			return fmt.Errorf("undoing mutation %d (%s %s row %d): %w", m.Seq, m.Op, m.Table, m.RowID, err)
		}
	}
	return nil
}

func undo(ctx context.Context, q db.DBTX, m domain.Mutation) error {
	if err := repository.CheckImage(m.Table, m.Before); err != nil {
		return err
	}
	if err := repository.CheckImage(m.Table, m.After); err != nil {
		return err
	}

	switch m.Op {
	case domain.OpInsert:
		_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, m.Table), m.RowID)
		return err

	case domain.OpUpdate:
		if len(m.Before) == 0 {
			return nil
		}
		sets := make([]string, 0, len(m.Before))
		args := make([]any, 0, len(m.Before)+1)
		for _, c := range m.Before {
			sets = append(sets, c.Name+" = ?")
			args = append(args, c.Value.SQLArg())
		}
		args = append(args, m.RowID)
		_, err := q.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, m.Table, strings.Join(sets, ", ")), args...)
		return err

	case domain.OpDelete:
		if _, ok := m.Before.Get("id"); !ok {
			return fmt.Errorf("before image has no id")
		}
		cols := make([]string, 0, len(m.Before))
		marks := make([]string, 0, len(m.Before))
		args := make([]any, 0, len(m.Before))
		for _, c := range m.Before {
			cols = append(cols, c.Name)
			marks = append(marks, "?")
			args = append(args, c.Value.SQLArg())
		}
		_, err := q.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			m.Table, strings.Join(cols, ", "), strings.Join(marks, ", ")), args...)
		return err

	default:
		return fmt.Errorf("unknown operation %q", m.Op)
	}
}
