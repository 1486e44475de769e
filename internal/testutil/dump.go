package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// DumpEntities captures every row of every journaled table, keyed by table
// and ordered by id, for row-for-row comparisons.
func DumpEntities(t *testing.T, q db.DBTX) map[string][]domain.Image {
	t.Helper()
	ctx := context.Background()
	out := make(map[string][]domain.Image)
	for _, table := range repository.JournaledTables() {
		rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, table))
		if err != nil {
			t.Fatalf("listing %s ids: %v", table, err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				t.Fatalf("scanning %s id: %v", table, err)
			}
			ids = append(ids, id)
		}
		rows.Close()

		images := make([]domain.Image, 0, len(ids))
		for _, id := range ids {
			img, err := repository.SnapshotRow(ctx, q, table, id)
			if err != nil {
				t.Fatalf("snapshotting %s %d: %v", table, id, err)
			}
			images = append(images, img)
		}
		out[table] = images
	}
	return out
}
