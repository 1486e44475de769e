package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CopyTo writes a consistent copy of the store behind db to dest. The copy
// is produced with VACUUM INTO under a temporary name in the destination
// directory and then renamed into place, so dest is either absent or
// complete. It fails if dest already exists.
func CopyTo(ctx context.Context, db *sql.DB, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("copy destination %s already exists", dest)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking copy destination: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(dest), fmt.Sprintf(".%s.%s.tmp", filepath.Base(dest), uuid.NewString()[:8]))
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("copying store to %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("moving copy into place: %w", err)
	}
	return nil
}

// ReplaceFile atomically renames src over dst and removes stale rollback
// journals belonging to dst.
func ReplaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	_ = os.Remove(dst + "-journal")
	return nil
}
