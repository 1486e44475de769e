package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/repository"
)

// NewTestDB creates a file-backed SQLite database in a temp dir with all
// migrations applied. A file is used instead of :memory: so every pooled
// connection sees the same data. The database is closed when the test
// completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestDataset opens a dataset named effort.db in a fresh temp dir.
func NewTestDataset(t *testing.T) *db.Dataset {
	t.Helper()
	ds, err := db.OpenDataset(filepath.Join(t.TempDir(), "effort.db"))
	if err != nil {
		t.Fatalf("failed to create test dataset: %v", err)
	}
	t.Cleanup(func() {
		ds.Close()
	})
	return ds
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewTestStore returns an unjournaled store over database, for seeding
// fixtures outside any editing session.
func NewTestStore(database *sql.DB) *repository.Store {
	return repository.NewStore(database, nil)
}
