package isolation_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/db"
)

func openFile(t *testing.T, path string) *sql.DB {
	t.Helper()
	handle, err := db.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })
	return handle
}
