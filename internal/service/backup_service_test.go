package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/testutil"
)

// mergeEdit opens a branch, sets one cell and merges.
func mergeEdit(t *testing.T, e *env, lineID int64, pct float64) {
	t.Helper()
	ctx := context.Background()
	e.open(t)
	require.NoError(t, NewEditService(e.iso).SetEffort(ctx, contract.SetEffortRequest{LineID: lineID, Year: 2024, Month: 1, Percentage: pct}))
	_, err := e.iso.Merge(ctx)
	require.NoError(t, err)
}

func TestBackupService_ListRevertPrune(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, isolation.ModeBranch)
	jane := testutil.MustEmployee(t, e.seed, "Smith,Jane", e.world.Group.ID)
	line := testutil.MustLine(t, e.seed, jane.ID, e.world.ProjectBL.ID)
	testutil.MustEffort(t, e.seed, line.ID, 2024, 1, 60)

	mergeEdit(t, e, line.ID, 70)
	mergeEdit(t, e, line.ID, 80)
	require.Equal(t, 80.0, e.effort(t, e.canonical(), line.ID, 2024, 1))

	svc := NewBackupService(e.ds, e.iso, 5, e.obs)
	backups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Greater(t, backups[0].Name, backups[1].Name, "newest first")
	assert.True(t, backups[0].CreatedAt.After(backups[1].CreatedAt))
	assert.Positive(t, backups[0].SizeBytes)

	b, err := svc.Revert(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, backups[0].Name, b.Name)
	assert.Equal(t, 70.0, e.effort(t, e.canonical(), line.ID, 2024, 1), "newest backup predates the second merge")
	assert.FileExists(t, b.Path, "backup is kept after revert")

	trail, err := NewHistoryService(e.ds).List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.AuditRevert, trail[0].Action)
	merges := 0
	for _, entry := range trail {
		if entry.Action == domain.AuditMerge {
			merges++
		}
	}
	assert.Equal(t, 2, merges, "audit trail survives the revert")

	_, err = svc.Revert(ctx, backups[1].Name)
	require.NoError(t, err)
	assert.Equal(t, 60.0, e.effort(t, e.canonical(), line.ID, 2024, 1))

	_, err = svc.Revert(ctx, "effort_backup_missing.db")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pruned, err := svc.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned.Kept)
	assert.Equal(t, []string{backups[1].Name}, pruned.Removed)
	assert.NoFileExists(t, backups[1].Path)
}

func TestBackupService_RevertConflictsWithOpenSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, isolation.ModeBranch)
	jane := testutil.MustEmployee(t, e.seed, "Smith,Jane", e.world.Group.ID)
	line := testutil.MustLine(t, e.seed, jane.ID, e.world.ProjectBL.ID)
	mergeEdit(t, e, line.ID, 50)

	svc := NewBackupService(e.ds, e.iso, 5)
	e.open(t)
	_, err := svc.Revert(ctx, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBackupService_NoBackups(t *testing.T) {
	e := newEnv(t, isolation.ModeChangeSet)
	svc := NewBackupService(e.ds, e.iso, 0)

	_, err := svc.Revert(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Prune(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
