package isolation_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/testutil"
)

func TestBranch_OpenCreatesTaggedCopy(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	iso := isolation.NewBranch(ds, isolation.WithClock(fixedClock()))
	t.Cleanup(func() { iso.Close() })

	s, err := iso.Open(ctx, "q1-fix")
	require.NoError(t, err)
	assert.Equal(t, ds.Sibling("effort_branch_q1-fix.db"), s.Path)
	assert.Equal(t, ds.Path(), s.SourcePath)
	assert.FileExists(t, s.Path)

	reader, err := iso.Reader(ctx)
	require.NoError(t, err)
	role, ok, err := repository.NewSQLiteMetaRepo(reader).Get(ctx, repository.MetaRole)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "branch", role)

	role, _, err = repository.NewSQLiteMetaRepo(ds.DB()).Get(ctx, repository.MetaRole)
	require.NoError(t, err)
	assert.Equal(t, "main", role)

	_, err = iso.Open(ctx, "other")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBranch_RejectsUnsafeNames(t *testing.T) {
	iso := isolation.NewBranch(testutil.NewTestDataset(t))
	_, err := iso.Open(context.Background(), "../escape")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBranch_EditsStayInvisibleUntilMerge(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	seed := testutil.NewTestStore(ds.DB())
	w := testutil.NewWorld(t, seed)
	jane := testutil.MustEmployee(t, seed, "Smith,Jane", w.Group.ID)
	kelp := testutil.MustLine(t, seed, jane.ID, w.ProjectBL.ID)
	testutil.MustEffort(t, seed, kelp.ID, 2024, 1, 60)
	jan := domain.YearMonth{Year: 2024, Month: 1}

	iso := isolation.NewBranch(ds, isolation.WithClock(fixedClock()))
	t.Cleanup(func() { iso.Close() })
	_, err := iso.Open(ctx, "q1")
	require.NoError(t, err)

	require.NoError(t, iso.Run(ctx, func(ctx context.Context, s *repository.Store) error {
		if err := s.Efforts.Set(ctx, kelp.ID, jan, 100); err != nil {
			return err
		}
		line := &domain.AllocationLine{EmployeeID: jane.ID, BudgetLineID: w.NonProjectBL.ID}
		return s.AllocationLines.Create(ctx, line)
	}))

	e, err := seed.Efforts.Get(ctx, kelp.ID, jan)
	require.NoError(t, err)
	assert.Equal(t, 60.0, e.Percentage, "canonical reads must not see branch edits")

	res, err := iso.Merge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Changes)
	assert.FileExists(t, res.BackupPath)
	assert.FileExists(t, res.ChangeLogPath)
	assert.NoFileExists(t, ds.Sibling("effort_branch_q1.db"))

	main := testutil.NewTestStore(ds.DB())
	e, err = main.Efforts.Get(ctx, kelp.ID, jan)
	require.NoError(t, err)
	assert.Equal(t, 100.0, e.Percentage)

	role, _, err := repository.NewSQLiteMetaRepo(ds.DB()).Get(ctx, repository.MetaRole)
	require.NoError(t, err)
	assert.Equal(t, "main", role)
	_, ok, err := repository.NewSQLiteMetaRepo(ds.DB()).Get(ctx, repository.MetaBranchName)
	require.NoError(t, err)
	assert.False(t, ok)

	trail, err := repository.NewSQLiteAuditRepo(ds.DB()).List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, trail, 2, "branch_create carried over, merge appended")
	assert.Equal(t, domain.AuditMerge, trail[0].Action)
	assert.Equal(t, domain.AuditBranchCreate, trail[1].Action)
	assert.Equal(t, res.BackupPath, trail[0].Details["backup_path"])

	backup := testutil.NewTestStore(openFile(t, res.BackupPath))
	e, err = backup.Efforts.Get(ctx, kelp.ID, jan)
	require.NoError(t, err)
	assert.Equal(t, 60.0, e.Percentage, "backup holds the pre-merge canonical store")
}

func TestBranch_DiscardLeavesMainUntouched(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	seed := testutil.NewTestStore(ds.DB())
	w := testutil.NewWorld(t, seed)
	jane := testutil.MustEmployee(t, seed, "Smith,Jane", w.Group.ID)
	before := testutil.DumpEntities(t, ds.DB())

	iso := isolation.NewBranch(ds)
	s, err := iso.Open(ctx, "scratch")
	require.NoError(t, err)
	require.NoError(t, iso.Run(ctx, func(ctx context.Context, st *repository.Store) error {
		return st.AllocationLines.Create(ctx, &domain.AllocationLine{EmployeeID: jane.ID, BudgetLineID: w.ProjectBL.ID})
	}))

	_, err = iso.Discard(ctx)
	require.NoError(t, err)
	_, err = os.Stat(s.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, before, testutil.DumpEntities(t, ds.DB()))

	err = iso.Run(ctx, func(context.Context, *repository.Store) error { return nil })
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBranch_ReattachesToExistingBranchFile(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)

	first := isolation.NewBranch(ds)
	_, err := first.Open(ctx, "carry")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := isolation.NewBranch(ds)
	t.Cleanup(func() { second.Close() })
	info, err := second.Info(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "carry", info.Name)
	assert.Equal(t, "branch", info.Mode)
}
