package isolation_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/testutil"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestChangeSet_WriteWithoutSessionIsForbidden(t *testing.T) {
	ds := testutil.NewTestDataset(t)
	iso := isolation.NewChangeSet(ds)

	err := iso.Run(context.Background(), func(ctx context.Context, s *repository.Store) error {
		return s.Groups.Create(ctx, &domain.Group{Name: "Ocean Science"})
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	groups, err := testutil.NewTestStore(ds.DB()).Groups.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestChangeSet_OpenTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	iso := isolation.NewChangeSet(testutil.NewTestDataset(t), isolation.WithClock(fixedClock()))

	s, err := iso.Open(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "edit-20240305-093000", s.Name)
	assert.Equal(t, "changeset", s.Mode)

	_, err = iso.Open(ctx, "again")
	assert.ErrorIs(t, err, domain.ErrConflict)

	open, err := iso.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestChangeSet_MergeAndDiscardWithoutSessionConflict(t *testing.T) {
	ctx := context.Background()
	iso := isolation.NewChangeSet(testutil.NewTestDataset(t))

	_, err := iso.Merge(ctx)
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = iso.Discard(ctx)
	assert.ErrorIs(t, err, domain.ErrConflict)

	info, err := iso.Info(ctx)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestChangeSet_DiscardRestoresEveryRow(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	seed := testutil.NewTestStore(ds.DB())
	w := testutil.NewWorld(t, seed)
	jane := testutil.MustEmployee(t, seed, "Smith,Jane", w.Group.ID)
	kelp := testutil.MustLine(t, seed, jane.ID, w.ProjectBL.ID, testutil.WithFundCode("20000"))
	np := testutil.MustLine(t, seed, jane.ID, w.NonProjectBL.ID)
	testutil.MustEffort(t, seed, kelp.ID, 2024, 1, 60)
	testutil.MustEffort(t, seed, kelp.ID, 2024, 2, 60)
	testutil.MustEffort(t, seed, np.ID, 2024, 1, 40)

	before := testutil.DumpEntities(t, ds.DB())

	iso := isolation.NewChangeSet(ds)
	_, err := iso.Open(ctx, "scratch")
	require.NoError(t, err)

	err = iso.Run(ctx, func(ctx context.Context, s *repository.Store) error {
		jan := domain.YearMonth{Year: 2024, Month: 1}
		if err := s.Efforts.Set(ctx, kelp.ID, jan, 75); err != nil {
			return err
		}
		if err := s.Efforts.Delete(ctx, np.ID, jan); err != nil {
			return err
		}
		bob := &domain.Employee{Name: "Jones,Bob", GroupID: w.Group.ID, Salary: 90000}
		if err := s.Employees.Create(ctx, bob); err != nil {
			return err
		}
		line := &domain.AllocationLine{EmployeeID: bob.ID, BudgetLineID: w.ProjectBL.ID}
		if err := s.AllocationLines.Create(ctx, line); err != nil {
			return err
		}
		if err := s.Efforts.Set(ctx, line.ID, jan, 100); err != nil {
			return err
		}
		jane.Salary = 130000
		jane.Window = domain.Window{Start: domain.YM(2023, 7)}
		if err := s.Employees.Update(ctx, jane); err != nil {
			return err
		}
		// Removing a line with effort journals the child rows first.
		return s.AllocationLines.Delete(ctx, kelp.ID)
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, testutil.DumpEntities(t, ds.DB()))

	res, err := iso.Discard(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionDiscarded, res.Session.Status)
	assert.Positive(t, res.Undone)

	assert.Equal(t, before, testutil.DumpEntities(t, ds.DB()))

	open, err := iso.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	trail, err := repository.NewSQLiteAuditRepo(ds.DB()).List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditDiscard, trail[0].Action)
	assert.EqualValues(t, res.Undone, trail[0].Details["changes_undone"])
}

func TestChangeSet_MergeKeepsEditsAndWritesChangeLog(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	seed := testutil.NewTestStore(ds.DB())
	w := testutil.NewWorld(t, seed)
	jane := testutil.MustEmployee(t, seed, "Smith,Jane", w.Group.ID)
	kelp := testutil.MustLine(t, seed, jane.ID, w.ProjectBL.ID)
	testutil.MustEffort(t, seed, kelp.ID, 2024, 1, 60)

	iso := isolation.NewChangeSet(ds, isolation.WithClock(fixedClock()))
	_, err := iso.Open(ctx, "q1")
	require.NoError(t, err)
	require.NoError(t, iso.Run(ctx, func(ctx context.Context, s *repository.Store) error {
		return s.Efforts.Set(ctx, kelp.ID, domain.YearMonth{Year: 2024, Month: 1}, 100)
	}))

	res, err := iso.Merge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changes)
	assert.Equal(t, 1, res.ChangeLogEntries)
	require.NotEmpty(t, res.ChangeLogPath)

	raw, err := os.ReadFile(res.ChangeLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "effort_changed\tSmith,Jane\t1001\t2024\t1\t60.00\t100.00")

	e, err := seed.Efforts.Get(ctx, kelp.ID, domain.YearMonth{Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, 100.0, e.Percentage, "merge must keep the edit")

	// A fresh session may follow a merge.
	_, err = iso.Open(ctx, "q2")
	require.NoError(t, err)
}

func TestChangeSet_MergeWithoutEditsWritesNoChangeLog(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	iso := isolation.NewChangeSet(ds)
	_, err := iso.Open(ctx, "empty")
	require.NoError(t, err)

	res, err := iso.Merge(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Changes)
	assert.Empty(t, res.ChangeLogPath)

	entries, err := os.ReadDir(ds.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tsv"), "unexpected change log %s", e.Name())
	}
}

func TestChangeSet_FailedJournalWriteRollsBackTheEdit(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	seed := testutil.NewTestStore(ds.DB())
	w := testutil.NewWorld(t, seed)
	jane := testutil.MustEmployee(t, seed, "Smith,Jane", w.Group.ID)
	kelp := testutil.MustLine(t, seed, jane.ID, w.ProjectBL.ID)

	boom := errors.New("disk full")
	// Exec 1 inserts the effort row, exec 2 the journal row.
	iso := isolation.NewChangeSet(ds, isolation.WithUnitOfWork(testutil.FailOnNth(2, boom)))
	_, err := isolation.NewChangeSet(ds).Open(ctx, "failing")
	require.NoError(t, err)

	err = iso.Run(ctx, func(ctx context.Context, s *repository.Store) error {
		return s.Efforts.Set(ctx, kelp.ID, domain.YearMonth{Year: 2024, Month: 1}, 50)
	})
	assert.ErrorIs(t, err, boom)

	_, err = seed.Efforts.Get(ctx, kelp.ID, domain.YearMonth{Year: 2024, Month: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	session, err := iso.Info(ctx)
	require.NoError(t, err)
	n, err := repository.NewSQLiteJournalRepo(ds.DB()).Count(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChangeSet_FailedCloseRemovesTheChangeLog(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	seed := testutil.NewTestStore(ds.DB())
	w := testutil.NewWorld(t, seed)
	jane := testutil.MustEmployee(t, seed, "Smith,Jane", w.Group.ID)
	kelp := testutil.MustLine(t, seed, jane.ID, w.ProjectBL.ID)

	plain := isolation.NewChangeSet(ds)
	_, err := plain.Open(ctx, "q1")
	require.NoError(t, err)
	require.NoError(t, plain.Run(ctx, func(ctx context.Context, s *repository.Store) error {
		return s.Efforts.Set(ctx, kelp.ID, domain.YearMonth{Year: 2024, Month: 1}, 25)
	}))

	boom := errors.New("disk full")
	// Exec 1 is the change set close.
	_, err = isolation.NewChangeSet(ds, isolation.WithUnitOfWork(testutil.FailOnNth(1, boom))).Merge(ctx)
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(ds.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tsv"), "change log %s left behind", e.Name())
	}
	open, err := plain.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open, "session stays open after a failed merge")

	res, err := plain.Merge(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ChangeLogPath)
}
