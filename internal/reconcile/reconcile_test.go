package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/reconcile"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/testutil"
)

type fixture struct {
	s *repository.Store
	w *testutil.World
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewTestStore(testutil.NewTestDB(t))
	return &fixture{s: s, w: testutil.NewWorld(t, s)}
}

func (f *fixture) run(t *testing.T, policy reconcile.Policy) *reconcile.Result {
	t.Helper()
	res, err := reconcile.Run(context.Background(), f.s, policy)
	require.NoError(t, err)
	return res
}

func (f *fixture) pct(t *testing.T, lineID int64, y, m int) float64 {
	t.Helper()
	e, err := f.s.Efforts.Get(context.Background(), lineID, domain.YearMonth{Year: y, Month: m})
	if err != nil {
		require.ErrorIs(t, err, domain.ErrNotFound)
		return 0
	}
	return e.Percentage
}

func TestRun_RaisesNonProjectToCloseShortfall(t *testing.T) {
	f := newFixture(t)
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	np := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 7, 60)
	testutil.MustEffort(t, f.s, np.ID, 2024, 7, 30)

	res := f.run(t, reconcile.Policy{})
	require.Len(t, res.Changes, 1)
	c := res.Changes[0]
	assert.Equal(t, np.ID, c.LineID)
	assert.Equal(t, 30.0, c.Old)
	assert.Equal(t, 40.0, c.New)
	assert.Equal(t, 40.0, f.pct(t, np.ID, 2024, 7))
}

func TestRun_AddsShortfallToLargestNonProjectLine(t *testing.T) {
	f := newFixture(t)
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	small := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	large := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 7, 60)
	testutil.MustEffort(t, f.s, small.ID, 2024, 7, 10)
	testutil.MustEffort(t, f.s, large.ID, 2024, 7, 20)

	res := f.run(t, reconcile.Policy{})
	require.Len(t, res.Changes, 1)
	assert.Equal(t, large.ID, res.Changes[0].LineID)
	assert.Equal(t, 30.0, f.pct(t, large.ID, 2024, 7))
	assert.Equal(t, 10.0, f.pct(t, small.ID, 2024, 7), "the smaller line is left alone")
}

func TestRun_OverageBeyondProjectsClampsNonProjectToZero(t *testing.T) {
	f := newFixture(t)
	other := testutil.MustBudgetLine(t, f.s, f.w.Project.ID, "1002")
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	a := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	b := testutil.MustLine(t, f.s, emp.ID, other.ID)
	np := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	testutil.MustEffort(t, f.s, a.ID, 2024, 7, 80)
	testutil.MustEffort(t, f.s, b.ID, 2024, 7, 40)
	testutil.MustEffort(t, f.s, np.ID, 2024, 7, 10)

	res := f.run(t, reconcile.Policy{})
	require.Len(t, res.Changes, 1)
	assert.Equal(t, 0.0, res.Changes[0].New)

	_, err := f.s.Efforts.Get(context.Background(), np.ID, domain.YearMonth{Year: 2024, Month: 7})
	assert.ErrorIs(t, err, domain.ErrNotFound, "zeroed effort is deleted, not stored")
	assert.Equal(t, 80.0, f.pct(t, a.ID, 2024, 7))
	assert.Equal(t, 40.0, f.pct(t, b.ID, 2024, 7))
}

func TestRun_OverageWalksPreferredLineFirst(t *testing.T) {
	f := newFixture(t)
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	plain := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	preferred := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID, testutil.WithFundCode("20152"))
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 7, 70)
	testutil.MustEffort(t, f.s, plain.ID, 2024, 7, 20)
	testutil.MustEffort(t, f.s, preferred.ID, 2024, 7, 25)

	res := f.run(t, reconcile.Policy{PreferredFundCode: "20152"})
	require.Len(t, res.Changes, 1)
	assert.Equal(t, preferred.ID, res.Changes[0].LineID)
	assert.Equal(t, 10.0, f.pct(t, preferred.ID, 2024, 7))
	assert.Equal(t, 20.0, f.pct(t, plain.ID, 2024, 7))
}

func TestBuild_OverageSkipsLinesWithoutEffortThatMonth(t *testing.T) {
	in := reconcile.Input{Cells: []repository.Cell{
		{LineID: 1, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, Month: domain.YM(2024, 7), Percentage: 110},
		{LineID: 2, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, NonProject: true, Month: domain.YM(2024, 6), Percentage: 100},
	}, NonProjectBudgetLineID: 5}
	plan := reconcile.Build(in, reconcile.Policy{})
	assert.Empty(t, plan.Changes)
	assert.Empty(t, plan.NewLines, "no line is created to absorb overage")
}

func TestRun_CreatesNonProjectLineWhenMissing(t *testing.T) {
	f := newFixture(t)
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 7, 60)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 8, 75)

	res := f.run(t, reconcile.Policy{})
	assert.Equal(t, 1, res.LinesCreated)
	require.Len(t, res.Changes, 2)
	assert.Equal(t, res.Changes[0].LineID, res.Changes[1].LineID, "both months share the created line")

	line, err := f.s.AllocationLines.GetByID(context.Background(), res.Changes[0].LineID)
	require.NoError(t, err)
	assert.Equal(t, f.w.NonProjectBL.ID, line.BudgetLineID)
	assert.Equal(t, 40.0, f.pct(t, line.ID, 2024, 7))
	assert.Equal(t, 25.0, f.pct(t, line.ID, 2024, 8))
}

func TestRun_SkipsExternalGroupsAndMonthsOutsideWindow(t *testing.T) {
	f := newFixture(t)
	partners := testutil.MustGroup(t, f.s, "Partners", false)
	ext := testutil.MustEmployee(t, f.s, "Doe,John", partners.ID)
	extLine := testutil.MustLine(t, f.s, ext.ID, f.w.ProjectBL.ID)
	testutil.MustEffort(t, f.s, extLine.ID, 2024, 7, 50)

	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID,
		testutil.WithEmployeeWindow(domain.YM(2024, 8), nil))
	line := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	np := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	testutil.MustEffort(t, f.s, line.ID, 2024, 7, 50)
	testutil.MustEffort(t, f.s, line.ID, 2024, 8, 50)

	res := f.run(t, reconcile.Policy{})
	require.Len(t, res.Changes, 1)
	assert.Equal(t, np.ID, res.Changes[0].LineID)
	assert.Equal(t, 8, res.Changes[0].Month)
	assert.Equal(t, 0.0, f.pct(t, np.ID, 2024, 7))
}

func TestBuild_NonProjectWindowsLimitShortfall(t *testing.T) {
	windows := map[int64][]domain.Window{
		5: {{Start: domain.YM(2024, 7)}, {}},
		6: {{}, {End: domain.YM(2024, 6)}},
	}
	existing := reconcile.Input{Cells: []repository.Cell{
		{LineID: 1, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, Month: domain.YM(2024, 6), Percentage: 60},
		{LineID: 1, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, Month: domain.YM(2024, 7), Percentage: 60},
		{LineID: 2, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, NonProject: true, BudgetLineID: 5},
	}, NonProjectBudgetLineID: 5, NonProjectWindows: windows}
	plan := reconcile.Build(existing, reconcile.Policy{})
	require.Len(t, plan.Changes, 1, "June is before the Non-Project budget line starts")
	assert.Equal(t, int64(2), plan.Changes[0].LineID)
	assert.Equal(t, 7, plan.Changes[0].Month)

	missing := reconcile.Input{Cells: []repository.Cell{
		{LineID: 1, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, Month: domain.YM(2024, 7), Percentage: 60},
	}, NonProjectBudgetLineID: 6, NonProjectWindows: windows}
	plan = reconcile.Build(missing, reconcile.Policy{})
	assert.True(t, plan.Empty(), "sentinel project ended before July")
}

func TestRun_RespectsDatedNonProjectBudgetLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.w.NonProjectBL.Window = domain.Window{Start: domain.YM(2024, 8)}
	require.NoError(t, f.s.BudgetLines.Update(ctx, f.w.NonProjectBL))
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	np := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 7, 60)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 8, 60)

	res := f.run(t, reconcile.Policy{})
	require.Len(t, res.Changes, 1)
	assert.Equal(t, 8, res.Changes[0].Month)
	assert.Zero(t, f.pct(t, np.ID, 2024, 7))
	assert.Equal(t, 40.0, f.pct(t, np.ID, 2024, 8))
}

func TestRun_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	for i, name := range []string{"Smith,Jane", "Jones,Bob", "Lee,Ana"} {
		emp := testutil.MustEmployee(t, f.s, name, f.w.Group.ID)
		kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
		testutil.MustEffort(t, f.s, kelp.ID, 2024, 1, 33.33+float64(i)*20)
		if i > 0 {
			np := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
			testutil.MustEffort(t, f.s, np.ID, 2024, 1, 66.67-float64(i)*10)
		}
	}

	first := f.run(t, reconcile.Policy{})
	assert.NotEmpty(t, first.Changes)

	second := f.run(t, reconcile.Policy{})
	assert.Empty(t, second.Changes)
	assert.Zero(t, second.LinesCreated)
}

func TestRun_BalancedDataChangesNothing(t *testing.T) {
	f := newFixture(t)
	emp := testutil.MustEmployee(t, f.s, "Smith,Jane", f.w.Group.ID)
	kelp := testutil.MustLine(t, f.s, emp.ID, f.w.ProjectBL.ID)
	np := testutil.MustLine(t, f.s, emp.ID, f.w.NonProjectBL.ID)
	testutil.MustEffort(t, f.s, kelp.ID, 2024, 1, 33.33)
	testutil.MustEffort(t, f.s, np.ID, 2024, 1, 66.67)

	res := f.run(t, reconcile.Policy{})
	assert.Empty(t, res.Changes)
}

func TestBuild_TieGoesToPreferredLine(t *testing.T) {
	cells := []repository.Cell{
		{LineID: 1, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, Month: domain.YM(2024, 1), Percentage: 50},
		{LineID: 2, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, NonProject: true, Month: domain.YM(2024, 1), Percentage: 20},
		{LineID: 3, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, NonProject: true,
			Accounting: domain.Accounting{FundCode: "20152"}, Month: domain.YM(2024, 1), Percentage: 20},
	}
	plan := reconcile.Build(reconcile.Input{Cells: cells}, reconcile.Policy{PreferredFundCode: "20152"})
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, int64(3), plan.Changes[0].LineID)
	assert.Equal(t, 30.0, plan.Changes[0].New)

	plan = reconcile.Build(reconcile.Input{Cells: cells}, reconcile.Policy{})
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, int64(2), plan.Changes[0].LineID, "without a preference the older line wins the tie")
}

func TestBuild_NoSentinelMeansNoCreatedLine(t *testing.T) {
	cells := []repository.Cell{
		{LineID: 1, EmployeeID: 9, Employee: "Smith,Jane", Internal: true, Month: domain.YM(2024, 1), Percentage: 50},
	}
	plan := reconcile.Build(reconcile.Input{Cells: cells}, reconcile.Policy{})
	assert.True(t, plan.Empty())
}
