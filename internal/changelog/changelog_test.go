package changelog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/changelog"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/testutil"
)

func TestDiff_ClassifiesEffortAndLines(t *testing.T) {
	main := &changelog.Snapshot{
		Efforts: map[changelog.EffortKey]float64{
			{Employee: "Smith,Jane", Code: "1001", Year: 2024, Month: 1}: 60,
			{Employee: "Smith,Jane", Code: "NP", Year: 2024, Month: 1}:   40,
		},
		Lines: map[changelog.LineKey]int{
			{Employee: "Smith,Jane", Code: "1001"}: 1,
			{Employee: "Smith,Jane", Code: "NP"}:   1,
		},
	}
	branch := &changelog.Snapshot{
		Efforts: map[changelog.EffortKey]float64{
			{Employee: "Smith,Jane", Code: "1001", Year: 2024, Month: 1}: 20,
			{Employee: "Smith,Jane", Code: "1002", Year: 2024, Month: 1}: 40,
		},
		Lines: map[changelog.LineKey]int{
			{Employee: "Smith,Jane", Code: "1001"}: 1,
			{Employee: "Smith,Jane", Code: "1002"}: 2,
		},
	}

	got := changelog.Diff(main, branch)
	require.Len(t, got, 6)

	assert.Equal(t, domain.EffortChanged, got[0].Kind)
	assert.Equal(t, "1001", got[0].Code)
	assert.Equal(t, 60.0, *got[0].Old)
	assert.Equal(t, 20.0, *got[0].New)

	assert.Equal(t, domain.EffortAdded, got[1].Kind)
	assert.Equal(t, "1002", got[1].Code)
	assert.Nil(t, got[1].Old)

	assert.Equal(t, domain.EffortRemoved, got[2].Kind)
	assert.Equal(t, "NP", got[2].Code)
	assert.Nil(t, got[2].New)

	assert.Equal(t, domain.AllocationLineAdded, got[3].Kind)
	assert.Equal(t, domain.AllocationLineAdded, got[4].Kind, "one record per unit of count difference")
	assert.Equal(t, domain.AllocationLineRemoved, got[5].Kind)
	assert.Equal(t, "NP", got[5].Code)
}

func TestDiff_IdenticalSnapshotsYieldNothing(t *testing.T) {
	s := &changelog.Snapshot{
		Efforts: map[changelog.EffortKey]float64{{Employee: "A,B", Code: "1", Year: 2024, Month: 3}: 100},
		Lines:   map[changelog.LineKey]int{{Employee: "A,B", Code: "1"}: 1},
	}
	assert.Empty(t, changelog.Diff(s, s))
}

func TestDiff_SortsMonthsNumerically(t *testing.T) {
	branch := &changelog.Snapshot{
		Efforts: map[changelog.EffortKey]float64{
			{Employee: "A,B", Code: "1", Year: 2024, Month: 10}: 10,
			{Employee: "A,B", Code: "1", Year: 2024, Month: 9}:  10,
			{Employee: "A,B", Code: "1", Year: 2023, Month: 12}: 10,
		},
		Lines: map[changelog.LineKey]int{},
	}
	got := changelog.Diff(&changelog.Snapshot{Efforts: map[changelog.EffortKey]float64{}, Lines: map[changelog.LineKey]int{}}, branch)
	require.Len(t, got, 3)
	assert.Equal(t, []int{12, 9, 10}, []int{got[0].Month, got[1].Month, got[2].Month})
}

func TestLoad_BuildsSnapshotFromStore(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := testutil.NewTestStore(database)
	w := testutil.NewWorld(t, s)
	emp := testutil.MustEmployee(t, s, "Smith,Jane", w.Group.ID)
	line := testutil.MustLine(t, s, emp.ID, w.ProjectBL.ID)
	testutil.MustLine(t, s, emp.ID, w.NonProjectBL.ID)
	testutil.MustEffort(t, s, line.ID, 2024, 1, 100)

	snap, err := changelog.Load(context.Background(), database)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snap.Efforts[changelog.EffortKey{Employee: "Smith,Jane", Code: "1001", Year: 2024, Month: 1}])
	assert.Len(t, snap.Efforts, 1, "a line without effort contributes no effort key")
	assert.Equal(t, 1, snap.Lines[changelog.LineKey{Employee: "Smith,Jane", Code: "NP"}])
}

func TestWriteFile(t *testing.T) {
	old, cur := 60.0, 20.5
	records := []domain.ChangeRecord{
		{Kind: domain.EffortChanged, Employee: "Smith,Jane", Code: "1001", Year: 2024, Month: 1, Old: &old, New: &cur},
		{Kind: domain.AllocationLineAdded, Employee: "Smith,Jane", Code: "1002"},
	}
	path := filepath.Join(t.TempDir(), "merge.tsv")

	written, err := changelog.WriteFile(path, records)
	require.NoError(t, err)
	assert.True(t, written)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "type\temployee\tcode\tyear\tmonth\told_value\tnew_value", lines[0])
	assert.Equal(t, "effort_changed\tSmith,Jane\t1001\t2024\t1\t60.00\t20.50", lines[1])
	assert.Equal(t, "allocation_line_added\tSmith,Jane\t1002\t\t\t\t", lines[2])
}

func TestWriteFile_NoRecordsWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge.tsv")
	written, err := changelog.WriteFile(path, nil)
	require.NoError(t, err)
	assert.False(t, written)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 1, 31, 14, 25, 1, 123456789, time.UTC)
	assert.Equal(t, "20240131_142501_123456", changelog.Timestamp(at))
	assert.Equal(t, "merge_q1-fix_20240131_142501_123456.tsv", changelog.FileName("q1-fix", at))
}
