package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/config"
	"github.com/alexanderramin/effort/internal/testutil"
)

// testApp wires a full App over a temp dataset holding the shared test
// world. Prompts are disabled unless a test installs Confirm.
func testApp(t *testing.T, mode string) (*App, *testutil.World) {
	t.Helper()
	ds := testutil.NewTestDataset(t)
	world := testutil.NewWorld(t, testutil.NewTestStore(ds.DB()))

	cfg := config.Default()
	cfg.Isolation.Mode = mode
	app := &App{LogOutput: io.Discard, IsInteractive: func() bool { return false }}
	require.NoError(t, app.Attach(context.Background(), cfg, ds))
	t.Cleanup(func() { app.Close() })
	return app, world
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "effort %v\n%s", args, out)
	return out
}

// lineFor finds the allocation line of employee on code through the grid.
func lineFor(t *testing.T, app *App, employee, code string) int64 {
	t.Helper()
	g, err := app.Query.Grid(context.Background())
	require.NoError(t, err)
	for _, r := range g.Rows {
		if r.Employee == employee && r.Code == code {
			return r.LineID
		}
	}
	t.Fatalf("no allocation line for %s on %s", employee, code)
	return 0
}

func TestSessionCmd_OpenAndStatus(t *testing.T) {
	app, _ := testApp(t, "changeset")

	out := mustRun(t, app, "session", "status")
	assert.Contains(t, out, "NONE")

	out = mustRun(t, app, "session", "open", "--name", "march")
	assert.Contains(t, out, "march")

	out = mustRun(t, app, "session", "status")
	assert.Contains(t, out, "OPEN")
	assert.Contains(t, out, "changeset")

	_, err := executeCmd(t, app, "session", "open")
	assert.Error(t, err, "a second session must be refused")
}

func TestEffortCmd_RequiresSession(t *testing.T) {
	app, _ := testApp(t, "changeset")
	_, err := executeCmd(t, app, "effort", "set", "--line", "1", "--month", "2024-01", "--pct", "50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open an editing session")
}

func TestEffortCmd_RejectsBadMonth(t *testing.T) {
	app, _ := testApp(t, "changeset")
	mustRun(t, app, "session", "open")
	_, err := executeCmd(t, app, "effort", "set", "--line", "1", "--month", "Jan 2024", "--pct", "50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")
}

func TestEditFlow_FixTotalsAndMerge(t *testing.T) {
	app, _ := testApp(t, "changeset")
	mustRun(t, app, "session", "open")

	out := mustRun(t, app, "employee", "add", "--last", "Smith", "--first", "Jane", "--group", "Ocean Science")
	assert.Contains(t, out, "Created employee Smith,Jane")

	out = mustRun(t, app, "line", "add", "--employee", "Smith,Jane", "--code", "1001", "--fund-code", "10000")
	assert.Contains(t, out, "Added allocation line")
	line := lineFor(t, app, "Smith,Jane", "1001")

	out = mustRun(t, app, "effort", "set", "--line", itoa(line), "--month", "2024-01", "--pct", "60")
	assert.Contains(t, out, "to 60%")

	out = mustRun(t, app, "fix-totals")
	assert.Contains(t, out, "1 change(s), 1 line(s) created")

	out = mustRun(t, app, "grid")
	assert.Contains(t, out, "Jan 2024")
	assert.Contains(t, out, "NP")

	out = mustRun(t, app, "session", "merge")
	assert.Contains(t, out, "merged")

	out = mustRun(t, app, "history", "--limit", "5")
	assert.Contains(t, out, "fix_totals")
	assert.Contains(t, out, "merge")
}

func TestEntityCmds(t *testing.T) {
	app, world := testApp(t, "changeset")
	mustRun(t, app, "session", "open")

	assert.Contains(t, mustRun(t, app, "group", "add", "Marine Chemistry", "--internal"), "Created group Marine Chemistry")
	mustRun(t, app, "employee", "add", "--last", "Wu", "--first", "Li", "--group", "Marine Chemistry", "--start", "2024-01")
	assert.Contains(t, mustRun(t, app, "employee", "update", "Wu,Li", "--salary", "95000"), "Updated employee Wu,Li")

	out := mustRun(t, app, "project", "add", "Reef Watch", "--pi", "Wu,Li", "--admin-group", "Marine Chemistry")
	assert.Contains(t, out, "Created project Reef Watch")

	out = mustRun(t, app, "project", "update", itoa(world.Project.ID), "--name", "Kelp Survey II")
	assert.Contains(t, out, "Kelp Survey II")

	out = mustRun(t, app, "budget-line", "add", "--project", itoa(world.Project.ID))
	assert.Contains(t, out, "Created budget line 1002")

	mustRun(t, app, "budget-line", "update", "1002", "--display-name", "Kelp extension", "--budget", "50000")
	out = mustRun(t, app, "bl", "reassign", "1002", "--project", itoa(world.NonProject.ID))
	assert.Contains(t, out, "now belongs to project")

	_, err := executeCmd(t, app, "project", "update", "abc")
	assert.Error(t, err)
}

func TestDiscardCmd_Confirmation(t *testing.T) {
	app, _ := testApp(t, "changeset")
	mustRun(t, app, "session", "open")

	_, err := executeCmd(t, app, "session", "discard")
	assert.ErrorIs(t, err, errNeedsConfirmation)

	app.IsInteractive = func() bool { return true }
	app.Confirm = func(string) (bool, error) { return false, nil }
	_, err = executeCmd(t, app, "session", "discard")
	assert.ErrorIs(t, err, errAborted)

	app.Confirm = func(string) (bool, error) { return true, nil }
	out := mustRun(t, app, "session", "discard")
	assert.Contains(t, out, "discarded")
}

func TestBackupCmds_BranchMergeThenRevert(t *testing.T) {
	app, world := testApp(t, "branch")
	assert.Contains(t, mustRun(t, app, "backup", "list"), "No backups")

	mustRun(t, app, "session", "open")
	mustRun(t, app, "project", "update", itoa(world.Project.ID), "--name", "Kelp Survey II")
	mustRun(t, app, "session", "merge")

	out := mustRun(t, app, "backup", "list")
	assert.Contains(t, out, "effort_backup_")

	out = mustRun(t, app, "backup", "revert", "--yes")
	assert.Contains(t, out, "Restored")

	projects, err := app.Query.Projects(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "Kelp Survey")

	out = mustRun(t, app, "backup", "prune", "--keep", "1", "--yes")
	assert.Contains(t, out, "Kept 1 backup(s), removed 0")
}

func TestSeedCmd_LoadsEmptyDataset(t *testing.T) {
	ds := testutil.NewTestDataset(t)
	app := &App{LogOutput: io.Discard}
	require.NoError(t, app.Attach(context.Background(), config.Default(), ds))
	t.Cleanup(func() { app.Close() })

	seed := filepath.Join(t.TempDir(), "seed.json")
	body := `{
  "groups": [{"name": "Ocean Science", "is_internal": true}],
  "employees": [{"name": "Smith,Jane", "group": "Ocean Science"}],
  "projects": [{"name": "Non-Project", "is_nonproject": true, "budget_lines": [{"code": "NP"}]}],
  "allocations": [{"employee": "Smith,Jane", "code": "NP", "effort": {"2024-01": 100}}]
}`
	require.NoError(t, os.WriteFile(seed, []byte(body), 0o644))

	out := mustRun(t, app, "seed", seed)
	assert.Contains(t, out, "Seeded 1 group(s), 1 employee(s), 1 project(s), 1 budget line(s), 1 allocation line(s), 1 effort record(s)")

	_, err := executeCmd(t, app, "seed", seed)
	assert.Error(t, err, "a populated store cannot be seeded again")
}

func TestRootCmd_OpensDatasetFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flag.db")
	app := &App{LogOutput: io.Discard}
	t.Cleanup(func() { app.Close() })

	out := mustRun(t, app, "--db", path, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "session", "status")
	assert.Contains(t, out, path)
	assert.FileExists(t, path)
}
