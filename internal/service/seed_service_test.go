package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/testutil"
)

const seedYAML = `
groups:
  - name: Ocean Science
    is_internal: true
employees:
  - name: Smith,Jane
    group: Ocean Science
    window: {start: "2024-01"}
projects:
  - name: Non-Project
    is_nonproject: true
    budget_lines:
      - code: NP
  - name: Kelp Survey
    local_pi: Smith,Jane
    budget_lines:
      - code: "1001"
        display_name: Kelp core
allocations:
  - employee: Smith,Jane
    code: NP
    effort: {"2024-01": 40, "2024-02": 100}
  - employee: Smith,Jane
    code: "1001"
    fund_code: "10000"
    effort: {"2024-01": 60}
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestSeedService_LoadsEmptyDataset(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	iso, err := isolation.New(isolation.ModeChangeSet, ds)
	require.NoError(t, err)
	svc := NewSeedService(ds, iso)

	resp, err := svc.SeedFile(ctx, writeSeed(t, seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Groups)
	assert.Equal(t, 2, resp.Projects)
	assert.Equal(t, 2, resp.BudgetLines)
	assert.Equal(t, 2, resp.AllocationLines)
	assert.Equal(t, 3, resp.Efforts)

	st := repository.NewStore(ds.DB(), nil)
	bl, err := st.BudgetLines.GetByCode(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Kelp Survey", bl.Name)
	assert.Equal(t, "Kelp core", bl.DisplayName)

	trail, err := NewHistoryService(ds).List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditSeed, trail[0].Action)

	_, err = svc.SeedFile(ctx, writeSeed(t, seedYAML))
	assert.ErrorIs(t, err, domain.ErrConflict, "only empty stores may be seeded")
}

func TestSeedService_RejectsInvalidFiles(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewTestDataset(t)
	iso, err := isolation.New(isolation.ModeChangeSet, ds)
	require.NoError(t, err)
	svc := NewSeedService(ds, iso)

	_, err = svc.SeedFile(ctx, writeSeed(t, "groups:\n  - name: \"\"\n"))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "seed validation failed (1 errors)")

	outside := `
groups: [{name: Ocean Science, is_internal: true}]
employees: [{name: "Smith,Jane", group: Ocean Science, window: {start: "2024-01"}}]
projects: [{name: Kelp Survey, budget_lines: [{code: "1001"}]}]
allocations: [{employee: "Smith,Jane", code: "1001", effort: {"2023-12": 50}}]
`
	_, err = svc.SeedFile(ctx, writeSeed(t, outside))
	require.ErrorIs(t, err, domain.ErrValidation)

	groups, err := repository.NewStore(ds.DB(), nil).Groups.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups, "failed seed leaves nothing behind")
}
