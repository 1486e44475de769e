package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/importer"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/validation"
)

type seedService struct {
	ds       *db.Dataset
	iso      isolation.Isolator
	observer UseCaseObserver
}

// NewSeedService loads seed files straight into the canonical store. Only
// an empty dataset can be seeded.
func NewSeedService(ds *db.Dataset, iso isolation.Isolator, observers ...UseCaseObserver) SeedService {
	return &seedService{ds: ds, iso: iso, observer: useCaseObserverOrNoop(observers)}
}

func (s *seedService) SeedFile(ctx context.Context, path string) (resp *contract.SeedResponse, err error) {
	fields := map[string]any{"source": filepath.Base(path)}
	done := track(ctx, s.observer, "seed.load", fields)
	defer func() { done(err) }()

	schema, err := importer.LoadSeed(path)
	if err != nil {
		return nil, fmt.Errorf("loading seed file: %w", err)
	}
	if errs := importer.ValidateSeed(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	open, err := s.iso.IsOpen(ctx)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, domain.Conflictf("close the editing session before seeding")
	}

	resp = &contract.SeedResponse{}
	err = db.NewSQLiteUnitOfWork(s.ds.DB()).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx, nil)
		if err := ensureEmpty(ctx, st); err != nil {
			return err
		}
		if err := apply(ctx, st, schema, resp); err != nil {
			return err
		}
		_, err := repository.NewSQLiteAuditRepo(tx).Append(ctx, domain.AuditSeed, map[string]any{
			"source":           path,
			"groups":           resp.Groups,
			"employees":        resp.Employees,
			"projects":         resp.Projects,
			"budget_lines":     resp.BudgetLines,
			"allocation_lines": resp.AllocationLines,
			"efforts":          resp.Efforts,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["efforts"] = resp.Efforts
	return resp, nil
}

func ensureEmpty(ctx context.Context, st *repository.Store) error {
	groups, err := st.Groups.List(ctx)
	if err != nil {
		return err
	}
	projects, err := st.Projects.List(ctx)
	if err != nil {
		return err
	}
	if len(groups) > 0 || len(projects) > 0 {
		return domain.Conflictf("dataset already holds data; seed files only load into an empty store")
	}
	return nil
}

// apply writes the schema in dependency order. Windows were already checked
// by ValidateSeed, so conversion errors cannot occur here.
func apply(ctx context.Context, st *repository.Store, schema *importer.SeedSchema, resp *contract.SeedResponse) error {
	rules := validation.New(st)

	groups := make(map[string]int64, len(schema.Groups))
	for _, g := range schema.Groups {
		row := &domain.Group{Name: g.Name, IsInternal: g.Internal}
		if err := st.Groups.Create(ctx, row); err != nil {
			return fmt.Errorf("creating group %q: %w", g.Name, err)
		}
		groups[g.Name] = row.ID
		resp.Groups++
	}

	employees := make(map[string]int64, len(schema.Employees))
	for _, e := range schema.Employees {
		w, _ := e.Window.Window()
		row := &domain.Employee{Name: e.Name, GroupID: groups[e.Group], Salary: domain.DefaultSalary, Window: w}
		if e.Salary != nil {
			row.Salary = *e.Salary
		}
		if err := st.Employees.Create(ctx, row); err != nil {
			return fmt.Errorf("creating employee %q: %w", e.Name, err)
		}
		employees[e.Name] = row.ID
		resp.Employees++
	}

	codes := make(map[string]int64)
	for _, p := range schema.Projects {
		w, _ := p.Window.Window()
		row := &domain.Project{Name: p.Name, IsNonProject: p.NonProject, Window: w}
		if p.LocalPI != "" {
			id := employees[p.LocalPI]
			if err := rules.LocalPI(ctx, id); err != nil {
				return err
			}
			row.LocalPIID = &id
		}
		if p.AdminGroup != "" {
			id := groups[p.AdminGroup]
			row.AdminGroupID = &id
		}
		if err := st.Projects.Create(ctx, row); err != nil {
			return fmt.Errorf("creating project %q: %w", p.Name, err)
		}
		resp.Projects++

		for _, b := range p.BudgetLines {
			bw, _ := b.Window.Window()
			bl := &domain.BudgetLine{
				ProjectID:       row.ID,
				Code:            b.Code,
				Name:            b.Name,
				DisplayName:     b.DisplayName,
				PersonnelBudget: b.PersonnelBudget,
				Window:          bw,
			}
			if bl.Name == "" {
				bl.Name = p.Name
			}
			if err := st.BudgetLines.Create(ctx, bl); err != nil {
				return fmt.Errorf("creating budget line %q: %w", b.Code, err)
			}
			codes[b.Code] = bl.ID
			resp.BudgetLines++
		}
	}

	for i, a := range schema.Allocations {
		line := &domain.AllocationLine{EmployeeID: employees[a.Employee], BudgetLineID: codes[a.Code], Accounting: a.Accounting}
		if err := st.AllocationLines.Create(ctx, line); err != nil {
			return fmt.Errorf("creating allocation %d: %w", i, err)
		}
		resp.AllocationLines++

		months, err := a.Months()
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("allocations[%d].effort", i), "%s", err)
		}
		for _, m := range months {
			if err := rules.EffortAllowed(ctx, line.ID, m.YearMonth); err != nil {
				return fmt.Errorf("allocations[%d] (%s, %s): %w", i, a.Employee, a.Code, err)
			}
			if err := st.Efforts.Set(ctx, line.ID, m.YearMonth, m.Percentage); err != nil {
				return err
			}
			resp.Efforts++
		}
	}
	return nil
}

// formatValidationErrors folds a list of problems into one validation error.
func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "seed validation failed (%d errors):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - " + e.Error())
	}
	return &domain.ValidationError{Message: b.String()}
}
