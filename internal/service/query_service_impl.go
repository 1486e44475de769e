package service

import (
	"context"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/report"
	"github.com/alexanderramin/effort/internal/repository"
)

type queryService struct {
	iso isolation.Isolator
}

func NewQueryService(iso isolation.Isolator) QueryService {
	return &queryService{iso: iso}
}

func (s *queryService) store(ctx context.Context) (*repository.Store, error) {
	handle, err := s.iso.Reader(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewStore(handle, nil), nil
}

func (s *queryService) Grid(ctx context.Context) (*contract.Grid, error) {
	st, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	cells, err := st.Reports.Cells(ctx)
	if err != nil {
		return nil, err
	}
	return report.Pivot(cells), nil
}

func (s *queryService) Groups(ctx context.Context) ([]contract.GroupView, error) {
	st, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := st.Groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contract.GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, contract.GroupViewOf(g))
	}
	return out, nil
}

func (s *queryService) Employees(ctx context.Context) ([]contract.EmployeeView, error) {
	st, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := groupNames(ctx, st)
	if err != nil {
		return nil, err
	}
	emps, err := st.Employees.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contract.EmployeeView, 0, len(emps))
	for _, e := range emps {
		v := contract.EmployeeViewOf(e)
		v.Group = groups[e.GroupID]
		out = append(out, v)
	}
	return out, nil
}

func (s *queryService) Projects(ctx context.Context) ([]contract.ProjectView, error) {
	st, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := groupNames(ctx, st)
	if err != nil {
		return nil, err
	}
	emps, err := st.Employees.List(ctx)
	if err != nil {
		return nil, err
	}
	empNames := make(map[int64]string, len(emps))
	for _, e := range emps {
		empNames[e.ID] = e.Name
	}
	projects, err := st.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contract.ProjectView, 0, len(projects))
	for _, p := range projects {
		v := contract.ProjectViewOf(p)
		if p.LocalPIID != nil {
			v.LocalPI = empNames[*p.LocalPIID]
		}
		if p.AdminGroupID != nil {
			v.AdminGroup = groups[*p.AdminGroupID]
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *queryService) BudgetLines(ctx context.Context) ([]contract.BudgetLineView, error) {
	st, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := st.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	lines, err := st.BudgetLines.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contract.BudgetLineView, 0, len(lines))
	for _, b := range lines {
		v := contract.BudgetLineViewOf(b)
		v.Project = names[b.ProjectID]
		out = append(out, v)
	}
	return out, nil
}

func groupNames(ctx context.Context, st *repository.Store) (map[int64]string, error) {
	groups, err := st.Groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(groups))
	for _, g := range groups {
		out[g.ID] = g.Name
	}
	return out, nil
}
