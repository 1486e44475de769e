package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/validation"
)

type editService struct {
	iso      isolation.Isolator
	observer UseCaseObserver
}

func NewEditService(iso isolation.Isolator, observers ...UseCaseObserver) EditService {
	return &editService{iso: iso, observer: useCaseObserverOrNoop(observers)}
}

// run validates req, then executes fn inside the session workspace.
func (s *editService) run(ctx context.Context, name string, req any, fields map[string]any, fn func(ctx context.Context, st *repository.Store, rules *validation.Rules) error) (err error) {
	done := track(ctx, s.observer, name, fields)
	defer func() { done(err) }()

	if req != nil {
		if err = contract.Validate(req); err != nil {
			return err
		}
	}
	return s.iso.Run(ctx, func(ctx context.Context, st *repository.Store) error {
		return fn(ctx, st, validation.New(st))
	})
}

func (s *editService) SetEffort(ctx context.Context, req contract.SetEffortRequest) error {
	ym := domain.YearMonth{Year: req.Year, Month: req.Month}
	fields := map[string]any{"allocation_line_id": req.LineID, "month": ym.String(), "percentage": req.Percentage}
	return s.run(ctx, "edit.set_effort", req, fields, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		if req.Percentage == 0 {
			if _, err := st.AllocationLines.GetByID(ctx, req.LineID); err != nil {
				return err
			}
			return st.Efforts.Delete(ctx, req.LineID, ym)
		}
		if err := rules.EffortAllowed(ctx, req.LineID, ym); err != nil {
			return err
		}
		return st.Efforts.Set(ctx, req.LineID, ym, req.Percentage)
	})
}

func (s *editService) AddAllocationLine(ctx context.Context, req contract.AddAllocationLineRequest) (*domain.AllocationLine, error) {
	var line *domain.AllocationLine
	fields := map[string]any{"employee": req.Employee, "code": req.Code}
	err := s.run(ctx, "edit.add_allocation_line", req, fields, func(ctx context.Context, st *repository.Store, _ *validation.Rules) error {
		emp, err := st.Employees.GetByName(ctx, req.Employee)
		if err != nil {
			return err
		}
		bl, err := st.BudgetLines.GetByCode(ctx, req.Code)
		if err != nil {
			return err
		}
		line = &domain.AllocationLine{EmployeeID: emp.ID, BudgetLineID: bl.ID, Accounting: req.Accounting}
		return st.AllocationLines.Create(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *editService) RemoveAllocationLine(ctx context.Context, id int64) error {
	fields := map[string]any{"allocation_line_id": id}
	return s.run(ctx, "edit.remove_allocation_line", nil, fields, func(ctx context.Context, st *repository.Store, _ *validation.Rules) error {
		if _, err := st.AllocationLines.GetByID(ctx, id); err != nil {
			return err
		}
		return st.AllocationLines.Delete(ctx, id)
	})
}

func (s *editService) AddGroup(ctx context.Context, req contract.AddGroupRequest) (*domain.Group, error) {
	g := &domain.Group{Name: strings.TrimSpace(req.Name), IsInternal: req.Internal}
	err := s.run(ctx, "edit.add_group", req, map[string]any{"group": g.Name}, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		if err := rules.GroupNameFree(ctx, g.Name); err != nil {
			return err
		}
		return st.Groups.Create(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *editService) AddEmployee(ctx context.Context, req contract.AddEmployeeRequest) (*domain.Employee, error) {
	e := &domain.Employee{
		Name:   domain.EmployeeName(req.Last, req.First, req.Middle),
		Salary: domain.DefaultSalary,
		Window: req.Window.Window(),
	}
	if req.Salary != nil {
		e.Salary = *req.Salary
	}
	err := s.run(ctx, "edit.add_employee", req, map[string]any{"employee": e.Name}, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		if err := e.ValidateName(); err != nil {
			return err
		}
		if err := rules.EmployeeNameFree(ctx, e.Name); err != nil {
			return err
		}
		g, err := st.Groups.GetByName(ctx, req.Group)
		if err != nil {
			return err
		}
		e.GroupID = g.ID
		return st.Employees.Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *editService) UpdateEmployee(ctx context.Context, req contract.UpdateEmployeeRequest) (*domain.Employee, error) {
	var e *domain.Employee
	err := s.run(ctx, "edit.update_employee", req, map[string]any{"employee": req.Name}, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		var err error
		if e, err = st.Employees.GetByName(ctx, req.Name); err != nil {
			return err
		}
		if req.Group != nil {
			g, err := st.Groups.GetByName(ctx, *req.Group)
			if err != nil {
				return err
			}
			if err := rules.GroupChange(ctx, e.ID, g); err != nil {
				return err
			}
			e.GroupID = g.ID
		}
		if req.Salary != nil {
			e.Salary = *req.Salary
		}
		if req.Window != nil {
			w := req.Window.Window()
			if err := rules.EmployeeWindow(ctx, e.ID, w); err != nil {
				return err
			}
			e.Window = w
		}
		return st.Employees.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *editService) AddProject(ctx context.Context, req contract.AddProjectRequest) (*domain.Project, error) {
	p := &domain.Project{Name: strings.TrimSpace(req.Name), IsNonProject: req.NonProject, Window: req.Window.Window()}
	err := s.run(ctx, "edit.add_project", req, map[string]any{"project": p.Name}, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		if err := rules.ProjectNameFree(ctx, p.Name); err != nil {
			return err
		}
		if p.IsNonProject {
			_, err := st.Projects.GetNonProject(ctx)
			if err == nil {
				return domain.Conflictf("a Non-Project sentinel already exists")
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		var err error
		if p.LocalPIID, err = resolveLocalPI(ctx, st, rules, req.LocalPI); err != nil {
			return err
		}
		if p.AdminGroupID, err = resolveGroup(ctx, st, req.AdminGroup); err != nil {
			return err
		}
		return st.Projects.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *editService) UpdateProject(ctx context.Context, req contract.UpdateProjectRequest) (*domain.Project, error) {
	var p *domain.Project
	err := s.run(ctx, "edit.update_project", req, map[string]any{"project_id": req.ID}, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		var err error
		if p, err = st.Projects.GetByID(ctx, req.ID); err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name != p.Name {
				if err := rules.ProjectNameFree(ctx, name); err != nil {
					return err
				}
				p.Name = name
			}
		}
		if req.LocalPI != nil {
			if p.LocalPIID, err = resolveLocalPI(ctx, st, rules, *req.LocalPI); err != nil {
				return err
			}
		}
		if req.AdminGroup != nil {
			if p.AdminGroupID, err = resolveGroup(ctx, st, *req.AdminGroup); err != nil {
				return err
			}
		}
		if req.Window != nil {
			w := req.Window.Window()
			if err := rules.ProjectWindow(ctx, p.ID, w); err != nil {
				return err
			}
			p.Window = w
		}
		return st.Projects.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// resolveLocalPI maps an employee name to an eligible PI id. Empty clears.
func resolveLocalPI(ctx context.Context, st *repository.Store, rules *validation.Rules, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	emp, err := st.Employees.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := rules.LocalPI(ctx, emp.ID); err != nil {
		return nil, err
	}
	return &emp.ID, nil
}

func resolveGroup(ctx context.Context, st *repository.Store, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	g, err := st.Groups.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &g.ID, nil
}

func (s *editService) AddBudgetLine(ctx context.Context, req contract.AddBudgetLineRequest) (*domain.BudgetLine, error) {
	b := &domain.BudgetLine{
		ProjectID:       req.ProjectID,
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		DisplayName:     strings.TrimSpace(req.DisplayName),
		PersonnelBudget: req.PersonnelBudget,
		Window:          req.Window.Window(),
	}
	fields := map[string]any{"project_id": req.ProjectID}
	err := s.run(ctx, "edit.add_budget_line", req, fields, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		proj, err := st.Projects.GetByID(ctx, b.ProjectID)
		if err != nil {
			return err
		}
		if b.Code == "" {
			last, err := st.BudgetLines.MaxNumericCode(ctx)
			if err != nil {
				return err
			}
			b.Code = strconv.FormatInt(last+1, 10)
		} else if err := rules.BudgetLineCodeFree(ctx, b.Code); err != nil {
			return err
		}
		if b.Name == "" {
			b.Name = proj.Name
		}
		fields["code"] = b.Code
		return st.BudgetLines.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *editService) UpdateBudgetLine(ctx context.Context, req contract.UpdateBudgetLineRequest) (*domain.BudgetLine, error) {
	var b *domain.BudgetLine
	err := s.run(ctx, "edit.update_budget_line", req, map[string]any{"code": req.Code}, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		var err error
		if b, err = st.BudgetLines.GetByCode(ctx, req.Code); err != nil {
			return err
		}
		if req.DisplayName != nil {
			b.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.PersonnelBudget != nil {
			b.PersonnelBudget = req.PersonnelBudget
		}
		if req.Window != nil {
			w := req.Window.Window()
			if err := rules.BudgetLineWindow(ctx, b.ID, w); err != nil {
				return err
			}
			b.Window = w
		}
		return st.BudgetLines.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *editService) ReassignBudgetLine(ctx context.Context, req contract.ReassignBudgetLineRequest) (*domain.BudgetLine, error) {
	var b *domain.BudgetLine
	fields := map[string]any{"code": req.Code, "project_id": req.ProjectID}
	err := s.run(ctx, "edit.reassign_budget_line", req, fields, func(ctx context.Context, st *repository.Store, rules *validation.Rules) error {
		var err error
		if b, err = st.BudgetLines.GetByCode(ctx, req.Code); err != nil {
			return err
		}
		if b.ProjectID == req.ProjectID {
			return nil
		}
		if err := rules.Reassignment(ctx, b.ID, req.ProjectID); err != nil {
			return err
		}
		b.ProjectID = req.ProjectID
		return st.BudgetLines.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
