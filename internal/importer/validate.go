package importer

import (
	"fmt"

	"github.com/alexanderramin/effort/internal/domain"
)

// ValidateSeed checks a seed file for errors before anything is written.
// Returns every problem found.
func ValidateSeed(schema *SeedSchema) []error {
	var errs []error

	groups := make(map[string]bool)
	for i, g := range schema.Groups {
		switch {
		case g.Name == "":
			errs = append(errs, fmt.Errorf("groups[%d].name is required", i))
		case groups[g.Name]:
			errs = append(errs, fmt.Errorf("groups[%d]: duplicate group %q", i, g.Name))
		}
		groups[g.Name] = true
	}

	employees := make(map[string]bool)
	for i, e := range schema.Employees {
		prefix := fmt.Sprintf("employees[%d]", i)
		emp := domain.Employee{Name: e.Name}
		if err := emp.ValidateName(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		} else if employees[e.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate employee %q", prefix, e.Name))
		}
		employees[e.Name] = true
		if !groups[e.Group] {
			errs = append(errs, fmt.Errorf("%s.group: unknown group %q", prefix, e.Group))
		}
		if e.Salary != nil && *e.Salary < 0 {
			errs = append(errs, fmt.Errorf("%s.salary must not be negative", prefix))
		}
		if _, err := e.Window.Window(); err != nil {
			errs = append(errs, fmt.Errorf("%s.window: %w", prefix, err))
		}
	}

	projects := make(map[string]bool)
	codes := make(map[string]bool)
	nonProject := 0
	for i, p := range schema.Projects {
		prefix := fmt.Sprintf("projects[%d]", i)
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		case projects[p.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate project %q", prefix, p.Name))
		}
		projects[p.Name] = true
		if p.NonProject {
			nonProject++
		}
		if p.LocalPI != "" && !employees[p.LocalPI] {
			errs = append(errs, fmt.Errorf("%s.local_pi: unknown employee %q", prefix, p.LocalPI))
		}
		if p.AdminGroup != "" && !groups[p.AdminGroup] {
			errs = append(errs, fmt.Errorf("%s.admin_group: unknown group %q", prefix, p.AdminGroup))
		}
		if _, err := p.Window.Window(); err != nil {
			errs = append(errs, fmt.Errorf("%s.window: %w", prefix, err))
		}
		for j, b := range p.BudgetLines {
			bprefix := fmt.Sprintf("%s.budget_lines[%d]", prefix, j)
			switch {
			case b.Code == "":
				errs = append(errs, fmt.Errorf("%s.code is required", bprefix))
			case codes[b.Code]:
				errs = append(errs, fmt.Errorf("%s: duplicate budget line code %q", bprefix, b.Code))
			}
			codes[b.Code] = true
			if _, err := b.Window.Window(); err != nil {
				errs = append(errs, fmt.Errorf("%s.window: %w", bprefix, err))
			}
		}
	}
	if nonProject > 1 {
		errs = append(errs, fmt.Errorf("projects: at most one Non-Project sentinel allowed, found %d", nonProject))
	}

	for i, a := range schema.Allocations {
		prefix := fmt.Sprintf("allocations[%d]", i)
		if !employees[a.Employee] {
			errs = append(errs, fmt.Errorf("%s.employee: unknown employee %q", prefix, a.Employee))
		}
		if !codes[a.Code] {
			errs = append(errs, fmt.Errorf("%s.code: unknown budget line %q", prefix, a.Code))
		}
		for k, pct := range a.Effort {
			if _, err := ParseMonth(k); err != nil {
				errs = append(errs, fmt.Errorf("%s.effort: %w", prefix, err))
			}
			if pct <= 0 || pct > 100 {
				errs = append(errs, fmt.Errorf("%s.effort[%s]: percentage %.2f must be in (0, 100]", prefix, k, pct))
			}
		}
	}

	return errs
}
