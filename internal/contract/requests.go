// Package contract defines the request and response shapes shared by the
// HTTP and CLI surfaces.
package contract

import "github.com/alexanderramin/effort/internal/domain"

// WindowInput is an active window with independently optional bounds.
type WindowInput struct {
	StartYear  *int `json:"start_year,omitempty" yaml:"start_year" validate:"omitempty,min=1000,max=9999"`
	StartMonth *int `json:"start_month,omitempty" yaml:"start_month" validate:"omitempty,min=1,max=12"`
	EndYear    *int `json:"end_year,omitempty" yaml:"end_year" validate:"omitempty,min=1000,max=9999"`
	EndMonth   *int `json:"end_month,omitempty" yaml:"end_month" validate:"omitempty,min=1,max=12"`
}

func (w WindowInput) Window() domain.Window {
	var out domain.Window
	if w.StartYear != nil && w.StartMonth != nil {
		out.Start = domain.YM(*w.StartYear, *w.StartMonth)
	}
	if w.EndYear != nil && w.EndMonth != nil {
		out.End = domain.YM(*w.EndYear, *w.EndMonth)
	}
	return out
}

// WindowOf converts a domain window back into input form.
func WindowOf(w domain.Window) WindowInput {
	var out WindowInput
	if w.Start != nil {
		out.StartYear, out.StartMonth = &w.Start.Year, &w.Start.Month
	}
	if w.End != nil {
		out.EndYear, out.EndMonth = &w.End.Year, &w.End.Month
	}
	return out
}

type OpenSessionRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=64"`
}

// SetEffortRequest writes one cell. A zero percentage clears it.
type SetEffortRequest struct {
	LineID     int64   `json:"allocation_line_id" validate:"required,gt=0"`
	Year       int     `json:"year" validate:"min=1000,max=9999"`
	Month      int     `json:"month" validate:"min=1,max=12"`
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
}

type AddAllocationLineRequest struct {
	Employee string `json:"employee" validate:"required"`
	Code     string `json:"code" validate:"required"`
	domain.Accounting
}

type AddGroupRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Internal bool   `json:"is_internal"`
}

type AddEmployeeRequest struct {
	Last   string      `json:"last_name" validate:"required,excludesall=0x2C"`
	First  string      `json:"first_name" validate:"required,excludesall=0x2C"`
	Middle string      `json:"middle_name,omitempty" validate:"excludesall=0x2C"`
	Group  string      `json:"group" validate:"required"`
	Salary *float64    `json:"salary,omitempty" validate:"omitempty,gte=0"`
	Window WindowInput `json:"window"`
}

// UpdateEmployeeRequest changes only the fields that are set. A non-nil
// Window replaces both bounds.
type UpdateEmployeeRequest struct {
	Name   string       `json:"name" validate:"required,employee_name"`
	Group  *string      `json:"group,omitempty" validate:"omitempty,min=1"`
	Salary *float64     `json:"salary,omitempty" validate:"omitempty,gte=0"`
	Window *WindowInput `json:"window,omitempty"`
}

type AddProjectRequest struct {
	Name       string      `json:"name" validate:"required,max=200"`
	LocalPI    string      `json:"local_pi,omitempty"`
	AdminGroup string      `json:"admin_group,omitempty"`
	NonProject bool        `json:"is_nonproject,omitempty"`
	Window     WindowInput `json:"window"`
}

// UpdateProjectRequest changes only the fields that are set. Empty strings
// for LocalPI or AdminGroup clear the link.
type UpdateProjectRequest struct {
	ID         int64        `json:"id" validate:"required,gt=0"`
	Name       *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	LocalPI    *string      `json:"local_pi,omitempty"`
	AdminGroup *string      `json:"admin_group,omitempty"`
	Window     *WindowInput `json:"window,omitempty"`
}

// AddBudgetLineRequest creates a budget line. An empty Code is assigned the
// next numeric code.
type AddBudgetLineRequest struct {
	ProjectID       int64       `json:"project_id" validate:"required,gt=0"`
	Code            string      `json:"code,omitempty" validate:"max=64"`
	Name            string      `json:"name,omitempty" validate:"max=200"`
	DisplayName     string      `json:"display_name,omitempty" validate:"max=200"`
	PersonnelBudget *float64    `json:"personnel_budget,omitempty" validate:"omitempty,gte=0"`
	Window          WindowInput `json:"window"`
}

type UpdateBudgetLineRequest struct {
	Code            string       `json:"code" validate:"required"`
	DisplayName     *string      `json:"display_name,omitempty" validate:"omitempty,max=200"`
	PersonnelBudget *float64     `json:"personnel_budget,omitempty" validate:"omitempty,gte=0"`
	Window          *WindowInput `json:"window,omitempty"`
}

type ReassignBudgetLineRequest struct {
	Code      string `json:"code" validate:"required"`
	ProjectID int64  `json:"project_id" validate:"required,gt=0"`
}
