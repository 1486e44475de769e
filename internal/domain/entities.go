package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSalary is assigned to employees created without an explicit salary.
const DefaultSalary = 120000.0

var employeeNamePattern = regexp.MustCompile(`^[^,\s][^,]*,[^,\s]+( [^,\s]+)*$`)

type Group struct {
	ID         int64
	Name       string
	IsInternal bool
}

type Employee struct {
	ID      int64
	Name    string
	GroupID int64
	Salary  float64
	Window  Window
}

// ValidateName checks the "Last,First[ Middle]" display format.
func (e *Employee) ValidateName() error {
	if !employeeNamePattern.MatchString(e.Name) {
		return NewValidationError("name", "employee name %q must be formatted as Last,First[ Middle]", e.Name)
	}
	return nil
}

// EmployeeName joins name parts into the stored display form.
func EmployeeName(last, first, middle string) string {
	name := fmt.Sprintf("%s,%s", strings.TrimSpace(last), strings.TrimSpace(first))
	if m := strings.TrimSpace(middle); m != "" {
		name += " " + m
	}
	return name
}

type Project struct {
	ID           int64
	Name         string
	LocalPIID    *int64
	AdminGroupID *int64
	IsNonProject bool
	Window       Window
}

type BudgetLine struct {
	ID              int64
	ProjectID       int64
	Code            string
	Name            string
	DisplayName     string
	Window          Window
	PersonnelBudget *float64
}

// Label prefers the user-editable display name over the finance name.
func (b *BudgetLine) Label() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.Name
}

// Accounting carries the optional cost attributes of an allocation line.
type Accounting struct {
	FundCode    string `json:"fund_code,omitempty" yaml:"fund_code"`
	Source      string `json:"source,omitempty" yaml:"source"`
	Account     string `json:"account,omitempty" yaml:"account"`
	CostCode1   string `json:"cost_code_1,omitempty" yaml:"cost_code_1"`
	CostCode2   string `json:"cost_code_2,omitempty" yaml:"cost_code_2"`
	CostCode3   string `json:"cost_code_3,omitempty" yaml:"cost_code_3"`
	ProgramCode string `json:"program_code,omitempty" yaml:"program_code"`
}

type AllocationLine struct {
	ID           int64
	EmployeeID   int64
	BudgetLineID int64
	Accounting
}

type Effort struct {
	ID               int64
	AllocationLineID int64
	YearMonth
	Percentage float64
}
