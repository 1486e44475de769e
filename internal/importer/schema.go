// Package importer reads seed files that bootstrap a fresh dataset.
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/effort/internal/domain"
)

// SeedSchema is the top-level structure of a seed file. Entities refer to
// each other by natural key: group and employee names, budget line codes.
type SeedSchema struct {
	Groups      []GroupSeed      `json:"groups" yaml:"groups"`
	Employees   []EmployeeSeed   `json:"employees" yaml:"employees"`
	Projects    []ProjectSeed    `json:"projects" yaml:"projects"`
	Allocations []AllocationSeed `json:"allocations" yaml:"allocations"`
}

type GroupSeed struct {
	Name     string `json:"name" yaml:"name"`
	Internal bool   `json:"is_internal" yaml:"is_internal"`
}

// WindowSeed bounds are "YYYY-MM" strings; empty is open-ended.
type WindowSeed struct {
	Start string `json:"start,omitempty" yaml:"start"`
	End   string `json:"end,omitempty" yaml:"end"`
}

type EmployeeSeed struct {
	Name   string     `json:"name" yaml:"name"`
	Group  string     `json:"group" yaml:"group"`
	Salary *float64   `json:"salary,omitempty" yaml:"salary"`
	Window WindowSeed `json:"window" yaml:"window"`
}

type ProjectSeed struct {
	Name        string           `json:"name" yaml:"name"`
	LocalPI     string           `json:"local_pi,omitempty" yaml:"local_pi"`
	AdminGroup  string           `json:"admin_group,omitempty" yaml:"admin_group"`
	NonProject  bool             `json:"is_nonproject,omitempty" yaml:"is_nonproject"`
	Window      WindowSeed       `json:"window" yaml:"window"`
	BudgetLines []BudgetLineSeed `json:"budget_lines" yaml:"budget_lines"`
}

type BudgetLineSeed struct {
	Code            string     `json:"code" yaml:"code"`
	Name            string     `json:"name,omitempty" yaml:"name"`
	DisplayName     string     `json:"display_name,omitempty" yaml:"display_name"`
	PersonnelBudget *float64   `json:"personnel_budget,omitempty" yaml:"personnel_budget"`
	Window          WindowSeed `json:"window" yaml:"window"`
}

// AllocationSeed is one allocation line. Effort maps "YYYY-MM" to a
// percentage.
type AllocationSeed struct {
	Employee          string             `json:"employee" yaml:"employee"`
	Code              string             `json:"code" yaml:"code"`
	domain.Accounting `yaml:",inline"`
	Effort            map[string]float64 `json:"effort,omitempty" yaml:"effort"`
}

// LoadSeed reads a seed file. ".json" files are parsed as JSON and
// everything else as YAML.
func LoadSeed(path string) (*SeedSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var schema SeedSchema
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &schema)
	} else {
		err = yaml.Unmarshal(data, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &schema, nil
}
