// Package report shapes effort data for display.
package report

import (
	"slices"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// Pivot builds the spreadsheet grid from report cells. Columns are the
// months that carry effort anywhere, ascending; rows keep the cell order.
func Pivot(cells []repository.Cell) *contract.Grid {
	seen := make(map[domain.YearMonth]bool)
	var months []domain.YearMonth
	for _, c := range cells {
		if c.Month != nil && !seen[*c.Month] {
			seen[*c.Month] = true
			months = append(months, *c.Month)
		}
	}
	slices.SortFunc(months, domain.CompareYearMonth)

	col := make(map[domain.YearMonth]int, len(months))
	for i, ym := range months {
		col[ym] = i
	}

	grid := &contract.Grid{Months: months, Rows: []contract.GridRow{}}
	if grid.Months == nil {
		grid.Months = []domain.YearMonth{}
	}
	rowOf := make(map[int64]int)
	for _, c := range cells {
		i, ok := rowOf[c.LineID]
		if !ok {
			i = len(grid.Rows)
			rowOf[c.LineID] = i
			grid.Rows = append(grid.Rows, contract.GridRow{
				LineID:     c.LineID,
				Employee:   c.Employee,
				Group:      c.Group,
				Project:    c.Project,
				Code:       c.Code,
				BudgetLine: c.BudgetLine,
				NonProject: c.NonProject,
				Accounting: c.Accounting,
				Effort:     make([]float64, len(months)),
			})
		}
		if c.Month != nil {
			grid.Rows[i].Effort[col[*c.Month]] += c.Percentage
		}
	}
	return grid
}

// Totals sums each employee's effort per grid column.
func Totals(g *contract.Grid) map[string][]float64 {
	out := make(map[string][]float64)
	for _, r := range g.Rows {
		t, ok := out[r.Employee]
		if !ok {
			t = make([]float64, len(g.Months))
			out[r.Employee] = t
		}
		for i, v := range r.Effort {
			t[i] += v
		}
	}
	return out
}
