// Package reconcile implements "fix totals": it repairs monthly effort so
// each internal employee's lines sum to 100% by adjusting Non-Project lines.
package reconcile

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// DefaultTolerance is how far from 100% a month may drift before it is
// repaired, and the level at or below which a percentage counts as zero.
var DefaultTolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

type Policy struct {
	// PreferredFundCode orders Non-Project lines carrying this fund code
	// ahead of the rest. Empty means creation order only.
	PreferredFundCode string
	Tolerance         decimal.Decimal
}

func (p Policy) tolerance() decimal.Decimal {
	if p.Tolerance.IsPositive() {
		return p.Tolerance
	}
	return DefaultTolerance
}

// Input is a consistent snapshot of everything the planner looks at.
type Input struct {
	Cells []repository.Cell
	// Windows holds active windows by employee id; absent means open.
	Windows map[int64]domain.Window
	// NonProjectBudgetLineID is where new Non-Project lines are attached,
	// or 0 when the dataset has no sentinel budget line.
	NonProjectBudgetLineID int64
	// NonProjectWindows holds, per Non-Project budget line id, the budget
	// line and project windows a month must fall in before effort is added.
	NonProjectWindows map[int64][]domain.Window
}

func (in Input) allows(budgetLineID int64, ym domain.YearMonth) bool {
	for _, w := range in.NonProjectWindows[budgetLineID] {
		if !w.Contains(ym) {
			return false
		}
	}
	return true
}

// NewLine is a Non-Project line the plan needs created before applying.
type NewLine struct {
	EmployeeID   int64  `json:"employee_id"`
	Employee     string `json:"employee"`
	BudgetLineID int64  `json:"budget_line_id"`
}

// Plan lists the effort adjustments for one run. Changes with a zero
// LineID target the NewLine of the same employee.
type Plan struct {
	Changes  []domain.EffortChange
	NewLines []NewLine
}

func (p *Plan) Empty() bool { return len(p.Changes) == 0 && len(p.NewLines) == 0 }

type employeeState struct {
	id       int64
	name     string
	internal bool
	npLines  []npLine
	pending  bool
	// effort by month and line
	effort map[domain.YearMonth]map[int64]decimal.Decimal
}

type npLine struct {
	id           int64
	budgetLineID int64
	preferred    bool
}

// Build diagnoses every employee month before anything is written, so
// decisions within a month all see the same snapshot.
func Build(in Input, policy Policy) *Plan {
	tol := policy.tolerance()

	employees := map[int64]*employeeState{}
	var order []int64
	monthSet := map[domain.YearMonth]bool{}
	seenLine := map[int64]bool{}

	for _, c := range in.Cells {
		emp, ok := employees[c.EmployeeID]
		if !ok {
			emp = &employeeState{
				id: c.EmployeeID, name: c.Employee, internal: c.Internal,
				effort: map[domain.YearMonth]map[int64]decimal.Decimal{},
			}
			employees[c.EmployeeID] = emp
			order = append(order, c.EmployeeID)
		}
		if c.NonProject && !seenLine[c.LineID] {
			seenLine[c.LineID] = true
			emp.npLines = append(emp.npLines, npLine{
				id:           c.LineID,
				budgetLineID: c.BudgetLineID,
				preferred: policy.PreferredFundCode != "" && c.FundCode == policy.PreferredFundCode,
			})
		}
		if c.Month == nil {
			continue
		}
		monthSet[*c.Month] = true
		byLine := emp.effort[*c.Month]
		if byLine == nil {
			byLine = map[int64]decimal.Decimal{}
			emp.effort[*c.Month] = byLine
		}
		byLine[c.LineID] = byLine[c.LineID].Add(decimal.NewFromFloat(c.Percentage))
	}

	months := make([]domain.YearMonth, 0, len(monthSet))
	for ym := range monthSet {
		months = append(months, ym)
	}
	slices.SortFunc(months, domain.CompareYearMonth)
	slices.Sort(order)
	for _, emp := range employees {
		slices.SortStableFunc(emp.npLines, func(a, b npLine) int {
			if a.preferred != b.preferred {
				if a.preferred {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.id, b.id)
		})
	}

	plan := &Plan{}
	for _, ym := range months {
		for _, id := range order {
			emp := employees[id]
			if !emp.internal {
				continue
			}
			byLine, ok := emp.effort[ym]
			if !ok {
				continue
			}
			if w, ok := in.Windows[emp.id]; ok && !w.Contains(ym) {
				continue
			}

			total := decimal.Zero
			for _, pct := range byLine {
				total = total.Add(pct)
			}
			diff := hundred.Sub(total)
			if diff.Abs().LessThanOrEqual(tol) {
				continue
			}

			if diff.IsPositive() {
				plan.addShortfall(in, emp, ym, byLine, diff)
			} else {
				plan.cutExcess(emp, ym, byLine, diff.Neg(), tol)
			}
		}
	}
	return plan
}

// addShortfall raises the Non-Project line with the most effort this month,
// creating a line first if the employee has none. Lines whose budget line
// or project window excludes the month are not raised.
func (p *Plan) addShortfall(in Input, emp *employeeState, ym domain.YearMonth, byLine map[int64]decimal.Decimal, diff decimal.Decimal) {
	var best int64
	bestPct := decimal.NewFromInt(-1)
	if len(emp.npLines) == 0 {
		if in.NonProjectBudgetLineID == 0 || !in.allows(in.NonProjectBudgetLineID, ym) {
			return
		}
		if !emp.pending {
			emp.pending = true
			p.NewLines = append(p.NewLines, NewLine{EmployeeID: emp.id, Employee: emp.name, BudgetLineID: in.NonProjectBudgetLineID})
		}
		bestPct = decimal.Zero
	}
	for _, l := range emp.npLines {
		if !in.allows(l.budgetLineID, ym) {
			continue
		}
		pct := byLine[l.id]
		if pct.GreaterThan(bestPct) {
			best, bestPct = l.id, pct
		}
	}
	if bestPct.IsNegative() {
		return
	}
	p.Changes = append(p.Changes, domain.EffortChange{
		LineID:     best,
		EmployeeID: emp.id,
		Employee:   emp.name,
		Year:       ym.Year,
		Month:      ym.Month,
		Old:        bestPct.InexactFloat64(),
		New:        bestPct.Add(diff).InexactFloat64(),
	})
}

// cutExcess lowers Non-Project lines in preference order. Lines without
// effort this month are skipped and nothing goes below zero, so a month
// whose project effort alone exceeds 100% stays over.
func (p *Plan) cutExcess(emp *employeeState, ym domain.YearMonth, byLine map[int64]decimal.Decimal, excess, tol decimal.Decimal) {
	for _, l := range emp.npLines {
		if excess.LessThanOrEqual(tol) {
			return
		}
		old, ok := byLine[l.id]
		if !ok || old.LessThanOrEqual(tol) {
			continue
		}
		cut := decimal.Min(old, excess)
		p.Changes = append(p.Changes, domain.EffortChange{
			LineID:     l.id,
			EmployeeID: emp.id,
			Employee:   emp.name,
			Year:       ym.Year,
			Month:      ym.Month,
			Old:        old.InexactFloat64(),
			New:        old.Sub(cut).InexactFloat64(),
		})
		excess = excess.Sub(cut)
	}
}
