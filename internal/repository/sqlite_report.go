package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
)

// SQLiteReportRepo implements ReportRepo using a SQLite database.
type SQLiteReportRepo struct {
	db db.DBTX
}

// NewSQLiteReportRepo creates a new SQLiteReportRepo.
func NewSQLiteReportRepo(db db.DBTX) *SQLiteReportRepo {
	return &SQLiteReportRepo{db: db}
}

func (r *SQLiteReportRepo) Cells(ctx context.Context) ([]Cell, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT al.id, emp.id, emp.name, g.name, g.is_internal,
		       bl.id, bl.budget_line_code, COALESCE(NULLIF(bl.display_name, ''), bl.name, ''),
		       p.id, p.name, p.is_nonproject,
		       al.fund_code, al.source, al.account, al.cost_code_1, al.cost_code_2, al.cost_code_3, al.program_code,
		       e.year, e.month, e.percentage
		FROM allocation_lines al
		JOIN employees emp   ON emp.id = al.employee_id
		JOIN groups g        ON g.id = emp.group_id
		JOIN budget_lines bl ON bl.id = al.budget_line_id
		JOIN projects p      ON p.id = bl.project_id
		LEFT JOIN efforts e  ON e.allocation_line_id = al.id
		ORDER BY emp.name, al.id, e.year, e.month`)
	if err != nil {
		return nil, fmt.Errorf("loading cells: %w", err)
	}
	defer rows.Close()

	var out []Cell
	for rows.Next() {
		var c Cell
		var internal, nonProject int
		var fund, source, account, cc1, cc2, cc3, program sql.NullString
		var year, month sql.NullInt64
		var pct sql.NullFloat64
		if err := rows.Scan(&c.LineID, &c.EmployeeID, &c.Employee, &c.Group, &internal,
			&c.BudgetLineID, &c.Code, &c.BudgetLine,
			&c.ProjectID, &c.Project, &nonProject,
			&fund, &source, &account, &cc1, &cc2, &cc3, &program,
			&year, &month, &pct); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		c.Internal = intToBool(internal)
		c.NonProject = intToBool(nonProject)
		c.Accounting = domain.Accounting{
			FundCode: fund.String, Source: source.String, Account: account.String,
			CostCode1: cc1.String, CostCode2: cc2.String, CostCode3: cc3.String,
			ProgramCode: program.String,
		}
		if year.Valid && month.Valid {
			c.Month = domain.YM(int(year.Int64), int(month.Int64))
			c.Percentage = pct.Float64
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cells: %w", err)
	}
	return out, nil
}
