package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

func TestPivot_ColumnsAreDiscoveredMonthsInOrder(t *testing.T) {
	cells := []repository.Cell{
		{LineID: 1, Employee: "Smith,Jane", Code: "NP", Month: domain.YM(2024, 2), Percentage: 40},
		{LineID: 1, Employee: "Smith,Jane", Code: "NP", Month: domain.YM(2023, 12), Percentage: 100},
		{LineID: 2, Employee: "Smith,Jane", Code: "1001", Month: domain.YM(2024, 2), Percentage: 60},
		{LineID: 3, Employee: "Wu,Li", Code: "1001"},
	}
	g := Pivot(cells)

	require.Equal(t, []domain.YearMonth{{Year: 2023, Month: 12}, {Year: 2024, Month: 2}}, g.Months)
	require.Len(t, g.Rows, 3)
	assert.Equal(t, []float64{100, 40}, g.Rows[0].Effort)
	assert.Equal(t, []float64{0, 60}, g.Rows[1].Effort)
	assert.Equal(t, []float64{0, 0}, g.Rows[2].Effort, "lines without effort still get a row")

	totals := Totals(g)
	assert.Equal(t, []float64{100, 100}, totals["Smith,Jane"])
	assert.Equal(t, []float64{0, 0}, totals["Wu,Li"])
}

func TestPivot_Empty(t *testing.T) {
	g := Pivot(nil)
	assert.Empty(t, g.Months)
	assert.NotNil(t, g.Rows)
}
