package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYearMonth_String(t *testing.T) {
	assert.Equal(t, "Jan 2024", YearMonth{Year: 2024, Month: 1}.String())
	assert.Equal(t, "Dec 2023", YearMonth{Year: 2023, Month: 12}.String())
}

func TestYearMonth_Ordering(t *testing.T) {
	nov := YearMonth{Year: 2023, Month: 11}
	jan := YearMonth{Year: 2024, Month: 1}
	assert.True(t, nov.Before(jan))
	assert.True(t, jan.After(nov))
	assert.False(t, jan.Before(jan))
	assert.Negative(t, CompareYearMonth(nov, jan))
	assert.Zero(t, CompareYearMonth(jan, jan))
}

func TestWindow_Contains(t *testing.T) {
	w := Window{Start: YM(2024, 1), End: YM(2024, 6)}
	assert.True(t, w.Contains(YearMonth{Year: 2024, Month: 1}))
	assert.True(t, w.Contains(YearMonth{Year: 2024, Month: 6}))
	assert.False(t, w.Contains(YearMonth{Year: 2023, Month: 12}))
	assert.False(t, w.Contains(YearMonth{Year: 2024, Month: 7}))

	open := Window{}
	assert.True(t, open.Contains(YearMonth{Year: 1999, Month: 3}))
}

func TestWindow_Valid(t *testing.T) {
	assert.True(t, Window{}.Valid())
	assert.True(t, Window{Start: YM(2024, 1)}.Valid())
	assert.False(t, Window{Start: YM(2024, 13)}.Valid())
	assert.False(t, Window{Start: YM(2024, 6), End: YM(2024, 1)}.Valid())
}

func TestFormatMonths(t *testing.T) {
	got := FormatMonths([]YearMonth{{Year: 2023, Month: 11}, {Year: 2023, Month: 12}})
	assert.Equal(t, "Nov 2023, Dec 2023", got)
}

func TestEmployee_ValidateName(t *testing.T) {
	valid := []string{"Smith,Jane", "Smith,Jane Q", "de la Cruz,Ana Maria"}
	for _, name := range valid {
		e := &Employee{Name: name}
		assert.NoError(t, e.ValidateName(), "should accept %q", name)
	}
	invalid := []string{"Jane Smith", "Smith,", ",Jane", "Smith,Jane,Q"}
	for _, name := range invalid {
		e := &Employee{Name: name}
		assert.ErrorIs(t, e.ValidateName(), ErrValidation, "should reject %q", name)
	}
}

func TestEmployeeName(t *testing.T) {
	assert.Equal(t, "Smith,Jane", EmployeeName("Smith", "Jane", ""))
	assert.Equal(t, "Smith,Jane Q", EmployeeName(" Smith", "Jane ", "Q"))
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ClassConflict, ClassOf(Conflictf("session already open")))
	assert.Equal(t, ClassNotFound, ClassOf(NotFoundf("employee %q", "X")))
	assert.Equal(t, ClassForbidden, ClassOf(ErrForbidden))
	assert.Equal(t, ClassBadRequest, ClassOf(NewValidationError("month", "out of range")))
	assert.Equal(t, ClassFatal, ClassOf(assert.AnError))
	assert.True(t, IsClientError(ErrForbidden))
	assert.False(t, IsClientError(assert.AnError))
}
