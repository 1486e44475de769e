package domain

import (
	"fmt"
	"strings"
)

var monthAbbr = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (ym YearMonth) index() int { return ym.Year*12 + ym.Month }

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool { return ym.index() < other.index() }

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool { return ym.index() > other.index() }

// Valid reports whether the month is in 1..12 and the year has four digits.
func (ym YearMonth) Valid() bool {
	return ym.Month >= 1 && ym.Month <= 12 && ym.Year >= 1000 && ym.Year <= 9999
}

// String renders the month as "Jan 2024".
func (ym YearMonth) String() string {
	if ym.Month < 1 || ym.Month > 12 {
		return fmt.Sprintf("%02d/%d", ym.Month, ym.Year)
	}
	return fmt.Sprintf("%s %d", monthAbbr[ym.Month], ym.Year)
}

// CompareYearMonth orders months chronologically, for use with slices.SortFunc.
func CompareYearMonth(a, b YearMonth) int {
	return a.index() - b.index()
}

// Window is an optional active period. A nil bound is open-ended.
type Window struct {
	Start *YearMonth `json:"start,omitempty"`
	End   *YearMonth `json:"end,omitempty"`
}

// Contains reports whether ym falls inside the window.
func (w Window) Contains(ym YearMonth) bool {
	if w.Start != nil && ym.Before(*w.Start) {
		return false
	}
	if w.End != nil && ym.After(*w.End) {
		return false
	}
	return true
}

// Valid reports whether both bounds are well formed and ordered.
func (w Window) Valid() bool {
	if w.Start != nil && !w.Start.Valid() {
		return false
	}
	if w.End != nil && !w.End.Valid() {
		return false
	}
	if w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return false
	}
	return true
}

// FormatMonths joins months as "Nov 2023, Dec 2023".
func FormatMonths(months []YearMonth) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// YM is shorthand for constructing a *YearMonth.
func YM(year, month int) *YearMonth {
	return &YearMonth{Year: year, Month: month}
}
