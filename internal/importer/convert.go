package importer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alexanderramin/effort/internal/domain"
)

// ParseMonth reads a "YYYY-MM" month.
func ParseMonth(s string) (domain.YearMonth, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 4 {
		return domain.YearMonth{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	y, yerr := strconv.Atoi(parts[0])
	m, merr := strconv.Atoi(parts[1])
	ym := domain.YearMonth{Year: y, Month: m}
	if yerr != nil || merr != nil || !ym.Valid() {
		return domain.YearMonth{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	return ym, nil
}

// Window converts both bounds; an empty bound stays open.
func (w WindowSeed) Window() (domain.Window, error) {
	var out domain.Window
	for _, b := range []struct {
		raw string
		dst **domain.YearMonth
	}{{w.Start, &out.Start}, {w.End, &out.End}} {
		if b.raw == "" {
			continue
		}
		ym, err := ParseMonth(b.raw)
		if err != nil {
			return domain.Window{}, err
		}
		*b.dst = &ym
	}
	if !out.Valid() {
		return domain.Window{}, fmt.Errorf("window %s..%s ends before it starts", w.Start, w.End)
	}
	return out, nil
}

// MonthEffort is one parsed effort cell of an allocation.
type MonthEffort struct {
	domain.YearMonth
	Percentage float64
}

// Months returns the allocation's effort in chronological order.
func (a AllocationSeed) Months() ([]MonthEffort, error) {
	out := make([]MonthEffort, 0, len(a.Effort))
	for k, pct := range a.Effort {
		ym, err := ParseMonth(k)
		if err != nil {
			return nil, err
		}
		out = append(out, MonthEffort{YearMonth: ym, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j].YearMonth) })
	return out, nil
}
