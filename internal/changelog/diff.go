// Package changelog builds the human-readable record of what a merge
// changed: a keyed diff of two dataset snapshots and its TSV rendering.
package changelog

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// EffortKey identifies an effort cell by natural identifiers.
type EffortKey struct {
	Employee string
	Code     string
	Year     int
	Month    int
}

// LineKey identifies allocation lines by employee and budget line code.
type LineKey struct {
	Employee string
	Code     string
}

// Snapshot holds one store's effort values and allocation line counts.
// Effort of several lines sharing a key is summed.
type Snapshot struct {
	Efforts map[EffortKey]float64
	Lines   map[LineKey]int
}

// Load reads a snapshot through q.
func Load(ctx context.Context, q db.DBTX) (*Snapshot, error) {
	cells, err := repository.NewSQLiteReportRepo(q).Cells(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return FromCells(cells), nil
}

// FromCells builds a snapshot from report cells.
func FromCells(cells []repository.Cell) *Snapshot {
	s := &Snapshot{Efforts: map[EffortKey]float64{}, Lines: map[LineKey]int{}}
	seen := map[int64]bool{}
	for _, c := range cells {
		if !seen[c.LineID] {
			seen[c.LineID] = true
			s.Lines[LineKey{Employee: c.Employee, Code: c.Code}]++
		}
		if c.Month != nil {
			k := EffortKey{Employee: c.Employee, Code: c.Code, Year: c.Month.Year, Month: c.Month.Month}
			s.Efforts[k] += c.Percentage
		}
	}
	return s
}

// Diff classifies every key present in either snapshot. Effort records come
// first, then one allocation line record per unit of count difference; both
// groups are sorted so the same two stores always give the same log.
func Diff(main, branch *Snapshot) []domain.ChangeRecord {
	var out []domain.ChangeRecord

	effortKeys := make([]EffortKey, 0, len(main.Efforts)+len(branch.Efforts))
	for k := range main.Efforts {
		effortKeys = append(effortKeys, k)
	}
	for k := range branch.Efforts {
		if _, ok := main.Efforts[k]; !ok {
			effortKeys = append(effortKeys, k)
		}
	}
	slices.SortFunc(effortKeys, compareEffortKeys)

	for _, k := range effortKeys {
		old, inMain := main.Efforts[k]
		cur, inBranch := branch.Efforts[k]
		rec := domain.ChangeRecord{Employee: k.Employee, Code: k.Code, Year: k.Year, Month: k.Month}
		switch {
		case !inMain:
			rec.Kind = domain.EffortAdded
			rec.New = &cur
		case !inBranch:
			rec.Kind = domain.EffortRemoved
			rec.Old = &old
		case old != cur:
			rec.Kind = domain.EffortChanged
			rec.Old, rec.New = &old, &cur
		default:
			continue
		}
		out = append(out, rec)
	}

	lineKeys := make([]LineKey, 0, len(main.Lines)+len(branch.Lines))
	for k := range main.Lines {
		lineKeys = append(lineKeys, k)
	}
	for k := range branch.Lines {
		if _, ok := main.Lines[k]; !ok {
			lineKeys = append(lineKeys, k)
		}
	}
	slices.SortFunc(lineKeys, func(a, b LineKey) int {
		return cmp.Or(cmp.Compare(a.Employee, b.Employee), cmp.Compare(a.Code, b.Code))
	})

	for _, k := range lineKeys {
		delta := branch.Lines[k] - main.Lines[k]
		kind := domain.AllocationLineAdded
		if delta < 0 {
			kind, delta = domain.AllocationLineRemoved, -delta
		}
		for range delta {
			out = append(out, domain.ChangeRecord{Kind: kind, Employee: k.Employee, Code: k.Code})
		}
	}
	return out
}

func compareEffortKeys(a, b EffortKey) int {
	return cmp.Or(
		cmp.Compare(a.Employee, b.Employee),
		cmp.Compare(a.Code, b.Code),
		cmp.Compare(a.Year, b.Year),
		cmp.Compare(a.Month, b.Month),
	)
}
