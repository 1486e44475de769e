package changelog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/effort/internal/domain"
)

// Header is the first line of every change log.
var Header = []string{"type", "employee", "code", "year", "month", "old_value", "new_value"}

// TimestampLayout renders artifact timestamps as 20240131_142501_123456.
const TimestampLayout = "20060102_150405.000000"

// Timestamp formats t for use in artifact file names.
func Timestamp(t time.Time) string {
	return strings.Replace(t.UTC().Format(TimestampLayout), ".", "_", 1)
}

// FileName returns the change log name for a session merged at t.
func FileName(session string, t time.Time) string {
	return fmt.Sprintf("merge_%s_%s.tsv", session, Timestamp(t))
}

// Row renders one record as TSV cells.
func Row(r domain.ChangeRecord) []string {
	year, month := "", ""
	if r.Year != 0 {
		year = strconv.Itoa(r.Year)
		month = strconv.Itoa(r.Month)
	}
	return []string{string(r.Kind), r.Employee, r.Code, year, month, percent(r.Old), percent(r.New)}
}

func percent(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// WriteFile writes records to path through a temp file and a rename. It
// writes nothing and returns false when there are no records.
func WriteFile(path string, records []domain.ChangeRecord) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".merge-*.tsv")
	if err != nil {
		return false, fmt.Errorf("creating change log: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(strings.Join(Header, "\t") + "\n"); err != nil {
		cleanup()
		return false, fmt.Errorf("writing change log: %w", err)
	}
	for _, r := range records {
		if _, err := w.WriteString(strings.Join(Row(r), "\t") + "\n"); err != nil {
			cleanup()
			return false, fmt.Errorf("writing change log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return false, fmt.Errorf("flushing change log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return false, fmt.Errorf("syncing change log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("closing change log: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("moving change log into place: %w", err)
	}
	return true, nil
}
