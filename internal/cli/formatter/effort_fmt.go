package formatter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/report"
)

func FormatSessionStatus(st *contract.SessionStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold("Dataset"), st.Dataset)
	fmt.Fprintf(&b, "%s  %s\n", Bold("Mode   "), st.Mode)
	if st.Session == nil {
		fmt.Fprintf(&b, "%s  %s\n", Bold("Session"), SessionIndicator(""))
		return b.String()
	}
	s := st.Session
	fmt.Fprintf(&b, "%s  %s %s\n", Bold("Session"), SessionIndicator(s.Status), s.Name)
	fmt.Fprintf(&b, "%s  %s\n", Bold("Opened "), s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if s.Path != "" {
		fmt.Fprintf(&b, "%s  %s\n", Bold("Branch "), s.Path)
	}
	return b.String()
}

func FormatSession(s *domain.Session) string {
	line := fmt.Sprintf("%s %s (%s)", SessionIndicator(s.Status), Bold(s.Name), s.Mode)
	if s.Path != "" {
		line += "\n" + Dim("branch: "+s.Path)
	}
	return line + "\n"
}

func FormatMerge(res *domain.MergeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s merged %s: %d change(s)\n", SessionIndicator(res.Session.Status), Bold(res.Session.Name), res.Changes)
	if res.ChangeLogPath != "" {
		fmt.Fprintf(&b, "  change log  %s (%d entries)\n", res.ChangeLogPath, res.ChangeLogEntries)
	}
	if res.BackupPath != "" {
		fmt.Fprintf(&b, "  backup      %s\n", res.BackupPath)
	}
	return b.String()
}

func FormatDiscard(res *domain.DiscardResult) string {
	return fmt.Sprintf("%s discarded %s: %d change(s) undone\n",
		SessionIndicator(res.Session.Status), Bold(res.Session.Name), res.Undone)
}

// FormatGrid renders one row per allocation line followed by each
// employee's monthly totals.
func FormatGrid(g *contract.Grid) string {
	if len(g.Rows) == 0 {
		return Dim("No allocation lines.") + "\n"
	}
	headers := []string{"LINE", "EMPLOYEE", "CODE", "PROJECT"}
	for _, ym := range g.Months {
		headers = append(headers, ym.String())
	}
	rows := make([][]string, 0, len(g.Rows))
	for _, r := range g.Rows {
		project := r.Project
		if r.NonProject {
			project = Dim(project)
		}
		row := []string{strconv.FormatInt(r.LineID, 10), r.Employee, r.Code, project}
		for _, v := range r.Effort {
			if v == 0 {
				row = append(row, Dim("·"))
				continue
			}
			row = append(row, Pct(v))
		}
		rows = append(rows, row)
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	if len(g.Months) == 0 {
		return b.String()
	}

	totals := report.Totals(g)
	names := make([]string, 0, len(totals))
	for n := range totals {
		names = append(names, n)
	}
	slices.Sort(names)
	tHeaders := append([]string{"TOTAL"}, headers[4:]...)
	tRows := make([][]string, 0, len(names))
	for _, n := range names {
		row := []string{n}
		for _, v := range totals[n] {
			row = append(row, TotalStyle(v).Render(Pct(v)))
		}
		tRows = append(tRows, row)
	}
	b.WriteString("\n")
	b.WriteString(RenderTable(tHeaders, tRows))
	return b.String()
}

func FormatFixTotals(resp *contract.FixTotalsResponse) string {
	if len(resp.Changes) == 0 {
		return StyleGreen.Render("All monthly totals are already 100%.") + "\n"
	}
	rows := make([][]string, 0, len(resp.Changes))
	for _, c := range resp.Changes {
		line := strconv.FormatInt(c.LineID, 10)
		if c.LineID == 0 {
			line = StyleBlue.Render("new")
		}
		ym := domain.YearMonth{Year: c.Year, Month: c.Month}
		rows = append(rows, []string{c.Employee, ym.String(), line, Pct(c.Old), Pct(c.New)})
	}
	var b strings.Builder
	b.WriteString(RenderTable([]string{"EMPLOYEE", "MONTH", "LINE", "OLD", "NEW"}, rows))
	fmt.Fprintf(&b, "\n%d change(s), %d line(s) created %s\n", len(resp.Changes), resp.LinesCreated, Dim("run "+resp.RunID))
	return b.String()
}

func FormatHistory(entries []*domain.AuditEntry, now time.Time) string {
	if len(entries) == 0 {
		return Dim("No history.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			RelativeTimeFrom(e.Timestamp, now),
			string(e.Action),
			formatDetails(e.Details),
		})
	}
	return RenderTable([]string{"ID", "WHEN", "ACTION", "DETAILS"}, rows)
}

func formatDetails(d map[string]any) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, d[k]))
	}
	return Dim(strings.Join(parts, " "))
}

func FormatBackups(list []contract.Backup, now time.Time) string {
	if len(list) == 0 {
		return Dim("No backups.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{b.Name, RelativeTimeFrom(b.CreatedAt, now), Bytes(b.SizeBytes)})
	}
	return RenderTable([]string{"NAME", "CREATED", "SIZE"}, rows)
}
