package domain

import "time"

type AuditAction string

const (
	AuditSessionOpen  AuditAction = "session_open"
	AuditMerge        AuditAction = "merge"
	AuditDiscard      AuditAction = "discard"
	AuditBranchCreate AuditAction = "branch_create"
	AuditBranchDelete AuditAction = "branch_delete"
	AuditFixTotals    AuditAction = "fix_totals"
	AuditRevert       AuditAction = "revert"
	AuditSeed         AuditAction = "seed"
)

type AuditEntry struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    AuditAction    `json:"action"`
	Details   map[string]any `json:"details"`
}

// EffortChange is one adjustment planned or applied by fix totals.
// LineID is zero for a line that does not exist yet.
type EffortChange struct {
	LineID     int64   `json:"allocation_line_id"`
	EmployeeID int64   `json:"employee_id"`
	Employee   string  `json:"employee"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Old        float64 `json:"old_percentage"`
	New        float64 `json:"new_percentage"`
}

type ChangeKind string

const (
	EffortAdded           ChangeKind = "effort_added"
	EffortRemoved         ChangeKind = "effort_removed"
	EffortChanged         ChangeKind = "effort_changed"
	AllocationLineAdded   ChangeKind = "allocation_line_added"
	AllocationLineRemoved ChangeKind = "allocation_line_removed"
)

// ChangeRecord is one row of a merge change log. Year and Month are zero for
// allocation line records; Old and New are nil when absent.
type ChangeRecord struct {
	Kind     ChangeKind `json:"type"`
	Employee string     `json:"employee"`
	Code     string     `json:"code"`
	Year     int        `json:"year,omitempty"`
	Month    int        `json:"month,omitempty"`
	Old      *float64   `json:"old_value,omitempty"`
	New      *float64   `json:"new_value,omitempty"`
}
