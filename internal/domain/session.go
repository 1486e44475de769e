package domain

import "time"

type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionMerged    SessionStatus = "merged"
	SessionDiscarded SessionStatus = "discarded"
)

// Session describes an editing session. ID is zero for branch sessions,
// which are identified by name and file path.
type Session struct {
	ID         int64         `json:"id,omitempty"`
	Name       string        `json:"name"`
	Mode       string        `json:"mode"`
	Status     SessionStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`
	Path       string        `json:"path,omitempty"`
	SourcePath string        `json:"source_path,omitempty"`
}

type MergeResult struct {
	Session          Session `json:"session"`
	Changes          int     `json:"changes"`
	ChangeLogEntries int     `json:"change_log_entries"`
	ChangeLogPath    string  `json:"change_log_path,omitempty"`
	BackupPath       string  `json:"backup_path,omitempty"`
}

type DiscardResult struct {
	Session Session `json:"session"`
	Undone  int     `json:"undone"`
}
