package models

import "time"

// ActionType enumerates the user actions recorded against a record.
type ActionType string

const (
	ActionView        ActionType = "view"
	ActionDownload    ActionType = "download"
	ActionShowDetails ActionType = "show_details"
)

// HistoryEntry is one logged user action. Entries are append-only.
type HistoryEntry struct {
	ID            int64      `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"-"`
	RecordID      int64      `db:"record_id" json:"recordId"`
	Action        ActionType `db:"action" json:"action"`
	ActionAt      time.Time  `db:"action_at" json:"actionDate"`
	RecordTitle   string     `db:"record_title" json:"recordName"`
	RecordTitleAr *string    `db:"record_title_ar" json:"recordNameAr,omitempty"`
}

// HistoryAggregate collapses a record's entries into the latest entry per
// action type. A nil slot means the action was never performed.
type HistoryAggregate struct {
	RecordID       int64         `json:"recordId"`
	RecordTitle    string        `json:"recordName"`
	RecordTitleAr  *string       `json:"recordNameAr,omitempty"`
	View           *HistoryEntry `json:"view,omitempty"`
	Download       *HistoryEntry `json:"download,omitempty"`
	ShowDetails    *HistoryEntry `json:"showDetails,omitempty"`
	LatestActivity time.Time     `json:"latestActivity"`
}
