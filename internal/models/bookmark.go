package models

import "time"

// Bookmark marks a record as saved by a user.
type Bookmark struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	RecordID  int64     `db:"record_id" json:"recordId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
