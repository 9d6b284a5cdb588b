package models

import "time"

// Contact is one entry in the admin-managed contact directory.
type Contact struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Department string     `db:"department" json:"department"`
	Email      string     `db:"email" json:"email"`
	Phone      string     `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}
