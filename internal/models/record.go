package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// StringSet is a set of tags stored as a single comma-joined column.
// Splitting happens once at scan time so filter passes never re-parse.
type StringSet []string

// Value joins the tags for persistence.
func (s StringSet) Value() (driver.Value, error) {
	cleaned := make([]string, 0, len(s))
	for _, tag := range s {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, ","), nil
}

// Scan splits a comma-joined column into the set.
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for StringSet", value)
	}
	if strings.TrimSpace(raw) == "" {
		*s = nil
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make(StringSet, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	*s = result
	return nil
}

// Record represents one regulatory document entry.
// VersionDate is kept as the raw stored string: legacy rows carry mixed
// formats and blanks, so parsing is deferred to the filter engine.
type Record struct {
	ID            int64      `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	TitleAr       *string    `db:"title_ar" json:"titleAr,omitempty"`
	Department    string     `db:"department" json:"department"`
	Sections      StringSet  `db:"sections" json:"sections"`
	DocumentTypes StringSet  `db:"document_types" json:"documentTypes"`
	VersionDate   string     `db:"version_date" json:"versionDate,omitempty"`
	FilePath      string     `db:"file_path" json:"-"`
	MimeType      string     `db:"mime_type" json:"mimeType,omitempty"`
	SizeBytes     int64      `db:"size_bytes" json:"sizeBytes,omitempty"`
	CreatedBy     string     `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// RecordCatalog lists the distinct filter values present in the record set,
// used by clients to populate filter dropdowns.
type RecordCatalog struct {
	Departments   []string `json:"departments"`
	Sections      []string `json:"sections"`
	DocumentTypes []string `json:"documentTypes"`
}
