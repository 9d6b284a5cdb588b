package service

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// SortMode selects the single active ordering of filter results.
type SortMode string

const (
	SortNone             SortMode = ""
	SortAlphabetical     SortMode = "alphabetical"
	SortAlphabeticalDesc SortMode = "alphabetical_desc"
	SortNewest           SortMode = "newest"
	SortOldest           SortMode = "oldest"
)

/// FilterCriteria holds the browse filters. Zero values mean "not active":
// empty strings, nil slices and false flags leave the predicate out
// entirely, so an empty criteria returns every record.
type FilterCriteria struct {
	Department    string
	Sections      []string
	DocumentTypes []string
	Title         string
	DateFrom      *time.Time
	DateTo        *time.Time
	SavedOnly     bool
	Sort          SortMode
}

var versionDateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseVersionDate parses a stored version date string, trying the ISO
// layout first, then the legacy day-first layout, then RFC 3339. The
// result is truncated to local midnight so range comparisons work on
// whole days. ok is false when no layout matches; an unparseable date
// is a signal, not an error.
func ParseVersionDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range versionDateLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.Local), true
		}
	}
	return time.Time{}, false
}

func containsFold(values models.StringSet, wanted []string) bool {
	for _, w := range wanted {
		for _, v := range values {
			if strings.EqualFold(strings.TrimSpace(w), v) {
				return true
			}
		}
	}
	return false
}

func matches(record models.Record, criteria FilterCriteria, savedIDs map[int64]struct{}) bool {
	if criteria.Department != "" && !strings.EqualFold(record.Department, criteria.Department) {
		return false
	}
	if len(criteria.Sections) > 0 && !containsFold(record.Sections, criteria.Sections) {
		return false
	}
	if len(criteria.DocumentTypes) > 0 && !containsFold(record.DocumentTypes, criteria.DocumentTypes) {
		return false
	}
	if criteria.Title != "" {
		needle := strings.ToLower(strings.TrimSpace(criteria.Title))
		if !strings.Contains(strings.ToLower(record.Title), needle) {
			return false
		}
	}
	if criteria.DateFrom != nil || criteria.DateTo != nil {
		date, ok := ParseVersionDate(record.VersionDate)
		if !ok {
			return false
		}
		if criteria.DateFrom != nil && date.Before(*criteria.DateFrom) {
			return false
		}
		if criteria.DateTo != nil && date.After(*criteria.DateTo) {
			return false
		}
	}
	if criteria.SavedOnly {
		if _, ok := savedIDs[record.ID]; !ok {
			return false
		}
	}
	return true
}

func newTitleCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}

func sortRecords(records []models.Record, mode SortMode) {
	switch mode {
	case SortAlphabetical, SortAlphabeticalDesc:
		c := newTitleCollator()
		asc := mode == SortAlphabetical
		sort.SliceStable(records, func(i, j int) bool {
			cmp := c.CompareString(records[i].Title, records[j].Title)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	case SortNewest, SortOldest:
		// Records without a parseable date always sink to the end,
		// in either direction.
		type dated struct {
			rec models.Record
			ts  time.Time
			ok  bool
		}
		entries := make([]dated, len(records))
		for i, rec := range records {
			ts, ok := ParseVersionDate(rec.VersionDate)
			entries[i] = dated{rec: rec, ts: ts, ok: ok}
		}
		newest := mode == SortNewest
		sort.SliceStable(entries, func(i, j int) bool {
			di, dj := entries[i], entries[j]
			if di.ok != dj.ok {
				return di.ok
			}
			if !di.ok {
				return false
			}
			if newest {
				return di.ts.After(dj.ts)
			}
			return di.ts.Before(dj.ts)
		})
		for i, entry := range entries {
			records[i] = entry.rec
		}
	}
}

// FilterRecords applies every active criterion as an AND predicate over the
// snapshot, then applies at most one sort. With no sort selected the input
// order is preserved. The result is the ordered list of matching record ids;
// the input slice is never mutated.
func FilterRecords(records []models.Record, criteria FilterCriteria, savedIDs map[int64]struct{}) []int64 {
	filtered := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if matches(rec, criteria, savedIDs) {
			filtered = append(filtered, rec)
		}
	}
	sortRecords(filtered, criteria.Sort)
	ids := make([]int64, len(filtered))
	for i, rec := range filtered {
		ids[i] = rec.ID
	}
	return ids
}

// FilterRecordsFull behaves like FilterRecords but returns the full records,
// used by handlers that render the list directly.
func FilterRecordsFull(records []models.Record, criteria FilterCriteria, savedIDs map[int64]struct{}) []models.Record {
	filtered := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if matches(rec, criteria, savedIDs) {
			filtered = append(filtered, rec)
		}
	}
	sortRecords(filtered, criteria.Sort)
	return filtered
}
