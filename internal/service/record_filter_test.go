package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/regdocs-api/internal/models"
)

func strPtr(s string) *string { return &s }

func localDate(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return &d
}

func filterFixtures() []models.Record {
	return []models.Record{
		{ID: 1, Title: "Network Policy", Department: "IT", Sections: models.StringSet{"Networks"}, DocumentTypes: models.StringSet{"Policy"}, VersionDate: "2024-03-10"},
		{ID: 2, Title: "Leave Guide", Department: "HR", Sections: models.StringSet{"Benefits"}, DocumentTypes: models.StringSet{"Guide"}, VersionDate: "15/01/2024"},
		{ID: 3, Title: "Student Handbook", Department: "Students", Sections: models.StringSet{"Admissions", "Networks"}, DocumentTypes: models.StringSet{"Manual"}, VersionDate: "2023-09-01T08:30:00Z"},
		{ID: 4, Title: "security baseline", Department: "IT", Sections: models.StringSet{"Security"}, DocumentTypes: models.StringSet{"Policy", "Manual"}, VersionDate: "not a date"},
		{ID: 5, Title: "Archive Notes", Department: "IT", Sections: models.StringSet{"Networks"}, DocumentTypes: models.StringSet{"Guide"}, VersionDate: ""},
	}
}

func TestFilterRecordsEmptyCriteriaReturnsAllInOrder(t *testing.T) {
	records := filterFixtures()
	ids := FilterRecords(records, FilterCriteria{}, nil)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestFilterRecordsEmptyInput(t *testing.T) {
	ids := FilterRecords(nil, FilterCriteria{Department: "IT"}, nil)
	require.Empty(t, ids)
}

func TestFilterRecordsDepartmentCaseInsensitive(t *testing.T) {
	ids := FilterRecords(filterFixtures(), FilterCriteria{Department: "it"}, nil)
	require.Equal(t, []int64{1, 4, 5}, ids)
}

func TestFilterRecordsCriteriaAreANDed(t *testing.T) {
	// department IT AND type Guide leaves only one of the three IT records
	ids := FilterRecords(filterFixtures(), FilterCriteria{
		Department:    "IT",
		DocumentTypes: []string{"Guide"},
	}, nil)
	require.Equal(t, []int64{5}, ids)
}

func TestFilterRecordsSectionsAnyOf(t *testing.T) {
	ids := FilterRecords(filterFixtures(), FilterCriteria{
		Sections: []string{"Benefits", "Admissions"},
	}, nil)
	require.Equal(t, []int64{2, 3}, ids)
}

func TestFilterRecordsTitleSubstring(t *testing.T) {
	ids := FilterRecords(filterFixtures(), FilterCriteria{Title: "POLICY"}, nil)
	require.Equal(t, []int64{1}, ids)

	ids = FilterRecords(filterFixtures(), FilterCriteria{Title: "e"}, nil)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestFilterRecordsDateRangeInclusive(t *testing.T) {
	// boundary dates are included
	ids := FilterRecords(filterFixtures(), FilterCriteria{
		DateFrom: localDate(2024, time.March, 10),
		DateTo:   localDate(2024, time.March, 10),
	}, nil)
	require.Equal(t, []int64{1}, ids)
}

func TestFilterRecordsDateRangeExcludesUnparseable(t *testing.T) {
	// records 4 and 5 have no parseable date and drop out when a range is active
	ids := FilterRecords(filterFixtures(), FilterCriteria{
		DateFrom: localDate(2023, time.January, 1),
	}, nil)
	require.Equal(t, []int64{1, 2, 3}, ids)
}

func TestFilterRecordsLegacyDateFormats(t *testing.T) {
	// 15/01/2024 and the RFC 3339 timestamp both parse
	ids := FilterRecords(filterFixtures(), FilterCriteria{
		DateFrom: localDate(2023, time.September, 1),
		DateTo:   localDate(2024, time.January, 15),
	}, nil)
	require.Equal(t, []int64{2, 3}, ids)
}

func TestFilterRecordsSavedOnly(t *testing.T) {
	saved := map[int64]struct{}{2: {}, 4: {}}
	ids := FilterRecords(filterFixtures(), FilterCriteria{SavedOnly: true}, saved)
	require.Equal(t, []int64{2, 4}, ids)

	// savedOnly with empty set matches nothing
	ids = FilterRecords(filterFixtures(), FilterCriteria{SavedOnly: true}, nil)
	require.Empty(t, ids)
}

func TestFilterRecordsAlphabeticalCaseInsensitive(t *testing.T) {
	records := []models.Record{
		{ID: 1, Title: "Beta"},
		{ID: 2, Title: "alpha"},
		{ID: 3, Title: "Gamma"},
	}
	ids := FilterRecords(records, FilterCriteria{Sort: SortAlphabetical}, nil)
	require.Equal(t, []int64{2, 1, 3}, ids)

	ids = FilterRecords(records, FilterCriteria{Sort: SortAlphabeticalDesc}, nil)
	require.Equal(t, []int64{3, 1, 2}, ids)
}

func TestFilterRecordsDateSortMissingDatesLast(t *testing.T) {
	ids := FilterRecords(filterFixtures(), FilterCriteria{Sort: SortNewest}, nil)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids)

	ids = FilterRecords(filterFixtures(), FilterCriteria{Sort: SortOldest}, nil)
	// unparseable dates stay last in their original relative order
	require.Equal(t, []int64{3, 2, 1, 4, 5}, ids)
}

func TestFilterRecordsIdempotent(t *testing.T) {
	records := filterFixtures()
	criteria := FilterCriteria{Department: "IT", Sort: SortAlphabetical}
	first := FilterRecords(records, criteria, nil)
	second := FilterRecords(records, criteria, nil)
	require.Equal(t, first, second)
}

func TestFilterRecordsDoesNotMutateInput(t *testing.T) {
	records := filterFixtures()
	FilterRecords(records, FilterCriteria{Sort: SortAlphabetical}, nil)
	require.Equal(t, int64(1), records[0].ID)
	require.Equal(t, int64(5), records[4].ID)
}

func TestParseVersionDate(t *testing.T) {
	ts, ok := ParseVersionDate("2024-03-10")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local), ts)

	ts, ok = ParseVersionDate("10/03/2024")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local), ts)

	ts, ok = ParseVersionDate("2024-03-10T15:04:05Z")
	require.True(t, ok)
	require.Equal(t, 0, ts.Hour())

	_, ok = ParseVersionDate("")
	require.False(t, ok)

	_, ok = ParseVersionDate("soon")
	require.False(t, ok)
}
