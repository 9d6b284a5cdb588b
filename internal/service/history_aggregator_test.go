package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/regdocs-api/internal/models"
)

func historyEntry(recordID int64, action models.ActionType, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		RecordID:    recordID,
		Action:      action,
		ActionAt:    at,
		RecordTitle: "Record",
	}
}

func TestAggregateHistoryLatestPerAction(t *testing.T) {
	entries := []models.HistoryEntry{
		historyEntry(1, models.ActionView, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
		historyEntry(1, models.ActionDownload, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)),
		historyEntry(1, models.ActionView, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)),
	}

	aggregates := AggregateHistory(entries)
	require.Len(t, aggregates, 1)

	agg := aggregates[0]
	require.Equal(t, int64(1), agg.RecordID)
	require.NotNil(t, agg.View)
	require.Equal(t, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), agg.View.ActionAt)
	require.NotNil(t, agg.Download)
	require.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), agg.Download.ActionAt)
	require.Nil(t, agg.ShowDetails)
	require.Equal(t, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), agg.LatestActivity)
}

func TestAggregateHistoryOrdersByLatestActivityDesc(t *testing.T) {
	entries := []models.HistoryEntry{
		historyEntry(1, models.ActionView, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		historyEntry(2, models.ActionView, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		historyEntry(3, models.ActionDownload, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	aggregates := AggregateHistory(entries)
	require.Len(t, aggregates, 3)
	require.Equal(t, int64(2), aggregates[0].RecordID)
	require.Equal(t, int64(3), aggregates[1].RecordID)
	require.Equal(t, int64(1), aggregates[2].RecordID)
}

func TestAggregateHistoryTieKeepsFirstEntry(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := historyEntry(1, models.ActionView, at)
	first.ID = 10
	second := historyEntry(1, models.ActionView, at)
	second.ID = 11

	aggregates := AggregateHistory([]models.HistoryEntry{first, second})
	require.Len(t, aggregates, 1)
	require.Equal(t, int64(10), aggregates[0].View.ID)
}

func TestAggregateHistorySkipsZeroTimestamps(t *testing.T) {
	entries := []models.HistoryEntry{
		historyEntry(1, models.ActionView, time.Time{}),
		historyEntry(2, models.ActionDownload, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	aggregates := AggregateHistory(entries)
	require.Len(t, aggregates, 1)
	require.Equal(t, int64(2), aggregates[0].RecordID)
}

func TestAggregateHistoryEmptyInput(t *testing.T) {
	require.Empty(t, AggregateHistory(nil))
	require.Empty(t, AggregateHistory([]models.HistoryEntry{}))
}

func TestAggregateHistoryIdempotent(t *testing.T) {
	entries := []models.HistoryEntry{
		historyEntry(1, models.ActionView, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		historyEntry(2, models.ActionDownload, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		historyEntry(1, models.ActionShowDetails, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}

	first := AggregateHistory(entries)
	second := AggregateHistory(entries)
	require.Equal(t, first, second)
}

func TestOrderAggregatesZeroActivityLast(t *testing.T) {
	aggregates := []models.HistoryAggregate{
		{RecordID: 1},
		{RecordID: 2, LatestActivity: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{RecordID: 3},
	}

	ordered := OrderAggregates(aggregates)
	require.Equal(t, int64(2), ordered[0].RecordID)
	require.Equal(t, int64(1), ordered[1].RecordID)
	require.Equal(t, int64(3), ordered[2].RecordID)
}
