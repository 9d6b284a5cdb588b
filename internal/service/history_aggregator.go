package service

import (
	"sort"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// AggregateHistory collapses raw activity entries into one aggregate per
// record, keeping only the latest entry per action type. Ties on the same
// timestamp keep the first entry seen. Entries with a zero timestamp are
// skipped. The input is never mutated and the function is pure: the same
// entries always produce the same aggregates.
func AggregateHistory(entries []models.HistoryEntry) []models.HistoryAggregate {
	byRecord := make(map[int64]*models.HistoryAggregate)
	order := make([]int64, 0)

	for i := range entries {
		entry := entries[i]
		if entry.ActionAt.IsZero() {
			continue
		}
		agg, ok := byRecord[entry.RecordID]
		if !ok {
			agg = &models.HistoryAggregate{
				RecordID:      entry.RecordID,
				RecordTitle:   entry.RecordTitle,
				RecordTitleAr: entry.RecordTitleAr,
			}
			byRecord[entry.RecordID] = agg
			order = append(order, entry.RecordID)
		}

		var slot **models.HistoryEntry
		switch entry.Action {
		case models.ActionView:
			slot = &agg.View
		case models.ActionDownload:
			slot = &agg.Download
		case models.ActionShowDetails:
			slot = &agg.ShowDetails
		default:
			continue
		}
		// replace only on a strictly newer timestamp
		if *slot == nil || entry.ActionAt.After((*slot).ActionAt) {
			e := entry
			*slot = &e
		}
		if entry.ActionAt.After(agg.LatestActivity) {
			agg.LatestActivity = entry.ActionAt
		}
	}

	aggregates := make([]models.HistoryAggregate, 0, len(order))
	for _, id := range order {
		aggregates = append(aggregates, *byRecord[id])
	}
	return OrderAggregates(aggregates)
}

// OrderAggregates sorts aggregates by latest activity, newest first.
// Aggregates with no recorded activity sort last, keeping their relative
// order. Sorting is stable so repeated calls are idempotent.
func OrderAggregates(aggregates []models.HistoryAggregate) []models.HistoryAggregate {
	sort.SliceStable(aggregates, func(i, j int) bool {
		zi, zj := aggregates[i].LatestActivity.IsZero(), aggregates[j].LatestActivity.IsZero()
		if zi != zj {
			return !zi
		}
		if zi {
			return false
		}
		return aggregates[i].LatestActivity.After(aggregates[j].LatestActivity)
	})
	return aggregates
}
