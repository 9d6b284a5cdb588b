package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
)

type bookmarkStoreStub struct {
	saved map[string][]int64
}

func newBookmarkStoreStub() *bookmarkStoreStub {
	return &bookmarkStoreStub{saved: make(map[string][]int64)}
}

func (b *bookmarkStoreStub) Add(ctx context.Context, userID string, recordID int64) error {
	for _, id := range b.saved[userID] {
		if id == recordID {
			return nil
		}
	}
	b.saved[userID] = append(b.saved[userID], recordID)
	return nil
}

func (b *bookmarkStoreStub) Remove(ctx context.Context, userID string, recordID int64) (bool, error) {
	ids := b.saved[userID]
	for i, id := range ids {
		if id == recordID {
			b.saved[userID] = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (b *bookmarkStoreStub) ListIDs(ctx context.Context, userID string) ([]int64, error) {
	return b.saved[userID], nil
}

func (b *bookmarkStoreStub) IDSet(ctx context.Context, userID string) (map[int64]struct{}, error) {
	set := make(map[int64]struct{}, len(b.saved[userID]))
	for _, id := range b.saved[userID] {
		set[id] = struct{}{}
	}
	return set, nil
}

type bookmarkRecordsStub struct {
	repo *recordRepoStub
}

func (b *bookmarkRecordsStub) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	return b.repo.GetByID(ctx, id)
}

func (b *bookmarkRecordsStub) ListByIDs(ctx context.Context, ids []int64) ([]models.Record, error) {
	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		record, err := b.repo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *record)
	}
	return out, nil
}

func seedBookmarkRecords(t *testing.T, repo *recordRepoStub, titles ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(titles))
	for _, title := range titles {
		record := &models.Record{Title: title, Department: "HR"}
		require.NoError(t, repo.Create(context.Background(), record))
		ids = append(ids, record.ID)
	}
	return ids
}

func TestBookmarkServiceToggle(t *testing.T) {
	repo := newRecordRepoStub()
	ids := seedBookmarkRecords(t, repo, "Policy")
	store := newBookmarkStoreStub()
	svc := NewBookmarkService(store, &bookmarkRecordsStub{repo: repo}, zap.NewNop())
	actor := employeeClaims("emp-1")

	saved, err := svc.Toggle(context.Background(), ids[0], actor)
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = svc.Toggle(context.Background(), ids[0], actor)
	require.NoError(t, err)
	require.False(t, saved)
	require.Empty(t, store.saved["emp-1"])

	_, err = svc.Toggle(context.Background(), 999, actor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookmarkServiceListPreservesSaveOrder(t *testing.T) {
	repo := newRecordRepoStub()
	ids := seedBookmarkRecords(t, repo, "Alpha", "Beta", "Gamma")
	store := newBookmarkStoreStub()
	svc := NewBookmarkService(store, &bookmarkRecordsStub{repo: repo}, zap.NewNop())
	actor := employeeClaims("emp-1")

	for _, id := range []int64{ids[2], ids[0]} {
		_, err := svc.Toggle(context.Background(), id, actor)
		require.NoError(t, err)
	}

	records, err := svc.List(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Gamma", records[0].Title)
	require.Equal(t, "Alpha", records[1].Title)
}

func TestBookmarkServiceListEmpty(t *testing.T) {
	svc := NewBookmarkService(newBookmarkStoreStub(), nil, zap.NewNop())

	records, err := svc.List(context.Background(), employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = svc.List(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestBookmarkServiceIDSetFeedsFilter(t *testing.T) {
	repo := newRecordRepoStub()
	ids := seedBookmarkRecords(t, repo, "Alpha", "Beta")
	store := newBookmarkStoreStub()
	svc := NewBookmarkService(store, &bookmarkRecordsStub{repo: repo}, zap.NewNop())
	actor := employeeClaims("emp-1")

	_, err := svc.Toggle(context.Background(), ids[1], actor)
	require.NoError(t, err)

	set, err := svc.IDSet(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, set, 1)

	records, _ := repo.List(context.Background())
	filtered := FilterRecords(records, FilterCriteria{SavedOnly: true}, set)
	require.Equal(t, []int64{ids[1]}, filtered)
}
