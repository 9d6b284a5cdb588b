package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/regdocs-api/internal/models"
)

func TestHistoryRepositoryLog(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO history_entries")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	entry := &models.HistoryEntry{
		UserID:   "user-1",
		RecordID: 3,
		Action:   models.ActionDownload,
	}
	require.NoError(t, repo.Log(context.Background(), entry))
	require.Equal(t, int64(11), entry.ID)
	require.False(t, entry.ActionAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryListForUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	rows := sqlmock.NewRows([]string{"id", "user_id", "record_id", "action", "action_at", "record_title", "record_title_ar"}).
		AddRow(int64(1), "user-1", int64(3), "view", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), "Leave Policy", nil).
		AddRow(int64(2), "user-1", int64(3), "download", time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), "Leave Policy", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM history_entries h")).
		WithArgs("user-1").
		WillReturnRows(rows)

	entries, err := repo.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.ActionView, entries[0].Action)
	require.Equal(t, "Leave Policy", entries[1].RecordTitle)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkRepositoryToggleFlow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBookmarkRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookmarks")).
		WithArgs("user-1", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err := repo.Remove(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.False(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookmarks")).
		WithArgs("user-1", int64(5), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Add(context.Background(), "user-1", 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkRepositoryIDSet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBookmarkRepository(db)
	rows := sqlmock.NewRows([]string{"record_id"}).AddRow(int64(2)).AddRow(int64(9))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT record_id FROM bookmarks")).
		WithArgs("user-1").
		WillReturnRows(rows)

	set, err := repo.IDSet(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, set, 2)
	_, ok := set[9]
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
