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

func TestContactRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContactRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contacts")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	contact := &models.Contact{
		Name:       "Sara Ahmed",
		Department: "HR",
		Email:      "sara@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), contact))
	require.Equal(t, int64(4), contact.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContactRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name", "department", "email", "phone", "created_at", "updated_at", "deleted_at"}).
		AddRow(int64(1), "Sara Ahmed", "HR", "sara@example.com", "", time.Now(), time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts")).
		WithArgs("hr").
		WillReturnRows(rows)

	contacts, err := repo.List(context.Background(), "hr")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	require.Equal(t, "HR", contacts[0].Department)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContactRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Contact{ID: 99, Name: "Ghost", Department: "IT"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
