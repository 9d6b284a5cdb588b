package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
)

type bookmarkStore interface {
	Add(ctx context.Context, userID string, recordID int64) error
	Remove(ctx context.Context, userID string, recordID int64) (bool, error)
	ListIDs(ctx context.Context, userID string) ([]int64, error)
	IDSet(ctx context.Context, userID string) (map[int64]struct{}, error)
}

type bookmarkRecordLister interface {
	GetByID(ctx context.Context, id int64) (*models.Record, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Record, error)
}

// BookmarkService manages per-user saved records.
type BookmarkService struct {
	repo    bookmarkStore
	records bookmarkRecordLister
	logger  *zap.Logger
}

// NewBookmarkService constructs the service.
func NewBookmarkService(repo bookmarkStore, records bookmarkRecordLister, logger *zap.Logger) *BookmarkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookmarkService{repo: repo, records: records, logger: logger}
}

// Toggle flips the saved state of a record for the actor and reports the new
// state: true when the record is now saved.
func (s *BookmarkService) Toggle(ctx context.Context, recordID int64, actor *models.JWTClaims) (bool, error) {
	if actor == nil {
		return false, appErrors.ErrUnauthorized
	}
	if s.records != nil {
		if _, err := s.records.GetByID(ctx, recordID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, appErrors.ErrNotFound
			}
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
		}
	}
	removed, err := s.repo.Remove(ctx, actor.UserID, recordID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle bookmark")
	}
	if removed {
		return false, nil
	}
	if err := s.repo.Add(ctx, actor.UserID, recordID); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save bookmark")
	}
	return true, nil
}

// List returns the actor's saved records in save order.
func (s *BookmarkService) List(ctx context.Context, actor *models.JWTClaims) ([]models.Record, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ids, err := s.repo.ListIDs(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookmarks")
	}
	if s.records == nil || len(ids) == 0 {
		return []models.Record{}, nil
	}
	records, err := s.records.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load saved records")
	}
	return records, nil
}

// IDSet exposes the actor's saved ids as a membership set for the filter engine.
func (s *BookmarkService) IDSet(ctx context.Context, actor *models.JWTClaims) (map[int64]struct{}, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	set, err := s.repo.IDSet(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load saved ids")
	}
	return set, nil
}
