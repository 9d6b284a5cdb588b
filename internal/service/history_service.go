package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
)

type historyStore interface {
	Log(ctx context.Context, entry *models.HistoryEntry) error
	ListForUser(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	DeleteForUser(ctx context.Context, userID string) error
}

type historyRecordResolver interface {
	GetByID(ctx context.Context, id int64) (*models.Record, error)
}

// HistoryService records user actions and serves the aggregated activity view.
type HistoryService struct {
	repo    historyStore
	records historyRecordResolver
	logger  *zap.Logger
}

// NewHistoryService constructs the service.
func NewHistoryService(repo historyStore, records historyRecordResolver, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, records: records, logger: logger}
}

// LogAction appends one activity entry for the actor.
func (s *HistoryService) LogAction(ctx context.Context, req dto.LogActionRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch req.Action {
	case models.ActionView, models.ActionDownload, models.ActionShowDetails:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown action")
	}
	if s.records != nil {
		if _, err := s.records.GetByID(ctx, req.RecordID); err != nil {
			return appErrors.ErrNotFound
		}
	}
	entry := &models.HistoryEntry{
		UserID:   actor.UserID,
		RecordID: req.RecordID,
		Action:   req.Action,
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to log action")
	}
	return nil
}

// ListForActor returns the actor's activity collapsed to the latest entry
// per action type per record, most recently active first.
func (s *HistoryService) ListForActor(ctx context.Context, actor *models.JWTClaims) ([]models.HistoryAggregate, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entries, err := s.repo.ListForUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Warn("history lookup failed", zap.Error(err), zap.String("user_id", actor.UserID))
		return nil, appErrors.ErrHistoryUnavailable
	}
	return AggregateHistory(entries), nil
}

// ClearForActor removes the actor's activity trail.
func (s *HistoryService) ClearForActor(ctx context.Context, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.DeleteForUser(ctx, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear history")
	}
	return nil
}
