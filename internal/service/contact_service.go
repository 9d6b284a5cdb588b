package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
)

type contactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id int64) (*models.Contact, error)
	List(ctx context.Context, department string) ([]models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
}

// ContactService manages the admin-maintained contact directory.
type ContactService struct {
	repo   contactStore
	audit  auditLogger
	logger *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(repo contactStore, audit auditLogger, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, audit: audit, logger: logger}
}

// Create adds a new contact entry.
func (s *ContactService) Create(ctx context.Context, req dto.CreateContactRequest, actor *models.JWTClaims) (*models.Contact, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if strings.TrimSpace(req.Department) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	contact := &models.Contact{
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contact")
	}
	s.emitAudit(ctx, actor, models.AuditActionContactCreate, contact.ID)
	return contact, nil
}

// List returns contacts, optionally scoped to one department.
func (s *ContactService) List(ctx context.Context, department string, actor *models.JWTClaims) ([]models.Contact, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	contacts, err := s.repo.List(ctx, strings.TrimSpace(department))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contacts")
	}
	return contacts, nil
}

// Get returns one contact entry.
func (s *ContactService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Contact, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact")
	}
	return contact, nil
}

// Update applies partial changes to a contact.
func (s *ContactService) Update(ctx context.Context, id int64, req dto.UpdateContactRequest, actor *models.JWTClaims) (*models.Contact, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		if strings.TrimSpace(*req.Department) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department cannot be empty")
		}
		contact.Department = strings.TrimSpace(*req.Department)
	}
	if req.Email != nil {
		contact.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		contact.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := s.repo.Update(ctx, contact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contact")
	}
	s.emitAudit(ctx, actor, models.AuditActionContactUpdate, contact.ID)
	return contact, nil
}

// Delete removes a contact entry (soft delete).
func (s *ContactService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if err := s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete contact")
	}
	s.emitAudit(ctx, actor, models.AuditActionContactDelete, id)
	return nil
}

func (s *ContactService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, contactID int64) {
	if s.audit == nil {
		return
	}
	ref := strconv.FormatInt(contactID, 10)
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "contact",
		ResourceID: &ref,
		IPAddress:  "system",
		UserAgent:  "contact-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to create contact audit", zap.Error(err))
	}
}
