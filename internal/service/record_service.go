package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
)

type recordStore interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, id int64) (*models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	Update(ctx context.Context, record *models.Record) error
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
	Catalog(ctx context.Context) (models.RecordCatalog, error)
}

type savedIDResolver interface {
	IDSet(ctx context.Context, userID string) (map[int64]struct{}, error)
}

type actionLogger interface {
	Log(ctx context.Context, entry *models.HistoryEntry) error
}

type recordFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type recordSignedURLSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RecordUpload carries upload metadata and stream reader.
type RecordUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// RecordDownload bundles file reader metadata for streaming.
type RecordDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
	ExpiresAt time.Time
}

// RecordServiceConfig holds validation parameters.
type RecordServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// RecordService manages regulation document metadata, storage IO and the
// browse filter pipeline.
type RecordService struct {
	repo      recordStore
	bookmarks savedIDResolver
	history   actionLogger
	storage   recordFileStorage
	signer    recordSignedURLSigner
	audit     auditLogger
	logger    *zap.Logger
	cfg       RecordServiceConfig
	mimeSet   map[string]struct{}
}

// NewRecordService constructs the service with defaults.
func NewRecordService(repo recordStore, bookmarks savedIDResolver, history actionLogger, storage recordFileStorage, signer recordSignedURLSigner, audit auditLogger, logger *zap.Logger, cfg RecordServiceConfig) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 20 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &RecordService{
		repo:      repo,
		bookmarks: bookmarks,
		history:   history,
		storage:   storage,
		signer:    signer,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// Upload persists metadata and the physical file for a new record.
func (s *RecordService) Upload(ctx context.Context, meta dto.CreateRecordRequest, upload RecordUpload, actor *models.JWTClaims) (*models.Record, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validateUploadMeta(meta); err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mime type not allowed")
	}
	filename := s.generateFilename(meta.Department, upload.Filename, mimeType)
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	path, err := s.storage.SaveStream(filename, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist document file")
	}
	record := &models.Record{
		Title:         strings.TrimSpace(meta.Title),
		TitleAr:       normalizeRef(meta.TitleAr),
		Department:    strings.TrimSpace(meta.Department),
		Sections:      trimTags(meta.Sections),
		DocumentTypes: trimTags(meta.DocumentTypes),
		VersionDate:   strings.TrimSpace(meta.VersionDate),
		FilePath:      path,
		MimeType:      mimeType,
		SizeBytes:     upload.Size,
		CreatedBy:     actor.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		_ = s.storage.Delete(path)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create record metadata")
	}
	recordRef := strconv.FormatInt(record.ID, 10)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRecordCreate,
		Resource:   "record",
		ResourceID: &recordRef,
		NewValues:  []byte(fmt.Sprintf(`{"title":%q,"department":%q}`, record.Title, record.Department)),
	})
	return record, nil
}

// List filters and sorts the live snapshot for the actor.
func (s *RecordService) List(ctx context.Context, criteria FilterCriteria, actor *models.JWTClaims) ([]models.Record, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	var savedIDs map[int64]struct{}
	if criteria.SavedOnly && s.bookmarks != nil {
		savedIDs, err = s.bookmarks.IDSet(ctx, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load saved records")
		}
	}
	return FilterRecordsFull(records, criteria, savedIDs), nil
}

// Get returns record metadata and logs the detail open.
func (s *RecordService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Record, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	s.logAction(ctx, actor.UserID, record.ID, models.ActionShowDetails)
	return record, nil
}

// Update applies partial metadata changes to a record.
func (s *RecordService) Update(ctx context.Context, id int64, req dto.UpdateRecordRequest, actor *models.JWTClaims) (*models.Record, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title cannot be empty")
		}
		record.Title = strings.TrimSpace(*req.Title)
	}
	if req.TitleAr != nil {
		record.TitleAr = normalizeRef(req.TitleAr)
	}
	if req.Department != nil {
		if strings.TrimSpace(*req.Department) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department cannot be empty")
		}
		record.Department = strings.TrimSpace(*req.Department)
	}
	if req.Sections != nil {
		record.Sections = trimTags(req.Sections)
	}
	if req.DocumentTypes != nil {
		record.DocumentTypes = trimTags(req.DocumentTypes)
	}
	if req.VersionDate != nil {
		record.VersionDate = strings.TrimSpace(*req.VersionDate)
	}
	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update record")
	}
	recordRef := strconv.FormatInt(record.ID, 10)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRecordUpdate,
		Resource:   "record",
		ResourceID: &recordRef,
	})
	return record, nil
}

// GetDownloadURL generates a signed URL for downloading the file.
func (s *RecordService) GetDownloadURL(ctx context.Context, id int64, actor *models.JWTClaims) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	if actor == nil {
		return "", appErrors.ErrUnauthorized
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrNotFound
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	recordRef := strconv.FormatInt(record.ID, 10)
	token, _, err := s.signer.Generate(recordRef, record.FilePath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	url := fmt.Sprintf("%s/records/%d/download?token=%s", base, record.ID, token)
	return url, nil
}

// Download validates the token, opens the file and logs the download.
func (s *RecordService) Download(ctx context.Context, id int64, token string, actor *models.JWTClaims) (*RecordDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	tokenID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	recordRef := strconv.FormatInt(record.ID, 10)
	if tokenID != recordRef || relPath != record.FilePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document metadata")
	}
	s.logAction(ctx, actor.UserID, record.ID, models.ActionDownload)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRecordDownload,
		Resource:   "record",
		ResourceID: &recordRef,
	})
	return &RecordDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		MimeType:  record.MimeType,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

// Delete marks a record as deleted (soft delete).
func (s *RecordService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
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
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	recordRef := strconv.FormatInt(id, 10)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRecordDelete,
		Resource:   "record",
		ResourceID: &recordRef,
	})
	return nil
}

// Catalog returns the distinct filter values of the live record set.
func (s *RecordService) Catalog(ctx context.Context, actor *models.JWTClaims) (models.RecordCatalog, error) {
	if actor == nil {
		return models.RecordCatalog{}, appErrors.ErrUnauthorized
	}
	catalog, err := s.repo.Catalog(ctx)
	if err != nil {
		return models.RecordCatalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build catalog")
	}
	return catalog, nil
}

func (s *RecordService) validateUploadMeta(meta dto.CreateRecordRequest) error {
	if strings.TrimSpace(meta.Title) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if strings.TrimSpace(meta.Department) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if raw := strings.TrimSpace(meta.VersionDate); raw != "" {
		if _, ok := ParseVersionDate(raw); !ok {
			return appErrors.Clone(appErrors.ErrValidation, "versionDate format not recognised")
		}
	}
	return nil
}

func (s *RecordService) detectMime(upload RecordUpload) (string, error) {
	if upload.Content == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "file reader missing")
	}
	if upload.MimeType != "" {
		return upload.MimeType, nil
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	return http.DetectContentType(header[:n]), nil
}

func (s *RecordService) generateFilename(department, original, mimeType string) string {
	department = sanitize(department)
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = mimeExtension(mimeType)
	}
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("record_%s_%d_%s%s", department, time.Now().Unix(), randomSuffix(), ext)
}

func sanitize(raw string) string {
	raw = strings.ToLower(raw)
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func mimeExtension(mime string) string {
	switch strings.ToLower(mime) {
	case "application/pdf":
		return ".pdf"
	case "application/msword":
		return ".doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	default:
		return ""
	}
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

func trimTags(values []string) models.StringSet {
	result := make(models.StringSet, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normalizeRef(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	result := trimmed
	return &result
}

func (s *RecordService) logAction(ctx context.Context, userID string, recordID int64, action models.ActionType) {
	if s.history == nil {
		return
	}
	entry := &models.HistoryEntry{
		UserID:   userID,
		RecordID: recordID,
		Action:   action,
	}
	if err := s.history.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to log record action", zap.Error(err), zap.Int64("record_id", recordID), zap.String("action", string(action)))
	}
}

func (s *RecordService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "record-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to create record audit", zap.Error(err))
	}
}
