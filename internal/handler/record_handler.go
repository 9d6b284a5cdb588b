package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/internal/service"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/response"
)

type recordService interface {
	Upload(ctx context.Context, meta dto.CreateRecordRequest, upload service.RecordUpload, actor *models.JWTClaims) (*models.Record, error)
	List(ctx context.Context, criteria service.FilterCriteria, actor *models.JWTClaims) ([]models.Record, error)
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Record, error)
	Update(ctx context.Context, id int64, req dto.UpdateRecordRequest, actor *models.JWTClaims) (*models.Record, error)
	GetDownloadURL(ctx context.Context, id int64, actor *models.JWTClaims) (string, error)
	Download(ctx context.Context, id int64, token string, actor *models.JWTClaims) (*service.RecordDownload, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
	Catalog(ctx context.Context, actor *models.JWTClaims) (models.RecordCatalog, error)
}

// RecordHandler manages the regulation document HTTP endpoints.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// Upload godoc
// @Summary Upload a regulation document
// @Tags Records
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param titleAr formData string false "Arabic title"
// @Param department formData string true "Department"
// @Param sections formData []string false "Sections"
// @Param documentTypes formData []string false "Document types"
// @Param versionDate formData string false "Version date"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Router /records [post]
func (h *RecordHandler) Upload(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	var req dto.CreateRecordRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record payload"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	upload := service.RecordUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	record, err := h.service.Upload(c.Request.Context(), req, upload, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, record, nil)
}

// List godoc
// @Summary Browse records with filters and sorting
// @Tags Records
// @Produce json
// @Param department query string false "Department filter"
// @Param sections query []string false "Section filter, any-of"
// @Param documentTypes query []string false "Document type filter, any-of"
// @Param title query string false "Title substring"
// @Param dateFrom query string false "Version date lower bound"
// @Param dateTo query string false "Version date upper bound"
// @Param savedOnly query bool false "Only saved records"
// @Param sort query string false "alphabetical | alphabetical_desc | newest | oldest"
// @Success 200 {object} response.Envelope
// @Router /records [get]
func (h *RecordHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.RecordListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid list query"))
		return
	}
	criteria, err := buildFilterCriteria(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.List(c.Request.Context(), criteria, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Catalog godoc
// @Summary Distinct filter values of the live record set
// @Tags Records
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /records/catalog [get]
func (h *RecordHandler) Catalog(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	catalog, err := h.service.Catalog(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog, nil)
}

// Get godoc
// @Summary Get record metadata with a signed download URL
// @Tags Records
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseRecordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	downloadURL, err := h.service.GetDownloadURL(c.Request.Context(), record.ID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RecordDownloadResponse{
		Record:      *record,
		DownloadURL: downloadURL,
	}, nil)
}

// Update godoc
// @Summary Update record metadata
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Param payload body dto.UpdateRecordRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Router /records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseRecordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid update payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Download godoc
// @Summary Download the document file via signed token
// @Tags Records
// @Produce octet-stream
// @Param id path int true "Record ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /records/{id}/download [get]
func (h *RecordHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseRecordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), id, token, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}

// Delete godoc
// @Summary Soft delete a record
// @Tags Records
// @Produce json
// @Param id path int true "Record ID"
// @Success 204
// @Router /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "record service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseRecordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseRecordID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid record id")
	}
	return id, nil
}

func buildFilterCriteria(query dto.RecordListQuery) (service.FilterCriteria, error) {
	criteria := service.FilterCriteria{
		Department:    strings.TrimSpace(query.Department),
		Sections:      query.Sections,
		DocumentTypes: query.DocumentTypes,
		Title:         strings.TrimSpace(query.Title),
		SavedOnly:     query.SavedOnly,
	}
	switch query.Sort {
	case "", string(service.SortAlphabetical), string(service.SortAlphabeticalDesc), string(service.SortNewest), string(service.SortOldest):
		criteria.Sort = service.SortMode(query.Sort)
	default:
		return service.FilterCriteria{}, appErrors.Clone(appErrors.ErrValidation, "unknown sort mode")
	}
	if raw := strings.TrimSpace(query.DateFrom); raw != "" {
		parsed, ok := service.ParseVersionDate(raw)
		if !ok {
			return service.FilterCriteria{}, appErrors.Clone(appErrors.ErrValidation, "dateFrom format not recognised")
		}
		criteria.DateFrom = &parsed
	}
	if raw := strings.TrimSpace(query.DateTo); raw != "" {
		parsed, ok := service.ParseVersionDate(raw)
		if !ok {
			return service.FilterCriteria{}, appErrors.Clone(appErrors.ErrValidation, "dateTo format not recognised")
		}
		criteria.DateTo = &parsed
	}
	return criteria, nil
}
