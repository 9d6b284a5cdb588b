package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/response"
)

type bookmarkService interface {
	Toggle(ctx context.Context, recordID int64, actor *models.JWTClaims) (bool, error)
	List(ctx context.Context, actor *models.JWTClaims) ([]models.Record, error)
}

// BookmarkHandler exposes saved-record endpoints.
type BookmarkHandler struct {
	service bookmarkService
}

// NewBookmarkHandler constructs the handler.
func NewBookmarkHandler(service bookmarkService) *BookmarkHandler {
	return &BookmarkHandler{service: service}
}

// Toggle godoc
// @Summary Flip the saved state of a record for the caller
// @Tags Bookmarks
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /bookmarks/{id} [post]
func (h *BookmarkHandler) Toggle(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record id"))
		return
	}
	saved, err := h.service.Toggle(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"recordId": id, "saved": saved}, nil)
}

// List godoc
// @Summary The caller's saved records in save order
// @Tags Bookmarks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookmarks [get]
func (h *BookmarkHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
