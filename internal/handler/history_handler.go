package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/response"
)

type historyService interface {
	LogAction(ctx context.Context, req dto.LogActionRequest, actor *models.JWTClaims) error
	ListForActor(ctx context.Context, actor *models.JWTClaims) ([]models.HistoryAggregate, error)
	ClearForActor(ctx context.Context, actor *models.JWTClaims) error
}

// HistoryHandler exposes per-user activity endpoints.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// Log godoc
// @Summary Record a document action for the caller
// @Tags History
// @Accept json
// @Produce json
// @Param payload body dto.LogActionRequest true "Action"
// @Success 204
// @Router /history [post]
func (h *HistoryHandler) Log(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.LogActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action payload"))
		return
	}
	if err := h.service.LogAction(c.Request.Context(), req, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary The caller's activity, latest entry per action per record
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	aggregates, err := h.service.ListForActor(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.HistoryResponse{Records: aggregates}, nil)
}

// Clear godoc
// @Summary Remove the caller's activity trail
// @Tags History
// @Produce json
// @Success 204
// @Router /history [delete]
func (h *HistoryHandler) Clear(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.ClearForActor(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
