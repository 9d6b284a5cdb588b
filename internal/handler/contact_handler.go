package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/response"
)

type contactService interface {
	Create(ctx context.Context, req dto.CreateContactRequest, actor *models.JWTClaims) (*models.Contact, error)
	List(ctx context.Context, department string, actor *models.JWTClaims) ([]models.Contact, error)
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Contact, error)
	Update(ctx context.Context, id int64, req dto.UpdateContactRequest, actor *models.JWTClaims) (*models.Contact, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
}

// ContactHandler manages the contact directory endpoints.
type ContactHandler struct {
	service contactService
}

// NewContactHandler constructs the handler.
func NewContactHandler(service contactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// Create godoc
// @Summary Create a contact entry
// @Tags Contacts
// @Accept json
// @Produce json
// @Param payload body dto.CreateContactRequest true "Contact"
// @Success 201 {object} response.Envelope
// @Router /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid contact payload"))
		return
	}
	contact, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, contact, nil)
}

// List godoc
// @Summary List contacts, optionally filtered by department
// @Tags Contacts
// @Produce json
// @Param department query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	contacts, err := h.service.List(c.Request.Context(), c.Query("department"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contacts, nil)
}

// Get godoc
// @Summary Get one contact entry
// @Tags Contacts
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} response.Envelope
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseContactID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	contact, err := h.service.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contact, nil)
}

// Update godoc
// @Summary Update a contact entry
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path int true "Contact ID"
// @Param payload body dto.UpdateContactRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseContactID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid contact payload"))
		return
	}
	contact, err := h.service.Update(c.Request.Context(), id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contact, nil)
}

// Delete godoc
// @Summary Soft delete a contact entry
// @Tags Contacts
// @Produce json
// @Param id path int true "Contact ID"
// @Success 204
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseContactID(c)
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

func parseContactID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid contact id")
	}
	return id, nil
}
