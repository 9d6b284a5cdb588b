package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/regdocs-api/internal/middleware"
	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/internal/service"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/response"
)

// AnalyticsHandler exposes dashboard-ready usage analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Usage godoc
// @Summary Usage analytics dashboard payload
// @Tags Analytics
// @Produce json
// @Param department query string false "Department filter"
// @Param date_from query string false "Activity lower bound"
// @Param date_to query string false "Activity upper bound"
// @Param limit query int false "Top records limit"
// @Success 200 {object} response.Envelope
// @Router /analytics/usage [get]
func (h *AnalyticsHandler) Usage(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filter, err := parseUsageFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.analytics.Usage(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}

// TopRecords godoc
// @Summary Most accessed records ranking
// @Tags Analytics
// @Produce json
// @Param department query string false "Department filter"
// @Param limit query int false "Ranking size"
// @Success 200 {object} response.Envelope
// @Router /analytics/top-records [get]
func (h *AnalyticsHandler) TopRecords(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filter, err := parseUsageFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	top, cacheHit, err := h.analytics.TopRecords(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, top, nil, meta)
}

// System godoc
// @Summary Instrumentation metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	metrics := h.analytics.SystemMetrics()
	middleware.SetCacheHit(c, false)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, metrics, nil, meta)
}

func parseUsageFilter(c *gin.Context) (models.AnalyticsUsageFilter, error) {
	filter := models.AnalyticsUsageFilter{
		Department: c.Query("department"),
	}
	if raw := c.Query("date_from"); raw != "" {
		parsed, ok := service.ParseVersionDate(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid date_from parameter")
		}
		filter.DateFrom = &parsed
	}
	if raw := c.Query("date_to"); raw != "" {
		parsed, ok := service.ParseVersionDate(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid date_to parameter")
		}
		filter.DateTo = &parsed
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter")
		}
		filter.Limit = limit
	}
	return filter, nil
}
