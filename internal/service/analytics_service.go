package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	ActionTotals(ctx context.Context, filter models.AnalyticsUsageFilter) (models.AnalyticsActionTotals, error)
	DepartmentUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDepartmentUsage, error)
	DocumentTypeUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDocumentTypeUsage, error)
	MonthlyUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsMonthlyUsage, error)
	TopRecords(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsTopRecord, error)
}

// AnalyticsService provides read-optimised access to usage analytics with cache integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Usage returns the full usage dashboard payload. The boolean indicates
// whether data originated from cache.
func (s *AnalyticsService) Usage(ctx context.Context, filter models.AnalyticsUsageFilter) (*models.AnalyticsUsageSummary, bool, error) {
	cacheKey := makeAnalyticsCacheKey("usage", filter.Department, formatTime(filter.DateFrom), formatTime(filter.DateTo), strconv.Itoa(filter.Limit))
	var cached models.AnalyticsUsageSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get usage cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	totals, err := s.repo.ActionTotals(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	departments, err := s.repo.DepartmentUsage(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	types, err := s.repo.DocumentTypeUsage(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	monthly, err := s.repo.MonthlyUsage(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	top, err := s.repo.TopRecords(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_usage", time.Since(start))
	}

	summary := &models.AnalyticsUsageSummary{
		Totals:      totals,
		Departments: departments,
		Types:       types,
		Monthly:     monthly,
		TopRecords:  top,
		GeneratedAt: time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache usage", zap.Error(err))
		}
	}
	return summary, false, nil
}

// TopRecords returns only the most-accessed records ranking.
func (s *AnalyticsService) TopRecords(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsTopRecord, bool, error) {
	cacheKey := makeAnalyticsCacheKey("top", filter.Department, formatTime(filter.DateFrom), formatTime(filter.DateTo), strconv.Itoa(filter.Limit))
	var cached []models.AnalyticsTopRecord
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get top records cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	top, err := s.repo.TopRecords(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_top_records", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, top, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache top records", zap.Error(err))
		}
	}
	return top, false, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}
	}
	return s.metrics.Snapshot()
}

// InvalidateUsage drops cached analytics after record or history mutations.
func (s *AnalyticsService) InvalidateUsage(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil && s.logger != nil {
		s.logger.Warn("invalidate analytics cache", zap.Error(err))
	}
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" || part == "0" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
