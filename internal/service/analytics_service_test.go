package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/models"
)

func TestAnalyticsServiceUsage(t *testing.T) {
	svc := NewAnalyticsService(analyticsStub{}, nil, nil, zap.NewNop())

	summary, fromCache, err := svc.Usage(context.Background(), models.AnalyticsUsageFilter{Limit: 10})
	require.NoError(t, err)
	require.False(t, fromCache)
	require.Equal(t, 77, summary.Totals.TotalActions)
	require.Len(t, summary.Departments, 2)
	require.Equal(t, "HR", summary.Departments[0].Department)
	require.Len(t, summary.Monthly, 2)
	require.Len(t, summary.TopRecords, 1)
	require.False(t, summary.GeneratedAt.IsZero())
}

func TestAnalyticsServiceTopRecords(t *testing.T) {
	svc := NewAnalyticsService(analyticsStub{}, nil, nil, zap.NewNop())

	top, fromCache, err := svc.TopRecords(context.Background(), models.AnalyticsUsageFilter{Limit: 5})
	require.NoError(t, err)
	require.False(t, fromCache)
	require.Len(t, top, 1)
	require.Equal(t, int64(1), top[0].RecordID)
}

func TestAnalyticsServiceSystemMetricsWithoutCollector(t *testing.T) {
	svc := NewAnalyticsService(analyticsStub{}, nil, nil, zap.NewNop())
	require.Equal(t, models.AnalyticsSystemMetrics{}, svc.SystemMetrics())
}

func TestMakeAnalyticsCacheKey(t *testing.T) {
	dept := "HR"
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	key := makeAnalyticsCacheKey("usage", dept, formatTime(&from), formatTime(nil), "10")
	require.Contains(t, key, "analytics")
	require.Contains(t, key, "usage")
	require.Contains(t, key, "HR")

	bare := makeAnalyticsCacheKey("usage", "", "", "", "0")
	require.NotEqual(t, key, bare)
}
