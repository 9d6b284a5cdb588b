package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/pkg/export"
	"github.com/noah-isme/regdocs-api/pkg/storage"
)

type analyticsStub struct{}

func (analyticsStub) ActionTotals(ctx context.Context, filter models.AnalyticsUsageFilter) (models.AnalyticsActionTotals, error) {
	return models.AnalyticsActionTotals{Views: 40, Downloads: 12, DetailOpens: 25, TotalActions: 77}, nil
}

func (analyticsStub) DepartmentUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDepartmentUsage, error) {
	return []models.AnalyticsDepartmentUsage{
		{Department: "HR", RecordCount: 8, Views: 30, Downloads: 10},
		{Department: "IT", RecordCount: 5, Views: 10, Downloads: 2},
	}, nil
}

func (analyticsStub) DocumentTypeUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDocumentTypeUsage, error) {
	return []models.AnalyticsDocumentTypeUsage{
		{DocumentType: "Policy", RecordCount: 6, Actions: 50},
	}, nil
}

func (analyticsStub) MonthlyUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsMonthlyUsage, error) {
	return []models.AnalyticsMonthlyUsage{
		{Month: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Views: 20, Downloads: 6},
		{Month: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Views: 20, Downloads: 6},
	}, nil
}

func (analyticsStub) TopRecords(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsTopRecord, error) {
	return []models.AnalyticsTopRecord{
		{RecordID: 1, Title: "Leave Policy", Department: "HR", Views: 30, Downloads: 10, LastActive: ptrTime(time.Now())},
	}, nil
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(analyticsStub{}, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeUsage,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/export/")

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-2",
		Type:      models.ReportTypeSummary,
		Params:    models.ReportJobParams{Format: models.ReportFormatPDF},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeTopRecords,
		Params: models.ReportJobParams{Format: models.ReportFormat("xml")},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}
