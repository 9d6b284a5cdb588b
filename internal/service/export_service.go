package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/pkg/export"
	"github.com/noah-isme/regdocs-api/pkg/storage"
)

type exportAnalyticsRepository interface {
	ActionTotals(ctx context.Context, filter models.AnalyticsUsageFilter) (models.AnalyticsActionTotals, error)
	DepartmentUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDepartmentUsage, error)
	DocumentTypeUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDocumentTypeUsage, error)
	MonthlyUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsMonthlyUsage, error)
	TopRecords(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsTopRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	analytics exportAnalyticsRepository
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(analytics exportAnalyticsRepository, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		analytics: analytics,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scopePart := sanitizeFilename(deref(job.Params.Department))
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scopePart, timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeUsage:
		return s.buildUsageDataset(ctx, job.Params)
	case models.ReportTypeDepartments:
		return s.buildDepartmentDataset(ctx, job.Params)
	case models.ReportTypeTopRecords:
		return s.buildTopRecordsDataset(ctx, job.Params)
	case models.ReportTypeSummary:
		return s.buildSummaryDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) usageFilter(params models.ReportJobParams) models.AnalyticsUsageFilter {
	filter := models.AnalyticsUsageFilter{
		Department: deref(params.Department),
		Limit:      params.Limit,
	}
	if from, ok := ParseVersionDate(deref(params.DateFrom)); ok {
		filter.DateFrom = &from
	}
	if to, ok := ParseVersionDate(deref(params.DateTo)); ok {
		filter.DateTo = &to
	}
	return filter
}

func (s *ExportService) buildUsageDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := s.usageFilter(params)
	rows, err := s.analytics.MonthlyUsage(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Month":     row.Month.UTC().Format("2006-01"),
			"Views":     fmt.Sprintf("%d", row.Views),
			"Downloads": fmt.Sprintf("%d", row.Downloads),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Month", "Views", "Downloads"},
		Rows:    dataRows,
	}
	return dataset, reportTitle("Monthly Usage Report", params), nil
}

func (s *ExportService) buildDepartmentDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := s.usageFilter(params)
	rows, err := s.analytics.DepartmentUsage(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Department": row.Department,
			"Records":    fmt.Sprintf("%d", row.RecordCount),
			"Views":      fmt.Sprintf("%d", row.Views),
			"Downloads":  fmt.Sprintf("%d", row.Downloads),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Department", "Records", "Views", "Downloads"},
		Rows:    dataRows,
	}
	return dataset, reportTitle("Department Usage Report", params), nil
}

func (s *ExportService) buildTopRecordsDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := s.usageFilter(params)
	rows, err := s.analytics.TopRecords(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Record ID":   fmt.Sprintf("%d", row.RecordID),
			"Title":       row.Title,
			"Department":  row.Department,
			"Views":       fmt.Sprintf("%d", row.Views),
			"Downloads":   fmt.Sprintf("%d", row.Downloads),
			"Last Active": formatReportTime(row.LastActive),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Record ID", "Title", "Department", "Views", "Downloads", "Last Active"},
		Rows:    dataRows,
	}
	return dataset, reportTitle("Top Records Report", params), nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := s.usageFilter(params)
	totals, err := s.analytics.ActionTotals(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	departments, err := s.analytics.DepartmentUsage(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	types, err := s.analytics.DocumentTypeUsage(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Metric": "Total Views", "Value": fmt.Sprintf("%d", totals.Views), "Notes": ""},
		{"Metric": "Total Downloads", "Value": fmt.Sprintf("%d", totals.Downloads), "Notes": ""},
		{"Metric": "Total Detail Opens", "Value": fmt.Sprintf("%d", totals.DetailOpens), "Notes": ""},
		{"Metric": "Most Active Department", "Value": busiestDepartment(departments), "Notes": ""},
		{"Metric": "Most Used Document Type", "Value": busiestDocumentType(types), "Notes": ""},
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value", "Notes"},
		Rows:    rows,
	}
	return dataset, reportTitle("Usage Summary Report", params), nil
}

func reportTitle(base string, params models.ReportJobParams) string {
	if dept := deref(params.Department); dept != "" {
		return fmt.Sprintf("%s - %s", base, dept)
	}
	return base
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func busiestDepartment(rows []models.AnalyticsDepartmentUsage) string {
	best := ""
	bestScore := -1
	for _, row := range rows {
		if score := row.Views + row.Downloads; score > bestScore {
			bestScore = score
			best = row.Department
		}
	}
	return best
}

func busiestDocumentType(rows []models.AnalyticsDocumentTypeUsage) string {
	best := ""
	bestScore := -1
	for _, row := range rows {
		if row.Actions > bestScore {
			bestScore = row.Actions
			best = row.DocumentType
		}
	}
	return best
}
