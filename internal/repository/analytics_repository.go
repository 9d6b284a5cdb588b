package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// AnalyticsRepository runs aggregate usage queries over records and history.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func usageConditions(filter models.AnalyticsUsageFilter, alias string, args *[]interface{}) []string {
	conditions := []string{}
	if filter.Department != "" {
		*args = append(*args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("LOWER(%s.department) = LOWER($%d)", alias, len(*args)))
	}
	if filter.DateFrom != nil {
		*args = append(*args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("h.action_at >= $%d", len(*args)))
	}
	if filter.DateTo != nil {
		*args = append(*args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("h.action_at <= $%d", len(*args)))
	}
	return conditions
}

// ActionTotals aggregates the history table per action type.
func (r *AnalyticsRepository) ActionTotals(ctx context.Context, filter models.AnalyticsUsageFilter) (models.AnalyticsActionTotals, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT
	COUNT(*) FILTER (WHERE h.action = 'view') AS views,
	COUNT(*) FILTER (WHERE h.action = 'download') AS downloads,
	COUNT(*) FILTER (WHERE h.action = 'show_details') AS detail_opens,
	COUNT(*) AS total_actions
	FROM history_entries h
	JOIN records r ON r.id = h.record_id`)
	args := make([]interface{}, 0, 3)
	conditions := usageConditions(filter, "r", &args)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	var totals models.AnalyticsActionTotals
	if err := r.db.GetContext(ctx, &totals, builder.String(), args...); err != nil {
		return models.AnalyticsActionTotals{}, fmt.Errorf("action totals: %w", err)
	}
	return totals, nil
}

// DepartmentUsage groups record counts and activity per department.
func (r *AnalyticsRepository) DepartmentUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDepartmentUsage, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT r.department,
	COUNT(DISTINCT r.id) AS record_count,
	COUNT(h.id) FILTER (WHERE h.action = 'view') AS views,
	COUNT(h.id) FILTER (WHERE h.action = 'download') AS downloads
	FROM records r
	LEFT JOIN history_entries h ON h.record_id = r.id
	WHERE r.deleted_at IS NULL`)
	args := make([]interface{}, 0, 3)
	conditions := usageConditions(filter, "r", &args)
	if len(conditions) > 0 {
		builder.WriteString(" AND ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY r.department ORDER BY downloads DESC, views DESC")

	var rows []models.AnalyticsDepartmentUsage
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("department usage: %w", err)
	}
	return rows, nil
}

// DocumentTypeUsage unrolls the comma separated type tags and counts activity per tag.
func (r *AnalyticsRepository) DocumentTypeUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsDocumentTypeUsage, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT TRIM(t.document_type) AS document_type,
	COUNT(DISTINCT r.id) AS record_count,
	COUNT(h.id) AS actions
	FROM records r
	CROSS JOIN LATERAL unnest(string_to_array(r.document_types, ',')) AS t(document_type)
	LEFT JOIN history_entries h ON h.record_id = r.id
	WHERE r.deleted_at IS NULL AND TRIM(t.document_type) <> ''`)
	args := make([]interface{}, 0, 3)
	conditions := usageConditions(filter, "r", &args)
	if len(conditions) > 0 {
		builder.WriteString(" AND ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY TRIM(t.document_type) ORDER BY actions DESC")

	var rows []models.AnalyticsDocumentTypeUsage
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("document type usage: %w", err)
	}
	return rows, nil
}

// MonthlyUsage buckets views and downloads per calendar month.
func (r *AnalyticsRepository) MonthlyUsage(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsMonthlyUsage, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT date_trunc('month', h.action_at) AS month,
	COUNT(*) FILTER (WHERE h.action = 'view') AS views,
	COUNT(*) FILTER (WHERE h.action = 'download') AS downloads
	FROM history_entries h
	JOIN records r ON r.id = h.record_id`)
	args := make([]interface{}, 0, 3)
	conditions := usageConditions(filter, "r", &args)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY date_trunc('month', h.action_at) ORDER BY month ASC")

	var rows []models.AnalyticsMonthlyUsage
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("monthly usage: %w", err)
	}
	return rows, nil
}

// TopRecords ranks records by download then view counts.
func (r *AnalyticsRepository) TopRecords(ctx context.Context, filter models.AnalyticsUsageFilter) ([]models.AnalyticsTopRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	builder := strings.Builder{}
	builder.WriteString(`SELECT r.id AS record_id, r.title, r.department,
	COUNT(h.id) FILTER (WHERE h.action = 'view') AS views,
	COUNT(h.id) FILTER (WHERE h.action = 'download') AS downloads,
	MAX(h.action_at) AS last_active
	FROM records r
	JOIN history_entries h ON h.record_id = r.id
	WHERE r.deleted_at IS NULL`)
	args := make([]interface{}, 0, 3)
	conditions := usageConditions(filter, "r", &args)
	if len(conditions) > 0 {
		builder.WriteString(" AND ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY r.id, r.title, r.department ORDER BY downloads DESC, views DESC")
	builder.WriteString(fmt.Sprintf(" LIMIT %d", limit))

	var rows []models.AnalyticsTopRecord
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("top records: %w", err)
	}
	return rows, nil
}
