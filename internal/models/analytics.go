package models

import "time"

// AnalyticsUsageFilter scopes usage analytics queries.
type AnalyticsUsageFilter struct {
	Department string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
}

// AnalyticsActionTotals aggregates history entries per action type.
type AnalyticsActionTotals struct {
	Views        int `db:"views" json:"views"`
	Downloads    int `db:"downloads" json:"downloads"`
	DetailOpens  int `db:"detail_opens" json:"detail_opens"`
	TotalActions int `db:"total_actions" json:"total_actions"`
}

// AnalyticsDepartmentUsage aggregates activity per department.
type AnalyticsDepartmentUsage struct {
	Department  string `db:"department" json:"department"`
	RecordCount int    `db:"record_count" json:"record_count"`
	Views       int    `db:"views" json:"views"`
	Downloads   int    `db:"downloads" json:"downloads"`
}

// AnalyticsDocumentTypeUsage aggregates activity per document type tag.
type AnalyticsDocumentTypeUsage struct {
	DocumentType string `db:"document_type" json:"document_type"`
	RecordCount  int    `db:"record_count" json:"record_count"`
	Actions      int    `db:"actions" json:"actions"`
}

// AnalyticsMonthlyUsage buckets activity per calendar month.
type AnalyticsMonthlyUsage struct {
	Month     time.Time `db:"month" json:"month"`
	Views     int       `db:"views" json:"views"`
	Downloads int       `db:"downloads" json:"downloads"`
}

// AnalyticsTopRecord is one entry of the most-accessed records ranking.
type AnalyticsTopRecord struct {
	RecordID   int64      `db:"record_id" json:"record_id"`
	Title      string     `db:"title" json:"title"`
	Department string     `db:"department" json:"department"`
	Views      int        `db:"views" json:"views"`
	Downloads  int        `db:"downloads" json:"downloads"`
	LastActive *time.Time `db:"last_active" json:"last_active,omitempty"`
}

// AnalyticsUsageSummary bundles the full usage dashboard payload.
type AnalyticsUsageSummary struct {
	Totals      AnalyticsActionTotals        `json:"totals"`
	Departments []AnalyticsDepartmentUsage   `json:"departments"`
	Types       []AnalyticsDocumentTypeUsage `json:"types"`
	Monthly     []AnalyticsMonthlyUsage      `json:"monthly"`
	TopRecords  []AnalyticsTopRecord         `json:"top_records"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
