package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// RecordRepository handles regulation record persistence.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create stores metadata for an uploaded regulation document.
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = record.CreatedAt
	const query = `INSERT INTO records
	(title, title_ar, department, sections, document_types, version_date, file_path, mime_type, size_bytes, created_by, created_at, updated_at)
	VALUES (:title, :title_ar, :department, :sections, :document_types, :version_date, :file_path, :mime_type, :size_bytes, :created_by, :created_at, :updated_at)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&record.ID); err != nil {
			return fmt.Errorf("scan record id: %w", err)
		}
	}
	return rows.Err()
}

// GetByID retrieves one record row.
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	const query = `SELECT id, title, title_ar, department, sections, document_types, version_date,
       file_path, mime_type, size_bytes, created_by, created_at, updated_at, deleted_at
	FROM records WHERE id = $1 AND deleted_at IS NULL`
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns all live records in insertion order. Filtering and
// sorting happen in the service layer against this snapshot.
func (r *RecordRepository) List(ctx context.Context) ([]models.Record, error) {
	const query = `SELECT id, title, title_ar, department, sections, document_types, version_date,
       file_path, mime_type, size_bytes, created_by, created_at, updated_at, deleted_at
	FROM records WHERE deleted_at IS NULL ORDER BY id ASC`
	var records []models.Record
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ListByIDs fetches records preserving the order of the given ids.
func (r *RecordRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Record, error) {
	if len(ids) == 0 {
		return []models.Record{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, title, title_ar, department, sections, document_types, version_date,
       file_path, mime_type, size_bytes, created_by, created_at, updated_at, deleted_at
	FROM records WHERE id IN (?) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, fmt.Errorf("build records query: %w", err)
	}
	query = r.db.Rebind(query)
	var records []models.Record
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list records by ids: %w", err)
	}
	byID := make(map[int64]models.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	ordered := make([]models.Record, 0, len(records))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// Update overwrites mutable record metadata.
func (r *RecordRepository) Update(ctx context.Context, record *models.Record) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE records SET
		title = :title,
		title_ar = :title_ar,
		department = :department,
		sections = :sections,
		document_types = :document_types,
		version_date = :version_date,
		updated_at = :updated_at
	WHERE id = :id AND deleted_at IS NULL`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check record update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete marks a record as deleted.
func (r *RecordRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE records SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check record delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Departments lists distinct department names of live records.
func (r *RecordRepository) Departments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM records WHERE deleted_at IS NULL ORDER BY department ASC`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// buildCatalog collects distinct tag values from comma separated columns.
func buildCatalog(records []models.Record) models.RecordCatalog {
	catalog := models.RecordCatalog{}
	seenDept := map[string]struct{}{}
	seenSection := map[string]struct{}{}
	seenType := map[string]struct{}{}
	for _, rec := range records {
		if _, ok := seenDept[rec.Department]; !ok && rec.Department != "" {
			seenDept[rec.Department] = struct{}{}
			catalog.Departments = append(catalog.Departments, rec.Department)
		}
		for _, s := range rec.Sections {
			if _, ok := seenSection[s]; !ok {
				seenSection[s] = struct{}{}
				catalog.Sections = append(catalog.Sections, s)
			}
		}
		for _, t := range rec.DocumentTypes {
			if _, ok := seenType[t]; !ok {
				seenType[t] = struct{}{}
				catalog.DocumentTypes = append(catalog.DocumentTypes, t)
			}
		}
	}
	sortFold(catalog.Departments)
	sortFold(catalog.Sections)
	sortFold(catalog.DocumentTypes)
	return catalog
}

func sortFold(values []string) {
	sort.Slice(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
}

// Catalog derives the filter option lists from the live snapshot.
func (r *RecordRepository) Catalog(ctx context.Context) (models.RecordCatalog, error) {
	records, err := r.List(ctx)
	if err != nil {
		return models.RecordCatalog{}, err
	}
	return buildCatalog(records), nil
}
