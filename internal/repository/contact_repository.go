package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// ContactRepository persists department contact entries.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs the repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create stores a new contact.
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}
	contact.UpdatedAt = contact.CreatedAt
	const query = `INSERT INTO contacts (name, department, email, phone, created_at, updated_at)
	VALUES (:name, :department, :email, :phone, :created_at, :updated_at)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, contact)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&contact.ID); err != nil {
			return fmt.Errorf("scan contact id: %w", err)
		}
	}
	return rows.Err()
}

// GetByID retrieves one contact row.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	const query = `SELECT id, name, department, email, phone, created_at, updated_at, deleted_at
	FROM contacts WHERE id = $1 AND deleted_at IS NULL`
	var contact models.Contact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		return nil, err
	}
	return &contact, nil
}

// List returns contacts, optionally restricted to one department.
func (r *ContactRepository) List(ctx context.Context, department string) ([]models.Contact, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, name, department, email, phone, created_at, updated_at, deleted_at
	FROM contacts WHERE deleted_at IS NULL`)
	args := make([]interface{}, 0, 1)
	if department != "" {
		args = append(args, department)
		builder.WriteString(fmt.Sprintf(" AND LOWER(department) = LOWER($%d)", len(args)))
	}
	builder.WriteString(" ORDER BY department ASC, name ASC")

	var contacts []models.Contact
	if err := r.db.SelectContext(ctx, &contacts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Update overwrites contact fields.
func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()
	const query = `UPDATE contacts SET
		name = :name,
		department = :department,
		email = :email,
		phone = :phone,
		updated_at = :updated_at
	WHERE id = :id AND deleted_at IS NULL`
	res, err := r.db.NamedExecContext(ctx, query, contact)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check contact update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete marks a contact as deleted.
func (r *ContactRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE contacts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check contact delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
