package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/regdocs-api/internal/models"
)

// HistoryRepository persists per-user document activity.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Log appends one activity entry.
func (r *HistoryRepository) Log(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ActionAt.IsZero() {
		entry.ActionAt = time.Now().UTC()
	}
	const query = `INSERT INTO history_entries (user_id, record_id, action, action_at)
	VALUES (:user_id, :record_id, :action, :action_at)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("log history entry: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&entry.ID); err != nil {
			return fmt.Errorf("scan history id: %w", err)
		}
	}
	return rows.Err()
}

// ListForUser returns all activity entries for a user joined with record titles.
func (r *HistoryRepository) ListForUser(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	const query = `SELECT h.id, h.user_id, h.record_id, h.action, h.action_at,
       r.title AS record_title, r.title_ar AS record_title_ar
	FROM history_entries h
	JOIN records r ON r.id = h.record_id AND r.deleted_at IS NULL
	WHERE h.user_id = $1
	ORDER BY h.action_at ASC, h.id ASC`
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list history for user: %w", err)
	}
	return entries, nil
}

// DeleteForUser clears a user's activity trail.
func (r *HistoryRepository) DeleteForUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM history_entries WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete history for user: %w", err)
	}
	return nil
}
