package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// BookmarkRepository persists per-user saved records.
type BookmarkRepository struct {
	db *sqlx.DB
}

// NewBookmarkRepository constructs the repository.
func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Add saves a record for a user. Duplicate saves are a no-op.
func (r *BookmarkRepository) Add(ctx context.Context, userID string, recordID int64) error {
	const query = `INSERT INTO bookmarks (user_id, record_id, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, record_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, recordID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

// Remove unsaves a record and reports whether a row was deleted.
func (r *BookmarkRepository) Remove(ctx context.Context, userID string, recordID int64) (bool, error) {
	const query = `DELETE FROM bookmarks WHERE user_id = $1 AND record_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, recordID)
	if err != nil {
		return false, fmt.Errorf("remove bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check bookmark delete rows: %w", err)
	}
	return affected > 0, nil
}

// ListIDs returns the record ids a user has saved.
func (r *BookmarkRepository) ListIDs(ctx context.Context, userID string) ([]int64, error) {
	const query = `SELECT record_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at ASC`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmark ids: %w", err)
	}
	return ids, nil
}

// IDSet returns the saved record ids as a membership set.
func (r *BookmarkRepository) IDSet(ctx context.Context, userID string) (map[int64]struct{}, error) {
	ids, err := r.ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
