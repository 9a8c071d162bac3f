package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

// ActivityRepository persists the activity log.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends an entry.
func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = calendar.NewID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if len(entry.Details) == 0 {
		entry.Details = []byte("{}")
	}
	query := `INSERT INTO activity_log (id, occurred_at, user_id, user_name, site, role, action_type, details)
VALUES (:id, :occurred_at, :user_id, :user_name, :site, :role, :action_type, :details)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// List returns a page of a site's activity, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityEntry, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}

	query := fmt.Sprintf(`SELECT id, occurred_at, user_id, user_name, site, role, action_type, details
FROM activity_log WHERE site = $1 ORDER BY occurred_at DESC LIMIT %d OFFSET %d`, size, (page-1)*size)
	var entries []models.ActivityEntry
	if err := r.db.SelectContext(ctx, &entries, query, filter.Site); err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activity_log WHERE site = $1", filter.Site); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}
	return entries, total, nil
}

// PruneBefore deletes entries older than cutoff and reports how many were removed.
func (r *ActivityRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activity_log WHERE occurred_at < $1", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune activity rows: %w", err)
	}
	return n, nil
}
