package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

const eventColumns = "id, site, title, start_at, duration_minutes, time_zone, recurrence, repeats_until, category_id, icon, icon_color, created_by, created_at, updated_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// EventRepository persists event definitions.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListBySite returns every stored event of a site, the input of the recurrence expander.
func (r *EventRepository) ListBySite(ctx context.Context, site string) ([]models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE site = $1 ORDER BY start_at ASC, id ASC"
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, site); err != nil {
		return nil, fmt.Errorf("list events by site: %w", err)
	}
	return events, nil
}

// List returns a page of stored events matching the filter. Recurring events are included
// when their series overlaps the requested range.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	where := sq.And{sq.Eq{"site": filter.Site}}
	if filter.From != nil {
		where = append(where, sq.Or{
			sq.GtOrEq{"start_at": *filter.From},
			sq.And{
				sq.NotEq{"recurrence": string(models.RecurrenceNone)},
				sq.Or{sq.Eq{"repeats_until": nil}, sq.GtOrEq{"repeats_until": *filter.From}},
			},
		})
	}
	if filter.To != nil {
		where = append(where, sq.LtOrEq{"start_at": *filter.To})
	}
	if len(filter.Recurrence) > 0 {
		values := make([]string, len(filter.Recurrence))
		for i, rec := range filter.Recurrence {
			values[i] = string(rec)
		}
		where = append(where, sq.Eq{"recurrence": values})
	}
	if len(filter.CategoryIDs) > 0 {
		where = append(where, sq.Eq{"category_id": filter.CategoryIDs})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, sq.ILike{"title": "%" + search + "%"})
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}

	query, args, err := psql.Select(strings.Split(eventColumns, ", ")...).
		From("events").
		Where(where).
		OrderBy("start_at ASC", "id ASC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list events query: %w", err)
	}
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("events").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count events query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// GetByID fetches a stored event of a site.
func (r *EventRepository) GetByID(ctx context.Context, site, id string) (*models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE site = $1 AND id = $2"
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, site, id); err != nil {
		return nil, err
	}
	return &event, nil
}

const insertEventQuery = `INSERT INTO events (id, site, title, start_at, duration_minutes, time_zone, recurrence, repeats_until, category_id, icon, icon_color, created_by, created_at, updated_at)
VALUES (:id, :site, :title, :start_at, :duration_minutes, :time_zone, :recurrence, :repeats_until, :category_id, :icon, :icon_color, :created_by, :created_at, :updated_at)`

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	prepareEvent(event)
	if _, err := r.db.NamedExecContext(ctx, insertEventQuery, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// CreateBatch inserts several events atomically.
func (r *EventRepository) CreateBatch(ctx context.Context, events []models.Event) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create events: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range events {
		prepareEvent(&events[i])
		if _, err := tx.NamedExecContext(ctx, insertEventQuery, &events[i]); err != nil {
			return fmt.Errorf("create event %s: %w", events[i].Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create events: %w", err)
	}
	return nil
}

// Update modifies an event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	query := `UPDATE events SET title = :title, start_at = :start_at, duration_minutes = :duration_minutes, time_zone = :time_zone,
recurrence = :recurrence, repeats_until = :repeats_until, category_id = :category_id, icon = :icon, icon_color = :icon_color, updated_at = :updated_at
WHERE id = :id AND site = :site`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, site, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE site = $1 AND id = $2", site, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func prepareEvent(event *models.Event) {
	if event.ID == "" {
		event.ID = calendar.NewID()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	event.Start = event.Start.UTC()
}
