package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	GetByID(ctx context.Context, site, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, site, id string) error
}

// EventService manages stored events. Occurrence ids are accepted everywhere an event id is
// and resolve to the anchor they were expanded from.
type EventService struct {
	repo      eventRepository
	settings  settingsProvider
	validator *validator.Validate
	notifier  siteNotifier
	activity  activityRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, settings settingsProvider, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:      repo,
		settings:  settings,
		validator: ensureValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// SetCollaborators wires change notification and activity recording.
func (s *EventService) SetCollaborators(notifier siteNotifier, activity activityRecorder) {
	s.notifier = notifier
	s.activity = activity
}

// List returns stored events of a site. From and To are calendar days in loc.
func (s *EventService) List(ctx context.Context, site string, q dto.EventListQuery, loc *time.Location) ([]models.Event, *models.Pagination, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, appErrors.Invalid(err, "invalid event filter")
	}
	if loc == nil {
		loc = time.UTC
	}

	filter := models.EventFilter{
		Site:        site,
		CategoryIDs: q.Category,
		Search:      strings.TrimSpace(q.Search),
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	for _, r := range q.Recurrence {
		filter.Recurrence = append(filter.Recurrence, models.Recurrence(r))
	}
	if q.From != "" {
		from, err := time.ParseInLocation(dateLayout, q.From, loc)
		if err != nil {
			return nil, nil, appErrors.Invalid(err, "invalid from date")
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.ParseInLocation(dateLayout, q.To, loc)
		if err != nil {
			return nil, nil, appErrors.Invalid(err, "invalid to date")
		}
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list events")
	}
	return events, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns the stored event id refers to.
func (s *EventService) Get(ctx context.Context, site, id string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, site, calendar.AnchorID(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Internal(err, "failed to load event")
	}
	return event, nil
}

// Create stores a new event. Local wall clocks are read in viewer.
func (s *EventService) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.EventRequest, viewer *time.Location) (*models.Event, error) {
	event, err := s.buildEvent(ctx, req, viewer)
	if err != nil {
		return nil, err
	}
	event.Site = site
	event.ID = calendar.NewID()
	if actor != nil {
		event.CreatedBy = actor.UserID
	}
	now := s.now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Internal(err, "failed to create event")
	}
	s.afterWrite(ctx, actor, site, models.ActivityEventCreate, event)
	return event, nil
}

// Update replaces the editable fields of the event id refers to.
func (s *EventService) Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.EventRequest, viewer *time.Location) (*models.Event, error) {
	existing, err := s.Get(ctx, site, id)
	if err != nil {
		return nil, err
	}
	event, err := s.buildEvent(ctx, req, viewer)
	if err != nil {
		return nil, err
	}
	event.ID = existing.ID
	event.Site = existing.Site
	event.CreatedBy = existing.CreatedBy
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Internal(err, "failed to update event")
	}
	s.afterWrite(ctx, actor, site, models.ActivityEventUpdate, event)
	return event, nil
}

// Delete removes the event id refers to. Deleting an occurrence deletes the whole series.
func (s *EventService) Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	existing, err := s.Get(ctx, site, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, site, existing.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Internal(err, "failed to delete event")
	}
	s.afterWrite(ctx, actor, site, models.ActivityEventDelete, existing)
	return nil
}

func (s *EventService) buildEvent(ctx context.Context, req dto.EventRequest, viewer *time.Location) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid event payload")
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	start, err := parseWallClock(req.Date, req.Time, zoneFor(req.TimeZone, viewer, settings.ServerOffset))
	if err != nil {
		return nil, err
	}

	recurrence := req.Recurrence
	if recurrence == "" {
		recurrence = models.RecurrenceNone
	}

	event := &models.Event{
		Title:      strings.TrimSpace(req.Title),
		Start:      start.UTC(),
		Duration:   int(math.Round(req.DurationHours * 60)),
		TimeZone:   req.TimeZone,
		Recurrence: recurrence,
		CategoryID: nonEmpty(req.CategoryID),
		Icon:       nonEmpty(req.Icon),
		IconColor:  nonEmpty(req.IconColor),
	}

	if recurrence.Recurring() && req.RepeatsUntil != nil && *req.RepeatsUntil != "" {
		until, err := parseDate(*req.RepeatsUntil)
		if err != nil {
			return nil, err
		}
		if until.Before(time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "repeats_until is before the first occurrence")
		}
		event.RepeatsUntil = &until
	}

	if err := calendar.Validate(*event); err != nil {
		return nil, appErrors.Invalid(err, "invalid event")
	}
	return event, nil
}

func (s *EventService) afterWrite(ctx context.Context, actor *models.JWTClaims, site string, action models.ActivityType, event *models.Event) {
	if s.notifier != nil {
		s.notifier.Touch(ctx, site, models.CollectionEvents)
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, map[string]interface{}{
			"eventId": event.ID,
			"title":   event.Title,
			"start":   event.Start,
		})
	}
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
