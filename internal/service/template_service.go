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

type templateRepository interface {
	ListBySite(ctx context.Context, site string) ([]models.Template, error)
	GetByID(ctx context.Context, site, id string) (*models.Template, error)
	Create(ctx context.Context, tpl *models.Template) error
	Update(ctx context.Context, tpl *models.Template) error
	Delete(ctx context.Context, site, id string) error
}

type templateEventStore interface {
	ListBySite(ctx context.Context, site string) ([]models.Event, error)
	CreateBatch(ctx context.Context, events []models.Event) error
}

// TemplateService manages weekly templates and instantiates them into events.
type TemplateService struct {
	repo       templateRepository
	events     templateEventStore
	categories siteCategoryLister
	settings   settingsProvider
	validator  *validator.Validate
	notifier   siteNotifier
	activity   activityRecorder
	logger     *zap.Logger
	defaultTZ  string
	now        func() time.Time
}

// NewTemplateService constructs a TemplateService. defaultTZ is the zone used when a request names none.
func NewTemplateService(repo templateRepository, events templateEventStore, categories siteCategoryLister, settings settingsProvider, validate *validator.Validate, logger *zap.Logger, defaultTZ string) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{
		repo:       repo,
		events:     events,
		categories: categories,
		settings:   settings,
		validator:  ensureValidator(validate),
		logger:     logger,
		defaultTZ:  defaultTZ,
		now:        time.Now,
	}
}

// SetCollaborators wires change notification and activity recording.
func (s *TemplateService) SetCollaborators(notifier siteNotifier, activity activityRecorder) {
	s.notifier = notifier
	s.activity = activity
}

// List returns the templates of a site.
func (s *TemplateService) List(ctx context.Context, site string) ([]models.Template, error) {
	templates, err := s.repo.ListBySite(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list templates")
	}
	return templates, nil
}

// Get returns one template.
func (s *TemplateService) Get(ctx context.Context, site, id string) (*models.Template, error) {
	tpl, err := s.repo.GetByID(ctx, site, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Internal(err, "failed to load template")
	}
	return tpl, nil
}

// Create saves a new template.
func (s *TemplateService) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.TemplateRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid template payload")
	}
	now := s.now().UTC()
	tpl := &models.Template{
		ID:        calendar.NewID(),
		Site:      site,
		Name:      strings.TrimSpace(req.Name),
		Slots:     toSlots(req.Slots),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actor != nil {
		tpl.CreatedBy = actor.UserID
	}
	return tpl, s.save(ctx, actor, tpl, true)
}

// Update replaces the name and slots of a template.
func (s *TemplateService) Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.TemplateRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid template payload")
	}
	tpl, err := s.Get(ctx, site, id)
	if err != nil {
		return nil, err
	}
	tpl.Name = strings.TrimSpace(req.Name)
	tpl.Slots = toSlots(req.Slots)
	tpl.UpdatedAt = s.now().UTC()
	return tpl, s.save(ctx, actor, tpl, false)
}

func (s *TemplateService) save(ctx context.Context, actor *models.JWTClaims, tpl *models.Template, create bool) error {
	var err error
	if create {
		err = s.repo.Create(ctx, tpl)
	} else {
		err = s.repo.Update(ctx, tpl)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Internal(err, "failed to save template")
	}
	s.touch(ctx, tpl.Site, models.CollectionTemplates)
	s.record(ctx, actor, models.ActivityTemplateSave, map[string]string{"templateId": tpl.ID, "name": tpl.Name})
	return nil
}

// Delete removes a template.
func (s *TemplateService) Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	if err := s.repo.Delete(ctx, site, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Internal(err, "failed to delete template")
	}
	s.touch(ctx, site, models.CollectionTemplates)
	s.record(ctx, actor, models.ActivityTemplateDelete, map[string]string{"templateId": id})
	return nil
}

// Apply creates one non-recurring event per planned slot of the viewer's current week,
// Sunday first. Icon and icon color come from the slot's category.
func (s *TemplateService) Apply(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.ApplyTemplateRequest) (*dto.ApplyTemplateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid apply payload")
	}
	viewer, err := ResolveViewer(req.ViewerQuery, s.defaultTZ)
	if err != nil {
		return nil, err
	}
	tpl, err := s.Get(ctx, site, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.ListBySite(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load categories")
	}
	categories := calendar.IndexCategories(cats)

	selected := selectedWeekdays(req.Days)
	week := weekStart(s.now(), viewer.Location)
	now := s.now().UTC()

	created := make([]models.Event, 0, models.DaysPerWeek)
	for i, slot := range tpl.Slots {
		if i >= models.DaysPerWeek || slot.Empty() {
			continue
		}
		if selected != nil && !selected[time.Weekday(i)] {
			continue
		}

		timeline := slot.TimeZone
		if !timeline.Valid() {
			timeline = models.TimelineLocal
		}
		date := week.AddDate(0, 0, i).Format(dateLayout)
		start, err := parseWallClock(date, slot.Time, zoneFor(timeline, viewer.Location, settings.ServerOffset))
		if err != nil {
			return nil, err
		}

		event := models.Event{
			ID:         calendar.NewID(),
			Site:       site,
			Title:      slot.Title,
			Start:      start.UTC(),
			Duration:   int(math.Round(slot.DurationHours * 60)),
			TimeZone:   timeline,
			Recurrence: models.RecurrenceNone,
			CategoryID: slot.CategoryID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if actor != nil {
			event.CreatedBy = actor.UserID
		}
		if slot.CategoryID != nil {
			if cat, ok := categories[*slot.CategoryID]; ok {
				event.Icon = cat.Icon
				event.IconColor = cat.IconColor
			}
		}
		if err := calendar.Validate(event); err != nil {
			return nil, appErrors.Invalid(err, "template slot does not describe a valid event")
		}
		created = append(created, event)
	}

	if len(created) == 0 {
		return &dto.ApplyTemplateResponse{Created: created}, nil
	}
	if err := s.events.CreateBatch(ctx, created); err != nil {
		return nil, appErrors.Internal(err, "failed to create template events")
	}
	s.touch(ctx, site, models.CollectionEvents)
	s.record(ctx, actor, models.ActivityTemplateApply, map[string]interface{}{"templateId": tpl.ID, "created": len(created)})
	return &dto.ApplyTemplateResponse{Created: created}, nil
}

// FromWeek saves a template built from the first occurrence of each day of the viewer's
// current week. Days without events become free slots.
func (s *TemplateService) FromWeek(ctx context.Context, actor *models.JWTClaims, site string, req dto.FromWeekRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid template payload")
	}
	viewer, err := ResolveViewer(req.ViewerQuery, s.defaultTZ)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.events.ListBySite(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load events")
	}

	week := weekStart(s.now(), viewer.Location)
	all, err := weekOccurrences(stored, week, viewer.Location)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to expand week")
	}

	r := calendar.NewReconciler(viewer.Location, s.logger)
	offset := settings.ServerOffset
	slots := make(models.TemplateSlots, models.DaysPerWeek)
	for i := range slots {
		day := week.AddDate(0, 0, i)
		found := calendar.EventsForDay(all, day, models.TimelineLocal, nil, r)
		if len(found) == 0 {
			continue
		}
		first := found[0]
		timeline := first.TimeZone
		if !timeline.Valid() {
			timeline = models.TimelineLocal
		}
		slots[i] = models.TemplateSlot{
			Title:         first.Title,
			Time:          r.Format(first.Start, timeline, &offset, calendar.GranularityMinutes),
			DurationHours: float64(first.Duration) / 60,
			CategoryID:    first.CategoryID,
			TimeZone:      timeline,
		}
	}

	now := s.now().UTC()
	tpl := &models.Template{
		ID:        calendar.NewID(),
		Site:      site,
		Name:      strings.TrimSpace(req.Name),
		Slots:     slots,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actor != nil {
		tpl.CreatedBy = actor.UserID
	}
	return tpl, s.save(ctx, actor, tpl, true)
}

func (s *TemplateService) touch(ctx context.Context, site string, collection models.Collection) {
	if s.notifier != nil {
		s.notifier.Touch(ctx, site, collection)
	}
}

func (s *TemplateService) record(ctx context.Context, actor *models.JWTClaims, action models.ActivityType, details interface{}) {
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, details)
	}
}

// weekOccurrences expands stored events over the one or two months the week touches.
// One-off events are taken from the first month only.
func weekOccurrences(events []models.Event, week time.Time, loc *time.Location) ([]models.Event, error) {
	last := week.AddDate(0, 0, models.DaysPerWeek-1)
	all, err := calendar.MonthOccurrences(events, week.Year(), week.Month(), loc)
	if err != nil {
		return nil, err
	}
	if last.Month() != week.Month() {
		more, err := calendar.MonthOccurrences(events, last.Year(), last.Month(), loc)
		if err != nil {
			return nil, err
		}
		for _, e := range more {
			if e.IsRecurringInstance {
				all = append(all, e)
			}
		}
	}
	return all, nil
}

func selectedWeekdays(days []string) map[time.Weekday]bool {
	if len(days) == 0 {
		return nil
	}
	selected := make(map[time.Weekday]bool, len(days))
	for _, name := range days {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if strings.EqualFold(wd.String(), name) {
				selected[wd] = true
			}
		}
	}
	return selected
}

func toSlots(in []dto.TemplateSlotRequest) models.TemplateSlots {
	slots := make(models.TemplateSlots, models.DaysPerWeek)
	for i, slot := range in {
		if i >= models.DaysPerWeek {
			break
		}
		title := strings.TrimSpace(slot.Title)
		if title == "" {
			continue
		}
		timeline := slot.TimeZone
		if timeline == "" {
			timeline = models.TimelineLocal
		}
		slots[i] = models.TemplateSlot{
			Title:         title,
			Time:          slot.Time,
			DurationHours: slot.DurationHours,
			CategoryID:    nonEmpty(slot.CategoryID),
			TimeZone:      timeline,
		}
	}
	return slots
}
