package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

// ImportantPriority is the category priority listed in the important section of the feed.
const ImportantPriority = 3

// maxMemoSites bounds the per-site month memos held in memory.
const maxMemoSites = 256

type snapshotSource interface {
	Snapshot(ctx context.Context, site string) (*models.SiteSnapshot, error)
	Watch(ctx context.Context, site string) (<-chan models.SiteSnapshot, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// FeedConfig tunes feed and month rendering.
type FeedConfig struct {
	LookaheadDays   int
	UpcomingLimit   int
	DefaultTimeZone string
	MonthCacheTTL   time.Duration
}

// FeedService renders the read side of the calendar: upcoming feed, month grid and clock.
type FeedService struct {
	snapshots snapshotSource
	settings  settingsProvider
	cache     viewCache
	icons     calendar.IconRegistry
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       FeedConfig
	now       func() time.Time

	memoMu sync.Mutex
	memos  map[string]*calendar.MonthMemo
}

// NewFeedService constructs a FeedService. cache may be nil.
func NewFeedService(snapshots snapshotSource, settings settingsProvider, cache viewCache, metrics *MetricsService, logger *zap.Logger, cfg FeedConfig) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = calendar.DefaultLookaheadDays
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = calendar.DefaultUpcomingLimit
	}
	return &FeedService{
		snapshots: snapshots,
		settings:  settings,
		cache:     cache,
		icons:     calendar.DefaultIcons,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		memos:     make(map[string]*calendar.MonthMemo),
	}
}

// Feed returns the next occurrences of a site and the important ones.
func (s *FeedService) Feed(ctx context.Context, site string, q dto.FeedQuery) (*dto.FeedResponse, error) {
	viewer, err := ResolveViewer(q.ViewerQuery, s.cfg.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshots.Snapshot(ctx, site)
	if err != nil {
		return nil, err
	}
	return s.buildFeed(snapshot, viewer, q)
}

// Stream renders the feed again each time the site changes. The channel closes with ctx.
func (s *FeedService) Stream(ctx context.Context, site string, q dto.FeedQuery) (<-chan dto.FeedResponse, error) {
	viewer, err := ResolveViewer(q.ViewerQuery, s.cfg.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.snapshots.Watch(ctx, site)
	if err != nil {
		return nil, err
	}

	out := make(chan dto.FeedResponse, 1)
	go func() {
		defer close(out)
		for snapshot := range snapshots {
			snapshot := snapshot
			feed, err := s.buildFeed(&snapshot, viewer, q)
			if err != nil {
				s.logger.Warn("feed render failed", zap.String("site", site), zap.Error(err))
				continue
			}
			select {
			case out <- *feed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *FeedService) buildFeed(snapshot *models.SiteSnapshot, viewer Viewer, q dto.FeedQuery) (*dto.FeedResponse, error) {
	now := s.now()
	events := s.usableEvents(snapshot)

	opts := calendar.UpcomingOptions{
		Now:            now,
		Location:       viewer.Location,
		LookaheadDays:  s.cfg.LookaheadDays,
		Limit:          s.cfg.UpcomingLimit,
		PriorityFilter: q.Priority,
	}
	if q.Days > 0 {
		opts.LookaheadDays = q.Days
	}
	if q.Limit > 0 {
		opts.Limit = q.Limit
	}

	upcoming, err := calendar.Upcoming(events, snapshot.Categories, opts)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to expand upcoming events")
	}
	important := ImportantPriority
	opts.PriorityFilter = &important
	highlights, err := calendar.Upcoming(events, snapshot.Categories, opts)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to expand important events")
	}
	s.metrics.RecordOccurrences("lookahead", len(upcoming)+len(highlights))

	r := s.reconciler(viewer.Location)
	offset := snapshot.Settings.ServerOffset
	categories := calendar.IndexCategories(snapshot.Categories)

	return &dto.FeedResponse{
		Site:        snapshot.Site,
		Version:     snapshot.Version,
		Timeline:    string(viewer.Timeline),
		GeneratedAt: now.UTC(),
		Upcoming:    s.occurrenceViews(upcoming, categories, r, viewer.Timeline, &offset, now),
		Important:   s.occurrenceViews(highlights, categories, r, viewer.Timeline, &offset, now),
	}, nil
}

// Month renders the Sunday-first grid of a month. Year and month default to the viewer's today.
func (s *FeedService) Month(ctx context.Context, site string, q dto.MonthQuery) (*dto.MonthView, error) {
	viewer, err := ResolveViewer(q.ViewerQuery, s.cfg.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	today := s.now().In(viewer.Location)
	year, month := q.Year, time.Month(q.Month)
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}

	snapshot, err := s.snapshots.Snapshot(ctx, site)
	if err != nil {
		return nil, err
	}

	key := MonthCacheKey(site, snapshot.Version, snapshot.SettingsVersion, year, int(month), string(viewer.Timeline), viewer.Location.String())
	if s.cache != nil {
		var cached dto.MonthView
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Debug("month cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	all, err := s.memo(site).Occurrences(snapshot.Version, s.usableEvents(snapshot), year, month, viewer.Location)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to expand month")
	}
	s.metrics.RecordOccurrences("month", len(all))

	r := s.reconciler(viewer.Location)
	offset := snapshot.Settings.ServerOffset
	grid := calendar.BuildMonth(all, year, month, viewer.Timeline, &offset, r)
	view := s.monthView(snapshot, grid, viewer, r, &offset)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cfg.MonthCacheTTL); err != nil {
			s.logger.Debug("month cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return view, nil
}

// Clock reads the current time on the selected timeline.
func (s *FeedService) Clock(ctx context.Context, q dto.ViewerQuery) (*dto.ClockResponse, error) {
	viewer, err := ResolveViewer(q, s.cfg.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	offset := settings.ServerOffset
	r := s.reconciler(viewer.Location)
	return &dto.ClockResponse{
		Time:         r.Format(s.now(), viewer.Timeline, &offset, calendar.GranularitySeconds),
		Timeline:     string(viewer.Timeline),
		ServerOffset: offset,
		Season:       settings.CurrentSeason,
		Fallback:     viewer.Timeline == models.TimelineServer && !calendar.ValidOffset(offset),
	}, nil
}

func (s *FeedService) monthView(snapshot *models.SiteSnapshot, grid calendar.MonthGrid, viewer Viewer, r *calendar.Reconciler, offset *int) *dto.MonthView {
	categories := calendar.IndexCategories(snapshot.Categories)
	view := &dto.MonthView{
		Site:          snapshot.Site,
		Year:          grid.Year,
		Month:         int(grid.Month),
		Timeline:      string(viewer.Timeline),
		TimeZone:      viewer.Location.String(),
		LeadingBlanks: grid.LeadingBlanks,
		Days:          make([]dto.DayView, 0, len(grid.Days)),
	}
	for _, day := range grid.Days {
		cells := make([]dto.CellView, 0, len(day.Events))
		for _, e := range day.Events {
			clock, _ := r.CellTime(e.Start, day.Date, viewer.Timeline, offset)
			style := calendar.ResolveStyle(e, categories, s.icons)
			cells = append(cells, dto.CellView{
				ID:                  e.ID,
				AnchorID:            calendar.AnchorID(e.ID),
				Title:               e.Title,
				Time:                clock,
				IsRecurringInstance: e.IsRecurringInstance,
				Color:               style.Color,
				LabelColor:          style.LabelColor,
				Icon:                style.IconName,
				IconColor:           style.IconColor,
			})
		}
		view.Days = append(view.Days, dto.DayView{Date: day.Date.Format(dateLayout), Events: cells})
	}
	return view
}

func (s *FeedService) occurrenceViews(events []models.Event, categories map[string]models.Category, r *calendar.Reconciler, timeline models.Timeline, offset *int, now time.Time) []dto.OccurrenceView {
	views := make([]dto.OccurrenceView, 0, len(events))
	for _, e := range events {
		views = append(views, dto.OccurrenceView{
			ID:                  e.ID,
			AnchorID:            calendar.AnchorID(e.ID),
			Title:               e.Title,
			Start:               e.Start,
			End:                 e.End(),
			Duration:            e.Duration,
			TimeZone:            e.TimeZone,
			Recurrence:          e.Recurrence,
			RepeatsUntil:        e.RepeatsUntil,
			CategoryID:          e.CategoryID,
			IsRecurringInstance: e.IsRecurringInstance,
			DisplayStart:        r.Format(e.Start, timeline, offset, calendar.GranularityMinutes),
			DisplayEnd:          r.Format(e.End(), timeline, offset, calendar.GranularityMinutes),
			Countdown:           calendar.TimeUntil(e.Start, now),
			Style:               calendar.ResolveStyle(e, categories, s.icons),
		})
	}
	return views
}

// usableEvents drops stored events the expander would reject so one bad row cannot hide a site.
func (s *FeedService) usableEvents(snapshot *models.SiteSnapshot) []models.Event {
	out := make([]models.Event, 0, len(snapshot.Events))
	for _, e := range snapshot.Events {
		if err := calendar.Validate(e); err != nil {
			s.logger.Warn("skipping invalid stored event", zap.String("site", snapshot.Site), zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *FeedService) reconciler(loc *time.Location) *calendar.Reconciler {
	return calendar.NewReconciler(loc, s.logger, calendar.WithFallbackHook(s.metrics.RecordFallback))
}

// memo returns the month memo of site. At most maxMemoSites memos are kept; when the table is
// full an arbitrary other site is evicted and simply recomputes on its next request.
func (s *FeedService) memo(site string) *calendar.MonthMemo {
	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	if m, ok := s.memos[site]; ok {
		return m
	}
	if len(s.memos) >= maxMemoSites {
		for victim := range s.memos {
			delete(s.memos, victim)
			break
		}
	}
	m := calendar.NewMonthMemo()
	s.memos[site] = m
	return m
}
