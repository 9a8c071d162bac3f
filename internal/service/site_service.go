package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type changeFeed interface {
	Version(ctx context.Context, site string) (int64, error)
	Bump(ctx context.Context, site string, collection models.Collection) (models.ChangeNotice, error)
	Subscribe(ctx context.Context, site string) (<-chan models.ChangeNotice, error)
}

type siteEventLister interface {
	ListBySite(ctx context.Context, site string) ([]models.Event, error)
}

type siteCategoryLister interface {
	ListBySite(ctx context.Context, site string) ([]models.Category, error)
}

type settingsProvider interface {
	Current(ctx context.Context) (models.AppSettings, error)
}

type siteCacheInvalidator interface {
	InvalidateSite(ctx context.Context, site string) error
}

// siteNotifier is implemented by SiteService and used by every mutating service.
type siteNotifier interface {
	Touch(ctx context.Context, site string, collection models.Collection)
}

// SiteService assembles site snapshots and propagates change notifications.
type SiteService struct {
	events     siteEventLister
	categories siteCategoryLister
	settings   settingsProvider
	feed       changeFeed
	cache      siteCacheInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSiteService constructs a SiteService.
func NewSiteService(events siteEventLister, categories siteCategoryLister, settings settingsProvider, feed changeFeed, cache siteCacheInvalidator, metrics *MetricsService, logger *zap.Logger) *SiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteService{
		events:     events,
		categories: categories,
		settings:   settings,
		feed:       feed,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Snapshot loads everything the calendar core needs to render a site.
func (s *SiteService) Snapshot(ctx context.Context, site string) (*models.SiteSnapshot, error) {
	version, err := s.feed.Version(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read site version")
	}
	settingsVersion, err := s.feed.Version(ctx, models.GlobalScope)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read settings version")
	}

	start := time.Now()
	events, err := s.events.ListBySite(ctx, site)
	s.metrics.ObserveDBQuery("events_by_site", time.Since(start))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load events")
	}

	start = time.Now()
	categories, err := s.categories.ListBySite(ctx, site)
	s.metrics.ObserveDBQuery("categories_by_site", time.Since(start))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load categories")
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	return &models.SiteSnapshot{
		Site:            site,
		Version:         version,
		SettingsVersion: settingsVersion,
		Events:          events,
		Categories:      categories,
		Settings:        settings,
	}, nil
}

// Touch records that a collection of site changed. Failures are logged, never returned,
// because the write that triggered them has already been committed.
func (s *SiteService) Touch(ctx context.Context, site string, collection models.Collection) {
	if _, err := s.feed.Bump(ctx, site, collection); err != nil {
		s.logger.Warn("change feed bump failed", zap.String("site", site), zap.String("collection", string(collection)), zap.Error(err))
	}
	if s.cache == nil || site == models.GlobalScope {
		return
	}
	if err := s.cache.InvalidateSite(ctx, site); err != nil {
		s.logger.Warn("site cache invalidation failed", zap.String("site", site), zap.Error(err))
	}
}

// Watch emits a snapshot immediately and again after every change to site or to the
// install-wide settings. The channel closes when ctx is done.
func (s *SiteService) Watch(ctx context.Context, site string) (<-chan models.SiteSnapshot, error) {
	siteChanges, err := s.feed.Subscribe(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to subscribe to site changes")
	}
	globalChanges, err := s.feed.Subscribe(ctx, models.GlobalScope)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to subscribe to settings changes")
	}

	initial, err := s.Snapshot(ctx, site)
	if err != nil {
		return nil, err
	}

	out := make(chan models.SiteSnapshot, 1)
	out <- *initial

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-siteChanges:
				if !ok {
					return
				}
			case _, ok := <-globalChanges:
				if !ok {
					return
				}
			}

			snapshot, err := s.Snapshot(ctx, site)
			if err != nil {
				s.logger.Warn("snapshot reload failed", zap.String("site", site), zap.Error(err))
				continue
			}
			select {
			case out <- *snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
