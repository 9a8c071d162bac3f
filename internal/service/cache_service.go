package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

const (
	cacheKeyPrefix  = "groupcal"
	defaultCacheTTL = 10 * time.Minute
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the view cache and feeds its hit ratio into the metrics.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. A disabled service misses on every read and drops writes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled && repo != nil}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled
}

// MonthCacheKey builds the key for a rendered month view. Both change counters are part of the
// key so stale entries are never served after a write.
func MonthCacheKey(site string, version, settingsVersion int64, year, month int, timeline, tz string) string {
	return fmt.Sprintf("%s:month:%s:v%d.%d:%04d-%02d:%s:%s", cacheKeyPrefix, site, version, settingsVersion, year, month, timeline, tz)
}

// Get decodes the entry at key into dest and reports whether it was there.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err == nil || errors.Is(err, appErrors.ErrCacheMiss) {
		return hit, nil
	}
	s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value under key. A zero ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateSite drops every cached view for site.
func (s *CacheService) InvalidateSite(ctx context.Context, site string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := fmt.Sprintf("%s:*:%s:*", cacheKeyPrefix, site)
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("site", site), zap.Error(err))
		return err
	}
	return nil
}
