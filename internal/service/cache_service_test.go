package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestMonthCacheKey(t *testing.T) {
	key := MonthCacheKey("Calendar", 7, 2, 2024, 3, "server", "Europe/Berlin")
	assert.Equal(t, "groupcal:month:Calendar:v7.2:2024-03:server:Europe/Berlin", key)
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	var out map[string]int
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k", map[string]int{"a": 1}, 0))
	assert.Equal(t, time.Minute, repo.ttls["k"])

	hit, err = svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 1e-9)
}

func TestCacheServiceGetError(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, zap.NewNop(), true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateSite(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	calendarKey := MonthCacheKey("Calendar", 1, 0, 2024, 1, "local", "UTC")
	otherKey := MonthCacheKey("Raiders", 1, 0, 2024, 1, "local", "UTC")
	require.NoError(t, svc.Set(ctx, calendarKey, 1, 0))
	require.NoError(t, svc.Set(ctx, otherKey, 1, 0))

	require.NoError(t, svc.InvalidateSite(ctx, "Calendar"))
	assert.NotContains(t, repo.entries, calendarKey)
	assert.Contains(t, repo.entries, otherKey)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.entries)
	assert.False(t, svc.Enabled())
}
