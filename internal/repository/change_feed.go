package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// RedisChangeFeed versions site collections and fans change notices out over Redis pub/sub
// so every API replica can push fresh snapshots to its live subscribers.
type RedisChangeFeed struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisChangeFeed builds a change feed on top of client. Keys and channels start with prefix.
func NewRedisChangeFeed(client *redis.Client, prefix string, logger *zap.Logger) *RedisChangeFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "groupcal:site"
	}
	return &RedisChangeFeed{client: client, prefix: prefix, logger: logger}
}

func (f *RedisChangeFeed) versionKey(site string) string {
	return fmt.Sprintf("%s:%s:version", f.prefix, site)
}

func (f *RedisChangeFeed) channel(site string) string {
	return fmt.Sprintf("%s:%s:changes", f.prefix, site)
}

// Version returns the current change counter of a site.
func (f *RedisChangeFeed) Version(ctx context.Context, site string) (int64, error) {
	v, err := f.client.Get(ctx, f.versionKey(site)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get version %s: %w", site, err)
	}
	return v, nil
}

// Bump increments the site version and publishes the change.
func (f *RedisChangeFeed) Bump(ctx context.Context, site string, collection models.Collection) (models.ChangeNotice, error) {
	v, err := f.client.Incr(ctx, f.versionKey(site)).Result()
	if err != nil {
		return models.ChangeNotice{}, fmt.Errorf("redis incr version %s: %w", site, err)
	}
	notice := models.ChangeNotice{Site: site, Collection: collection, Version: v, ChangedAt: time.Now().UTC()}
	payload, err := json.Marshal(notice)
	if err != nil {
		return notice, fmt.Errorf("marshal change notice: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel(site), payload).Err(); err != nil {
		return notice, fmt.Errorf("redis publish %s: %w", site, err)
	}
	return notice, nil
}

// Subscribe streams change notices of a site until ctx is cancelled.
func (f *RedisChangeFeed) Subscribe(ctx context.Context, site string) (<-chan models.ChangeNotice, error) {
	sub := f.client.Subscribe(ctx, f.channel(site))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", site, err)
	}

	out := make(chan models.ChangeNotice, 8)
	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var notice models.ChangeNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					f.logger.Warn("discarding malformed change notice", zap.String("site", site), zap.Error(err))
					continue
				}
				select {
				case out <- notice:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// MemoryChangeFeed is the single-process change feed used when Redis is disabled.
type MemoryChangeFeed struct {
	mu       sync.Mutex
	versions map[string]int64
	subs     map[string]map[chan models.ChangeNotice]struct{}
}

// NewMemoryChangeFeed creates an empty in-process feed.
func NewMemoryChangeFeed() *MemoryChangeFeed {
	return &MemoryChangeFeed{
		versions: make(map[string]int64),
		subs:     make(map[string]map[chan models.ChangeNotice]struct{}),
	}
}

// Version returns the current change counter of a site.
func (f *MemoryChangeFeed) Version(_ context.Context, site string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[site], nil
}

// Bump increments the site version and notifies subscribers. Subscribers with a full buffer miss the notice.
func (f *MemoryChangeFeed) Bump(_ context.Context, site string, collection models.Collection) (models.ChangeNotice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[site]++
	notice := models.ChangeNotice{Site: site, Collection: collection, Version: f.versions[site], ChangedAt: time.Now().UTC()}
	for ch := range f.subs[site] {
		select {
		case ch <- notice:
		default:
		}
	}
	return notice, nil
}

// Subscribe streams change notices of a site until ctx is cancelled.
func (f *MemoryChangeFeed) Subscribe(ctx context.Context, site string) (<-chan models.ChangeNotice, error) {
	ch := make(chan models.ChangeNotice, 8)
	f.mu.Lock()
	if f.subs[site] == nil {
		f.subs[site] = make(map[chan models.ChangeNotice]struct{})
	}
	f.subs[site][ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs[site], ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch, nil
}
