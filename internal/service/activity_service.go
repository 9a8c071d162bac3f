package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
	"github.com/noah-isme/groupcal-api/pkg/jobs"
)

const activityJobType = "activity.record"

type activityRepository interface {
	Insert(ctx context.Context, entry *models.ActivityEntry) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityEntry, int, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// activityRecorder is satisfied by ActivityService.
type activityRecorder interface {
	Record(ctx context.Context, actor *models.JWTClaims, action models.ActivityType, details interface{})
}

// ActivityService writes the site activity log off the request path.
type ActivityService struct {
	repo    activityRepository
	queue   activityEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewActivityService constructs an ActivityService. Attach a queue with UseQueue; without one
// entries are written inline.
func NewActivityService(repo activityRepository, metrics *MetricsService, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// UseQueue routes Record through q.
func (s *ActivityService) UseQueue(q activityEnqueuer) {
	s.queue = q
}

// Record stores an entry for a mutation performed by actor. It never fails the caller.
func (s *ActivityService) Record(ctx context.Context, actor *models.JWTClaims, action models.ActivityType, details interface{}) {
	entry := models.ActivityEntry{
		ID:         calendar.NewID(),
		Timestamp:  s.now().UTC(),
		ActionType: action,
		Details:    json.RawMessage("{}"),
	}
	if actor != nil {
		entry.UserID = actor.UserID
		entry.UserName = actor.FullName
		entry.Site = actor.Site
		entry.Role = actor.Role
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("activity details not serialisable", zap.String("action", string(action)), zap.Error(err))
		} else {
			entry.Details = raw
		}
	}

	if s.queue == nil {
		if err := s.repo.Insert(ctx, &entry); err != nil {
			s.metrics.RecordActivityDropped()
			s.logger.Warn("activity insert failed", zap.String("action", string(action)), zap.Error(err))
		}
		return
	}

	job := jobs.Job{ID: entry.ID, Type: activityJobType, Payload: entry}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordActivityDropped()
		s.logger.Warn("activity enqueue failed", zap.String("action", string(action)), zap.Error(err))
	}
}

// HandleJob is the queue handler persisting queued entries.
func (s *ActivityService) HandleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ActivityEntry)
	if !ok {
		s.logger.Error("unexpected activity payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Insert(ctx, &entry)
}

// List returns the log of a site, newest first.
func (s *ActivityService) List(ctx context.Context, site string, page, pageSize int) ([]models.ActivityEntry, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	entries, total, err := s.repo.List(ctx, models.ActivityFilter{Site: site, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list activity")
	}
	return entries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Prune deletes entries older than retention.
func (s *ActivityService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	n, err := s.repo.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to prune activity")
	}
	return n, nil
}
