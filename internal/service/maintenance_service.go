package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/models"
)

type inviteSweeper interface {
	MarkExhaustedUsed(ctx context.Context) (int64, error)
}

type activityPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// MaintenanceConfig holds the cron specs of the housekeeping jobs. An empty spec disables a job.
type MaintenanceConfig struct {
	InviteSweepCron   string
	ActivityPruneCron string
	Retention         time.Duration
}

// MaintenanceService runs periodic housekeeping: closing exhausted invite codes and pruning
// the activity log.
type MaintenanceService struct {
	invites  inviteSweeper
	activity activityPruner
	logger   *zap.Logger
	cfg      MaintenanceConfig
	cron     *cron.Cron
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(invites inviteSweeper, activity activityPruner, logger *zap.Logger, cfg MaintenanceConfig) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 90 * 24 * time.Hour
	}
	return &MaintenanceService{invites: invites, activity: activity, logger: logger, cfg: cfg}
}

// Start schedules the jobs and returns once the scheduler runs. Jobs stop when ctx is done.
func (s *MaintenanceService) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})))

	if s.cfg.InviteSweepCron != "" {
		if _, err := c.AddFunc(s.cfg.InviteSweepCron, func() { s.SweepInvites(ctx) }); err != nil {
			return fmt.Errorf("schedule invite sweep: %w", err)
		}
	}
	if s.cfg.ActivityPruneCron != "" {
		if _, err := c.AddFunc(s.cfg.ActivityPruneCron, func() { s.PruneActivity(ctx) }); err != nil {
			return fmt.Errorf("schedule activity prune: %w", err)
		}
	}

	s.cron = c
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *MaintenanceService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// SweepInvites marks active codes without remaining uses as used.
func (s *MaintenanceService) SweepInvites(ctx context.Context) int64 {
	n, err := s.invites.MarkExhaustedUsed(ctx)
	if err != nil {
		s.logger.Sugar().Warnw("invite sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Sugar().Infow("invite sweep", "action", models.ActivityMaintenanceSweep, "closed", n)
	}
	return n
}

// PruneActivity deletes activity entries older than the retention window.
func (s *MaintenanceService) PruneActivity(ctx context.Context) int64 {
	n, err := s.activity.Prune(ctx, s.cfg.Retention)
	if err != nil {
		s.logger.Sugar().Warnw("activity prune failed", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Sugar().Infow("activity prune", "action", models.ActivityMaintenanceSweep, "deleted", n)
	}
	return n
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
