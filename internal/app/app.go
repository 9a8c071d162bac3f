// Package app wires repositories and services into the graph shared by the API server
// and the admin CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/internal/repository"
	"github.com/noah-isme/groupcal-api/internal/service"
	"github.com/noah-isme/groupcal-api/pkg/cache"
	"github.com/noah-isme/groupcal-api/pkg/config"
	"github.com/noah-isme/groupcal-api/pkg/database"
	"github.com/noah-isme/groupcal-api/pkg/export"
	"github.com/noah-isme/groupcal-api/pkg/feedtoken"
	"github.com/noah-isme/groupcal-api/pkg/jobs"
)

const icsProductID = "-//groupcal//calendar feed//EN"

type changeFeed interface {
	Version(ctx context.Context, site string) (int64, error)
	Bump(ctx context.Context, site string, collection models.Collection) (models.ChangeNotice, error)
	Subscribe(ctx context.Context, site string) (<-chan models.ChangeNotice, error)
}

// Container holds the long-lived dependencies of the process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics     *service.MetricsService
	Auth        *service.AuthService
	Sites       *service.SiteService
	Events      *service.EventService
	Feed        *service.FeedService
	Categories  *service.CategoryService
	Templates   *service.TemplateService
	Settings    *service.SettingsService
	Activity    *service.ActivityService
	Invites     *service.InviteService
	Users       *service.UserService
	Exports     *service.ExportService
	Maintenance *service.MaintenanceService

	ActivityQueue *jobs.Queue
}

// New connects to Postgres and, when enabled, Redis, then builds every service. A Redis
// outage degrades to an in-process change feed and disables the month cache.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Sugar().Warnw("redis unavailable, using in-process change feed", "error", err)
		rdb = nil
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Redis: rdb}
	c.build()
	return c, nil
}

func (c *Container) build() {
	cfg, logger := c.Config, c.Logger
	validate := service.NewValidator()

	eventRepo := repository.NewEventRepository(c.DB)
	categoryRepo := repository.NewCategoryRepository(c.DB)
	templateRepo := repository.NewTemplateRepository(c.DB)
	settingsRepo := repository.NewSettingsRepository(c.DB)
	inviteRepo := repository.NewInviteRepository(c.DB)
	userRepo := repository.NewUserRepository(c.DB)
	activityRepo := repository.NewActivityRepository(c.DB)

	c.Metrics = service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(c.Redis, logger), c.Metrics,
		cfg.Calendar.MonthCacheTTL, logger, cfg.Calendar.CacheEnabled && c.Redis != nil)

	c.Activity = service.NewActivityService(activityRepo, c.Metrics, logger)
	c.ActivityQueue = jobs.NewQueue("activity", c.Activity.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Activity.Workers,
		MaxRetries: cfg.Activity.Retries,
		Logger:     logger,
	})
	c.Activity.UseQueue(c.ActivityQueue)

	c.Settings = service.NewSettingsService(settingsRepo, validate, logger)
	c.Sites = service.NewSiteService(eventRepo, categoryRepo, c.Settings, c.changeFeed(), cacheSvc, c.Metrics, logger)
	c.Settings.SetCollaborators(c.Sites, c.Activity)

	c.Events = service.NewEventService(eventRepo, c.Settings, validate, logger)
	c.Events.SetCollaborators(c.Sites, c.Activity)

	c.Categories = service.NewCategoryService(categoryRepo, validate, logger)
	c.Categories.SetCollaborators(c.Sites, c.Activity)

	c.Templates = service.NewTemplateService(templateRepo, eventRepo, categoryRepo, c.Settings, validate, logger, cfg.Calendar.DefaultTimeZone)
	c.Templates.SetCollaborators(c.Sites, c.Activity)

	c.Feed = service.NewFeedService(c.Sites, c.Settings, cacheSvc, c.Metrics, logger, service.FeedConfig{
		LookaheadDays:   cfg.Calendar.LookaheadDays,
		UpcomingLimit:   cfg.Calendar.UpcomingLimit,
		DefaultTimeZone: cfg.Calendar.DefaultTimeZone,
		MonthCacheTTL:   cfg.Calendar.MonthCacheTTL,
	})

	c.Users = service.NewUserService(userRepo, validate, logger)
	c.Users.SetActivity(c.Activity)

	c.Invites = service.NewInviteService(inviteRepo, userRepo, validate, logger, service.InviteConfig{
		CodeLength:    cfg.Invites.CodeLength,
		BootstrapSite: cfg.Calendar.DefaultSite,
	})
	c.Invites.SetActivity(c.Activity)

	c.Auth = service.NewAuthService(userRepo, logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	links := feedtoken.NewSigner(cfg.Feed.LinkSecret, cfg.Feed.LinkTTL)
	c.Exports = service.NewExportService(c.Sites, c.Feed, links,
		service.ExportConfig{PublicURL: cfg.PublicURL, APIPrefix: cfg.APIPrefix},
		validate, logger, export.NewCSVExporter(), export.NewPDFExporter(), export.NewICSExporter(icsProductID))
	c.Exports.SetDirectory(userRepo)

	c.Maintenance = service.NewMaintenanceService(inviteRepo, c.Activity, logger, service.MaintenanceConfig{
		InviteSweepCron:   cfg.Maintenance.InviteSweepCron,
		ActivityPruneCron: cfg.Maintenance.ActivityPruneCron,
		Retention:         time.Duration(cfg.Activity.RetentionDays) * 24 * time.Hour,
	})
}

func (c *Container) changeFeed() changeFeed {
	if c.Redis == nil {
		return repository.NewMemoryChangeFeed()
	}
	return repository.NewRedisChangeFeed(c.Redis, c.Config.Feed.Channel, c.Logger)
}

// Start launches the background workers. They stop when ctx is done or Close is called.
func (c *Container) Start(ctx context.Context) error {
	c.ActivityQueue.Start(ctx)
	if !c.Config.Maintenance.Enabled {
		return nil
	}
	return c.Maintenance.Start(ctx)
}

// Close drains the activity queue and releases connections.
func (c *Container) Close() {
	c.Maintenance.Stop()
	c.ActivityQueue.Stop()
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	_ = c.DB.Close()
}
