// Package cli implements groupcalctl, the operator command line for a group calendar
// installation.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/groupcal-api/internal/app"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/migrations"
	"github.com/noah-isme/groupcal-api/pkg/config"
	"github.com/noah-isme/groupcal-api/pkg/database"
	"github.com/noah-isme/groupcal-api/pkg/logger"
)

// Version is stamped at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

type eventCreator interface {
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.EventRequest, viewer *time.Location) (*models.Event, error)
}

type categoryCreator interface {
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CategoryRequest) (*models.Category, error)
}

type settingsUpdater interface {
	Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingsRequest) (*models.AppSettings, error)
}

type inviteCreator interface {
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CreateInviteRequest) (*models.InviteCode, error)
}

type feedReader interface {
	Feed(ctx context.Context, site string, q dto.FeedQuery) (*dto.FeedResponse, error)
}

// Services is what the commands need from an installation.
type Services struct {
	Migrate    func(ctx context.Context) ([]string, error)
	Events     eventCreator
	Categories categoryCreator
	Settings   settingsUpdater
	Invites    inviteCreator
	Feed       feedReader

	DefaultSite string
	DefaultTZ   string
}

// Loader opens the installation. The returned func releases it.
type Loader func(ctx context.Context, verbose bool) (*Services, func(), error)

// NewRootCommand builds the groupcalctl command tree on top of load.
func NewRootCommand(load Loader) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "groupcalctl",
		Short:         "Operate a group calendar installation",
		Long:          "groupcalctl applies migrations, seeds sites and manages invites and settings\nusing the same configuration as the API server.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	open := func(cmd *cobra.Command) (*Services, func(), error) {
		return load(cmd.Context(), verbose)
	}

	root.AddCommand(
		newMigrateCommand(open),
		newSeedCommand(open),
		newInviteCommand(open),
		newSettingsCommand(open),
		newUpcomingCommand(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*Services, func(), error)

// operator is the actor recorded in the activity log for CLI mutations.
func operator(site string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "groupcalctl", FullName: "groupcalctl", Role: models.RoleAdmin, Site: site}
}

// ContainerLoader opens the installation described by the environment.
func ContainerLoader(ctx context.Context, verbose bool) (*Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.Maintenance.Enabled = false
	cfg.Log.Format = "console"
	if verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := app.New(cfg, logr)
	if err != nil {
		return nil, nil, err
	}
	workerCtx, cancel := context.WithCancel(ctx)
	if err := c.Start(workerCtx); err != nil {
		cancel()
		c.Close()
		return nil, nil, err
	}

	svc := &Services{
		Migrate: func(ctx context.Context) ([]string, error) {
			return database.Migrate(ctx, c.DB, migrations.Files)
		},
		Events:      c.Events,
		Categories:  c.Categories,
		Settings:    c.Settings,
		Invites:     c.Invites,
		Feed:        c.Feed,
		DefaultSite: cfg.Calendar.DefaultSite,
		DefaultTZ:   cfg.Calendar.DefaultTimeZone,
	}
	release := func() {
		c.Close()
		cancel()
		_ = logr.Sync()
	}
	return svc, release, nil
}
