package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/groupcal-api/api/swagger"
	"github.com/noah-isme/groupcal-api/internal/app"
	"github.com/noah-isme/groupcal-api/internal/handler"
	"github.com/noah-isme/groupcal-api/internal/middleware"
	"github.com/noah-isme/groupcal-api/pkg/config"
	"github.com/noah-isme/groupcal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/groupcal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/groupcal-api/pkg/middleware/requestid"
)

// @title Group Calendar API
// @version 1.0.0
// @description Shared group calendar with recurring events, local and server timelines, and a live feed.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := app.New(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("bootstrap failed", "error", err)
	}
	defer container.Close()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := container.Start(sigCtx); err != nil {
		logr.Sugar().Fatalw("background workers failed", "error", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(container.Metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(container.Metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := container.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), container.Auth, handler.Handlers{
		Events:     handler.NewEventHandler(container.Events, cfg.Calendar.DefaultTimeZone),
		Feed:       handler.NewFeedHandler(container.Feed, container.Metrics, cfg.Feed.Heartbeat),
		Categories: handler.NewCategoryHandler(container.Categories),
		Templates:  handler.NewTemplateHandler(container.Templates),
		Invites:    handler.NewInviteHandler(container.Invites),
		Users:      handler.NewUserHandler(container.Users),
		Settings:   handler.NewSettingsHandler(container.Settings),
		Activity:   handler.NewActivityHandler(container.Activity),
		Exports:    handler.NewExportHandler(container.Exports),
		Metrics:    metricsHandler,
	})

	// WriteTimeout stays unset: feed streams are long-lived.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return sigCtx },
	}

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Sugar().Warnw("server shutdown failed", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "redis", container.Redis != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
