package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	// PublicURL is the externally reachable origin used in subscription links.
	PublicURL string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Calendar    CalendarConfig
	Feed        FeedConfig
	Activity    ActivityConfig
	Maintenance MaintenanceConfig
	Invites     InviteConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how access tokens minted by the identity service are verified.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig tunes the occurrence feed and month views.
type CalendarConfig struct {
	LookaheadDays   int
	UpcomingLimit   int
	DefaultTimeZone string
	DefaultSite     string
	MonthCacheTTL   time.Duration
	CacheEnabled    bool
}

// FeedConfig controls the live feed stream.
type FeedConfig struct {
	Heartbeat  time.Duration
	Channel    string
	LinkSecret string
	LinkTTL    time.Duration
}

// ActivityConfig governs asynchronous activity log writes.
type ActivityConfig struct {
	Workers       int
	Retries       int
	RetentionDays int
}

// MaintenanceConfig holds cron specs for periodic housekeeping.
type MaintenanceConfig struct {
	Enabled           bool
	InviteSweepCron   string
	ActivityPruneCron string
}

// InviteConfig shapes generated invite codes.
type InviteConfig struct {
	CodeLength int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicURL = strings.TrimRight(v.GetString("PUBLIC_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		LookaheadDays:   positiveOr(v.GetInt("CALENDAR_LOOKAHEAD_DAYS"), 30),
		UpcomingLimit:   positiveOr(v.GetInt("CALENDAR_UPCOMING_LIMIT"), 5),
		DefaultTimeZone: v.GetString("CALENDAR_DEFAULT_TZ"),
		DefaultSite:     v.GetString("CALENDAR_DEFAULT_SITE"),
		MonthCacheTTL:   parseDuration(v.GetString("CALENDAR_MONTH_CACHE_TTL"), 10*time.Minute),
		CacheEnabled:    v.GetBool("CALENDAR_CACHE_ENABLED"),
	}

	cfg.Feed = FeedConfig{
		Heartbeat:  parseDuration(v.GetString("FEED_HEARTBEAT"), 25*time.Second),
		Channel:    v.GetString("FEED_CHANNEL_PREFIX"),
		LinkSecret: v.GetString("FEED_LINK_SECRET"),
		LinkTTL:    parseDuration(v.GetString("FEED_LINK_TTL"), 180*24*time.Hour),
	}
	if cfg.Feed.LinkSecret == "" {
		cfg.Feed.LinkSecret = cfg.JWT.Secret
	}

	cfg.Activity = ActivityConfig{
		Workers:       positiveOr(v.GetInt("ACTIVITY_WORKERS"), 1),
		Retries:       positiveOr(v.GetInt("ACTIVITY_RETRIES"), 3),
		RetentionDays: positiveOr(v.GetInt("ACTIVITY_RETENTION_DAYS"), 90),
	}

	cfg.Maintenance = MaintenanceConfig{
		Enabled:           v.GetBool("ENABLE_MAINTENANCE"),
		InviteSweepCron:   v.GetString("MAINTENANCE_INVITE_SWEEP_CRON"),
		ActivityPruneCron: v.GetString("MAINTENANCE_ACTIVITY_PRUNE_CRON"),
	}

	cfg.Invites = InviteConfig{
		CodeLength: positiveOr(v.GetInt("INVITE_CODE_LENGTH"), 6),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "groupcal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CALENDAR_LOOKAHEAD_DAYS", 30)
	v.SetDefault("CALENDAR_UPCOMING_LIMIT", 5)
	v.SetDefault("CALENDAR_DEFAULT_TZ", "UTC")
	v.SetDefault("CALENDAR_DEFAULT_SITE", "Calendar")
	v.SetDefault("CALENDAR_MONTH_CACHE_TTL", "10m")
	v.SetDefault("CALENDAR_CACHE_ENABLED", true)

	v.SetDefault("FEED_HEARTBEAT", "25s")
	v.SetDefault("FEED_CHANNEL_PREFIX", "groupcal:site")
	v.SetDefault("FEED_LINK_SECRET", "")
	v.SetDefault("FEED_LINK_TTL", "4320h")

	v.SetDefault("ACTIVITY_WORKERS", 1)
	v.SetDefault("ACTIVITY_RETRIES", 3)
	v.SetDefault("ACTIVITY_RETENTION_DAYS", 90)

	v.SetDefault("ENABLE_MAINTENANCE", true)
	v.SetDefault("MAINTENANCE_INVITE_SWEEP_CRON", "*/15 * * * *")
	v.SetDefault("MAINTENANCE_ACTIVITY_PRUNE_CRON", "30 3 * * *")

	v.SetDefault("INVITE_CODE_LENGTH", 6)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
