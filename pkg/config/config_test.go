package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 30, cfg.Calendar.LookaheadDays)
	assert.Equal(t, 5, cfg.Calendar.UpcomingLimit)
	assert.Equal(t, "UTC", cfg.Calendar.DefaultTimeZone)
	assert.Equal(t, 10*time.Minute, cfg.Calendar.MonthCacheTTL)
	assert.Equal(t, 6, cfg.Invites.CodeLength)
	assert.Equal(t, "*/15 * * * *", cfg.Maintenance.InviteSweepCron)
	assert.Equal(t, "dev_secret", cfg.Feed.LinkSecret)
	assert.Equal(t, 180*24*time.Hour, cfg.Feed.LinkTTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CALENDAR_LOOKAHEAD_DAYS", "14")
	t.Setenv("JWT_AUDIENCE", "groupcal, web ,")
	t.Setenv("FEED_HEARTBEAT", "bogus")
	t.Setenv("PUBLIC_URL", "https://cal.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Calendar.LookaheadDays)
	assert.Equal(t, []string{"groupcal", "web"}, cfg.JWT.Audience)
	assert.Equal(t, 25*time.Second, cfg.Feed.Heartbeat)
	assert.Equal(t, "https://cal.example.com", cfg.PublicURL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a ,, b"))
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
