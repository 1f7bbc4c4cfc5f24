package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("TOPICS_SEED_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.HouseAccount)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, cfg.Database.ConnectBackoff)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectMaxDelay)
	assert.Equal(t, int64(45204), cfg.Sampler.MinID)
	assert.Equal(t, int64(10554407), cfg.Sampler.MaxID)
	assert.Equal(t, 300, cfg.Sampler.Attempts)
	assert.Equal(t, int64(40), cfg.Sampler.Window)
	assert.Empty(t, cfg.Sampler.SeedFile)
	assert.Equal(t, time.Hour, cfg.Scheduler.DailyChallengeInterval)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("APP_UTC_OFFSET_HOURS", "2")
	t.Setenv("EVENT_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "wiki")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TOPICS_SEED_FILE", "/data/topics.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/data/topics.json", cfg.Sampler.SeedFile)
	assert.Equal(t, 2, cfg.App.UTCOffsetHours)
	assert.Equal(t, 3*time.Second, cfg.Server.EventTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres://wiki:secret@db:5432/wikichallenge?sslmode=disable", cfg.Database.URL)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Environment: EnvProduction, UTCOffsetHours: 20},
		Server:   ServerConfig{Port: 0, EventRateLimit: -1},
		Database: DatabaseConfig{MaxOpenConns: 50},
		Sampler:  SamplerConfig{MinID: 10, MaxID: 1},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"DATABASE_URL is required in production",
		"APP_UTC_OFFSET_HOURS",
		"APP_HOUSE_ACCOUNT",
		"SERVER_PORT",
		"EVENT_RATE_LIMIT",
		"SAMPLER_MIN_ID",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("ENABLE_LOGIN", "true")
	t.Setenv("ENABLE_SIGNIN", "1")
	t.Setenv("ENABLE_ACCOUNT", "nope")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureLogin))
	assert.True(t, ff.IsEnabled(FeatureSignin))
	assert.False(t, ff.IsEnabled(FeatureAccount))
	assert.False(t, ff.IsEnabled("unknown"))

	require.NoError(t, ff.SetEnabled(FeatureDailyChallenge, true))
	assert.ErrorIs(t, ff.SetEnabled("unknown", true), ErrFeatureNotFound)

	assert.Equal(t, map[string]bool{
		FeatureLogin:                     true,
		FeatureSignin:                    true,
		FeatureAccount:                   false,
		FeatureDailyChallenge:            true,
		FeatureDailyChallengeLeaderboard: false,
	}, ff.Snapshot())
}
