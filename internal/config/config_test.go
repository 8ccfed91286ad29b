package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SCHEDULE_TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("USE_SPACES", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("SQLITE_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "./migrations", cfg.MigrationsPath)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, ":memory:", cfg.SQLitePath)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.IsDevelopment())
}

func TestIsDevelopmentOnlyWhenAsked(t *testing.T) {
	for env, want := range map[string]bool{
		"development": true,
		"production":  false,
		"staging":     false,
		"":            false,
	} {
		cfg := Config{Environment: env}
		assert.Equal(t, want, cfg.IsDevelopment(), "APP_ENV=%q", env)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SCHEDULE_TIMEZONE", "UTC")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("FALLBACK_VIDEO_DURATION", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 45, cfg.FallbackVideoDuration)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"timezone":  {"SCHEDULE_TIMEZONE", "Mars/Olympus"},
		"log level": {"LOG_LEVEL", "loud"},
		"cache ttl": {"CACHE_TTL", "soon"},
		"fallback":  {"FALLBACK_VIDEO_DURATION", "0"},
		"spaces":    {"USE_SPACES", "true"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SCHEDULE_TIMEZONE", "UTC")
			t.Setenv("SPACES_BUCKET", "")
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
