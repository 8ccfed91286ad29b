package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds environment-based settings
type Config struct {
	Environment    string
	ServerAddress  string
	DatabaseURL    string
	MigrationsPath string
	// SQLitePath backs the store when DatabaseURL is empty.
	SQLitePath string
	JWTSecret      string
	LogLevel       zerolog.Level

	// Location is where schedule rules are evaluated.
	Location *time.Location

	RedisAddress  string
	RedisUsername string
	RedisPassword string
	CacheTTL      time.Duration

	MQTTBrokerURL   string
	MQTTTopicPrefix string

	UploadDir       string
	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string

	// FallbackVideoDuration is used when ffprobe cannot read an upload.
	FallbackVideoDuration int
}

// IsDevelopment is true only when APP_ENV=development; anything else,
// including an unset APP_ENV, runs with production logging and gin release mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getenv("APP_ENV", "production"),
		ServerAddress:   getenv("SERVER_ADDRESS", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MigrationsPath:  getenv("MIGRATIONS_PATH", "./migrations"),
		SQLitePath:      getenv("SQLITE_PATH", ":memory:"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisUsername:   os.Getenv("REDIS_USERNAME"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTTopicPrefix: getenv("MQTT_TOPIC_PREFIX", "signance/events"),
		UploadDir:       getenv("UPLOAD_DIR", "./uploads"),
		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getenv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	tz := getenv("SCHEDULE_TIMEZONE", "Local")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_TIMEZONE %q: %w", tz, err)
	}

	cfg.CacheTTL, err = time.ParseDuration(getenv("CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}

	cfg.FallbackVideoDuration, err = strconv.Atoi(getenv("FALLBACK_VIDEO_DURATION", "30"))
	if err != nil || cfg.FallbackVideoDuration < 1 {
		return nil, fmt.Errorf("FALLBACK_VIDEO_DURATION must be a positive integer")
	}

	if cfg.UseSpaces && (cfg.SpacesBucket == "" || cfg.SpacesEndpoint == "") {
		return nil, fmt.Errorf("USE_SPACES requires SPACES_ENDPOINT and SPACES_BUCKET")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
