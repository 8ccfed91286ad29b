package main

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/business"
	"github.com/Nixie-Tech-LLC/signance/internal/config"
	"github.com/Nixie-Tech-LLC/signance/internal/db"
	adminapi "github.com/Nixie-Tech-LLC/signance/internal/http/api/admin/endpoints"
	playerapi "github.com/Nixie-Tech-LLC/signance/internal/http/api/player/endpoints"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
	"github.com/Nixie-Tech-LLC/signance/internal/playlist"
	"github.com/Nixie-Tech-LLC/signance/internal/probe"
	cache "github.com/Nixie-Tech-LLC/signance/internal/redis"
	"github.com/Nixie-Tech-LLC/signance/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	store := openStore(cfg)
	files := InitStorage(cfg)
	catalog := media.NewCatalog(store)
	composer := playlist.NewComposer(store, catalog)
	schedules := schedule.NewService(store, log.Logger)
	resolver := schedule.NewResolver(store, catalog, composer, cfg.Location, log.Logger)

	hub := notify.NewHub(log.Logger)
	sinks := notify.Fanout{hub}

	var playlistCache playerapi.PlaylistCache
	if cfg.RedisAddress != "" {
		rdb := cache.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddress).Msg("redis unreachable, playlist cache disabled")
		} else {
			pc := cache.NewPlaylistCache(rdb, cfg.CacheTTL)
			playlistCache = pc
			sinks = append(sinks, notify.NewCacheSink(pc, log.Logger))
			log.Info().Str("addr", cfg.RedisAddress).Dur("ttl", cfg.CacheTTL).Msg("playlist cache enabled")
		}
		defer rdb.Close()
	}

	if cfg.MQTTBrokerURL != "" {
		client, err := notify.ConnectMQTT(cfg.MQTTBrokerURL, "signance-"+uuid.NewString()[:8], log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("mqtt disabled")
		} else {
			sinks = append(sinks, notify.NewMQTTSink(client, cfg.MQTTTopicPrefix, log.Logger))
			defer client.Disconnect(250)
		}
	}

	notifier := notify.NewAsync(sinks, 256, log.Logger)

	profile := business.NewService(store, files)
	deps := adminapi.Deps{
		Catalog:               catalog,
		Composer:              composer,
		Schedules:             schedules,
		Business:              profile,
		Files:                 files,
		Prober:                initProber(cfg),
		Notifier:              notifier,
		FallbackVideoDuration: cfg.FallbackVideoDuration,
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	RegisterRoutes(r, cfg, deps, playerapi.PlayerModule(playerapi.Deps{
		Resolver: resolver,
		Composer: composer,
		Catalog:  catalog,
		Business: profile,
		Cache:    playlistCache,
		Hub:      hub,
	}))

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Str("timezone", cfg.Location.String()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	notifier.Close()
	hub.Close()
}

// openStore uses postgres when DATABASE_URL is set and sqlite at
// SQLITE_PATH otherwise.
func openStore(cfg *config.Config) db.Store {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		if cfg.SQLitePath == ":memory:" {
			log.Warn().Msg("DATABASE_URL not set, using in-memory sqlite; data is lost on restart")
		}
		dbx, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite open")
		}
		return db.NewSQLiteStore(dbx)
	}
	if err := db.Init(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(ctx, db.DB, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	return db.NewStore(db.DB)
}

func initProber(cfg *config.Config) probe.DurationProber {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		log.Warn().Int("fallback_seconds", cfg.FallbackVideoDuration).Msg("ffprobe not found, video uploads get the fallback duration")
		return probe.Fixed(cfg.FallbackVideoDuration)
	}
	return probe.NewFFProbe(30 * time.Second)
}
