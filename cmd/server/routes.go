package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signance/internal/config"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	adminapi "github.com/Nixie-Tech-LLC/signance/internal/http/api/admin/endpoints"
	"github.com/Nixie-Tech-LLC/signance/internal/metrics"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps adminapi.Deps, player api.Module) {
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
	},
		adminapi.MediaModule(deps),
		adminapi.PlaylistModule(deps),
		adminapi.ScheduleModule(deps),
		adminapi.BusinessModule(deps),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/player",
	},
		player,
	)

	// Static content
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}
