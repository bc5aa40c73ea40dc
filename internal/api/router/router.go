package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/api/handler"
	"github.com/ashtonliu88/SlugScheduler/internal/api/middleware"
	"github.com/ashtonliu88/SlugScheduler/pkg/jwt"
)

// Setup builds the gin engine. limiter may be nil, which turns rate
// limiting off.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimitBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))
	}

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// public
		v1.POST("/sessions", h.Session.CreateSession)
		v1.POST("/patterns", h.Pattern.BuildPatterns)
		v1.POST("/layout", h.Pattern.Layout)
		v1.POST("/placements/validate", h.Pattern.ValidatePlacement)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			plans := authorized.Group("/plans")
			{
				plans.POST("", h.Plan.CreatePlan)
				plans.GET("", h.Plan.ListPlans)
				plans.GET("/:id", h.Plan.GetPlan)
				plans.DELETE("/:id", h.Plan.DeletePlan)

				plans.POST("/:id/recommendations", h.Plan.AddRecommendations)
				plans.DELETE("/:id/recommendations/:course", h.Plan.DismissRecommendation)
				plans.POST("/:id/drop", h.Plan.Drop)
				plans.POST("/:id/schedule", h.Plan.Schedule)
				plans.DELETE("/:id/schedule/:course", h.Plan.Unschedule)
				plans.GET("/:id/calendar", h.Plan.Calendar)

				plans.GET("/:id/export.xlsx", h.Export.ExportXLSX)
				plans.GET("/:id/export.ics", h.Export.ExportICS)

				// sources call external services and are throttled
				sources := plans.Group("/:id/sources")
				sources.Use(middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window))
				{
					sources.POST("/chat", h.Source.Chat)
					sources.POST("/transcript", h.Source.Transcript)
					sources.POST("/catalog", h.Source.Catalog)
					sources.POST("/ics", h.Source.ICS)
				}
			}
		}
	}

	return r
}
