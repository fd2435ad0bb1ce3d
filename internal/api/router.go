// Package api wires the HTTP surface: routes, middleware and handlers.
package api

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/tubefetch/internal/api/handlers"
	"github.com/your-org/tubefetch/internal/api/ws"
	"github.com/your-org/tubefetch/internal/auth"
)

type RouterConfig struct {
	APIKey      string
	CORSOrigins []string
	RateLimit   float64
	RateBurst   int

	Videos handlers.VideoService
	// Counts is nil when download counters are disabled.
	Counts handlers.CountReader
	Probes map[string]handlers.Probe
	Hub    *ws.Hub
	Logger *slog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Probes)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Videos
	videoH := handlers.NewVideoHandler(cfg.Videos, log)
	v1.POST("/info", videoH.Info)
	v1.POST("/download", videoH.Download)

	// Stats
	statsH := handlers.NewStatsHandler(cfg.Counts)
	v1.GET("/stats/:video_id", statsH.Get)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowOrigins = origins
	cc.AddAllowHeaders("Authorization", "X-API-Key")
	cc.ExposeHeaders = []string{"Content-Disposition", "X-Job-ID"}
	return cors.New(cc)
}
