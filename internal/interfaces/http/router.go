// Package http assembles the gin route tree and the API server around it.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/prometheus"
	"github.com/structflo/structflo-ner/internal/interfaces/http/handlers"
	"github.com/structflo/structflo-ner/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// complete route tree.
type RouterConfig struct {
	ExtractHandler   *handlers.ExtractHandler
	GazetteerHandler *handlers.GazetteerHandler
	HealthHandler    *handlers.HealthHandler

	CORS middleware.CORSConfig

	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
	// MetricsCollector serves GET /metrics when non-nil.
	MetricsCollector prometheus.MetricsCollector

	// Mode is the gin mode: debug, release, or test.
	Mode string
}

// NewRouter constructs the route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogger(log, cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.ExtractHandler != nil {
			api.POST("/extract", cfg.ExtractHandler.Extract)
			api.POST("/extract/batch", cfg.ExtractHandler.ExtractBatch)
		}
		if cfg.GazetteerHandler != nil {
			api.GET("/gazetteers", cfg.GazetteerHandler.Summary)
			api.POST("/gazetteers/reload", cfg.GazetteerHandler.Reload)
		}
	}

	return r
}
