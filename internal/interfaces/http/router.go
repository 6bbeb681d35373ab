// Package http assembles the gin engine and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlaslab/studyatlas/internal/application/retrieval"
	"github.com/atlaslab/studyatlas/internal/config"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/prometheus"
	"github.com/atlaslab/studyatlas/internal/interfaces/http/handlers"
	"github.com/atlaslab/studyatlas/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Service   *retrieval.Service
	Logger    logging.Logger
	Collector *prometheus.Collector
	Metrics   *prometheus.AppMetrics
}

// NewRouter builds the gin engine with the full middleware chain and all
// routes. Metrics and the corpus debug endpoint mount conditionally.
func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())
	if deps.Metrics != nil {
		r.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	r.GET("/", handlers.Root)

	health := handlers.NewHealthHandler(deps.Service)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	if cfg.Metrics.Enabled && deps.Collector != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(
			promhttp.HandlerFor(deps.Collector.Registry(), promhttp.HandlerOpts{})))
	}

	if cfg.Debug.CorpusEndpoint {
		r.GET("/debug/corpus", handlers.NewDebugHandler(deps.Service).Corpus)
	}

	api := r.Group("/api/v1")
	handlers.NewStudyHandler(deps.Service, deps.Logger).Register(api)

	return r
}
