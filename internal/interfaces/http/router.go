// Package http assembles the gin router and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/internal/interfaces/http/handlers"
	"github.com/promptdeck/promptdeck/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Enrichment *handlers.EnrichmentHandler
	Health     *handlers.HealthHandler
	Log        logging.Logger
}

// NewRouter builds the full route tree:
//
//	/healthz, /readyz                  — probes, no tenant required
//	/metrics                           — prometheus scrape endpoint
//	/api/v1/enrichment/...             — tenant-scoped enrichment API
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Log),
		middleware.RequestLogger(deps.Log),
	)

	deps.Health.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.TenantRequired())

	deps.Enrichment.Register(api.Group("/enrichment"))

	return router
}
