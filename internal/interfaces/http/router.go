// Package http wires the gin ops surface: liveness, snapshot reads, and
// out-of-band refresh triggers.
package http

import (
	"github.com/gin-gonic/gin"

	"stagewatch/internal/application/ingest"
	"stagewatch/internal/interfaces/http/handlers"
	"stagewatch/internal/interfaces/http/middleware"
	"stagewatch/internal/shared/logger"
)

// Router holds the engine and the handlers behind the ops endpoints.
type Router struct {
	engine          *gin.Engine
	systemHandler   *handlers.SystemHandler
	snapshotHandler *handlers.SnapshotHandler
	refreshHandler  *handlers.RefreshHandler
	logger          logger.Interface
}

func NewRouter(
	reader *ingest.SnapshotReader,
	refresh *ingest.RefreshService,
	log logger.Interface,
) *Router {
	return &Router{
		engine:          gin.New(),
		systemHandler:   handlers.NewSystemHandler(),
		snapshotHandler: handlers.NewSnapshotHandler(reader, log),
		refreshHandler:  handlers.NewRefreshHandler(refresh, log),
		logger:          log,
	}
}

// SetupRoutes configures middleware and all HTTP routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())

	r.engine.GET("/health", r.systemHandler.HealthCheck)
	r.engine.GET("/plays/:id/snapshot", r.snapshotHandler.GetSnapshot)
	r.engine.POST("/refresh", r.refreshHandler.TriggerRefresh)
}

// GetEngine returns the gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
