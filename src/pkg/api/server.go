// Package api serves the mind map REST API: bearer authentication plus
// owner-scoped document CRUD.
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/session"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	data     *data.DataManager
	sessions *session.SessionManager
	cfg      *model.Config
	logger   *log.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	limiter  *ipRateLimiter
}

// NewServer wires handlers to the data and session layers.
func NewServer(dm *data.DataManager, sm *session.SessionManager, cfg *model.Config, logger *log.Logger) (*Server, error) {
	if dm == nil {
		return nil, fmt.Errorf("dataManager not initialized")
	}
	if sm == nil {
		return nil, fmt.Errorf("sessionManager not initialized")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		data:     dm,
		sessions: sm,
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  NewMetrics(registry, sm),
		limiter:  newIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, 10*time.Minute),
	}
	s.metrics.SubscribeEvents(dm.EventManager)
	return s, nil
}

// Router builds the gin engine with every route and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.logger, s.metrics))
	router.Use(CORS(s.cfg.AllowedOrigins))
	SetupRoutes(router, s)
	return router
}
