package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"quantcv/internal/config"
	"quantcv/internal/monitor"
)

// Server represents the backtest API server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	log        *logrus.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, log *logrus.Logger, metrics *monitor.Metrics) *Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	handler := NewBacktestHandler(&cfg.Backtest, &cfg.CrossValidation, log, metrics)

	v1 := router.Group("/api/v1")
	v1.GET("/health", handler.Health)
	v1.POST("/backtest/run", RateLimit(cfg.Server.RequestsPerSec, cfg.Server.Burst), handler.Run)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		config: cfg,
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute, // long runs stream back one JSON body
		},
	}
}

// Start begins serving. Blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting API server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
