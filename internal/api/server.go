package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/analytics"
	"github.com/targetrank-server/internal/batch"
	"github.com/targetrank-server/internal/domain"
	"github.com/targetrank-server/internal/middleware"
	"github.com/targetrank-server/internal/scorestore"
	"github.com/targetrank-server/internal/scoring"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	router        *gin.Engine
	server        *http.Server
	log           *logrus.Logger

	scores    domain.ScoreStore
	runs      scorestore.Store
	analytics *analytics.Service
	batch     *batch.Runner
	progress  *ProgressHub
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	logger *logrus.Logger,
	evidence domain.EvidenceSource,
	pipeline *scoring.Pipeline,
	scores domain.ScoreStore,
	runs scorestore.Store,
	analyticsService *analytics.Service,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst).Handler())

	progress := NewProgressHub(logger)
	pipeline.OnProgress(progress.Publish)

	server := &Server{
		configManager: configManager,
		router:        router,
		log:           logger,
		scores:        scores,
		runs:          runs,
		analytics:     analyticsService,
		batch:         batch.NewRunner(logger, evidence, pipeline, scores, runs, analyticsService, cfg.Scoring.BatchTimeout),
		progress:      progress,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the configured routes for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// Batch progress stream
	s.router.GET("/ws/progress", s.handleProgressStream)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/genes/:symbol/score", s.handleScoreGene)
		v1.GET("/genes/:symbol/scores", s.handleGetGeneScores)
		v1.GET("/genes/:symbol/profile", s.handleGetGeneProfile)
		v1.POST("/panel/compare", s.handleComparePanel)
		v1.GET("/use-cases/:use_case/top", s.handleTopGenes)

		v1.POST("/batch/runs", s.handleStartBatch)
		v1.GET("/batch/runs", s.handleListRuns)
		v1.GET("/batch/runs/:run_id", s.handleGetRun)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   domain.ScoringVersion,
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
