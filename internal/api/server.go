// Package api exposes the reconciliation session over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config  Config
	router  *gin.Engine
	logger  *slog.Logger
	session *service.Service
}

// NewServer creates the API server around one reconciliation session.
func NewServer(cfg Config, session *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		config:  cfg,
		router:  router,
		logger:  logger,
		session: session,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	api := s.router.Group("/api")
	{
		api.POST("/import", s.importFiles)
		api.POST("/ledger", s.importLedger)
		api.POST("/accounts", s.importAccounts)
		api.GET("/accounts", s.listAccounts)

		api.GET("/rules", s.listRules)
		api.POST("/rules", s.addRule)

		api.GET("/transactions", s.listTransactions)
		api.PUT("/transactions/:id/account", s.correctAccount)

		api.POST("/reconcile", s.reconcile)
		api.GET("/report", s.getReport)
		api.GET("/summary", s.getSummary)

		api.GET("/export/csv", s.exportCSV)
		api.GET("/export/archive", s.exportArchive)
		api.POST("/import/archive", s.importArchive)

		api.POST("/samples", s.loadSamples)
		api.POST("/reset", s.reset)
		api.PUT("/metadata", s.setMetadata)
	}
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting API server", "addr", addr)
	return s.router.Run(addr)
}

// Router returns the gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
