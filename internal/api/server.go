package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/replypilot/internal/audit"
	"github.com/replypilot/internal/config"
	"github.com/replypilot/internal/state"
)

// ErrorResponse is a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server represents the API server
type Server struct {
	echo         *echo.Echo
	config       *config.Config
	store        *state.Store
	orchestrator *Orchestrator
	recorder     audit.Recorder
	tokens       *TokenService
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, store *state.Store, orchestrator *Orchestrator, recorder audit.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:         e,
		config:       cfg,
		store:        store,
		orchestrator: orchestrator,
		recorder:     recorder,
		tokens:       NewTokenService(cfg.Server.JWTSecret),
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// Inbound email provider webhook, authenticated by shared secret
	s.echo.POST("/webhooks/email-reply", s.EmailReplyWebhookHandler)

	// Operator endpoints
	s.echo.POST("/api/v1/auth/login", s.Login)

	v1 := s.echo.Group("/api/v1", s.RequireOperator)
	v1.GET("/threads/:id", s.getThread)
	v1.POST("/threads/:id/manual-release", s.manualRelease)
	v1.GET("/decisions/recent", s.getRecentDecisions)
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.config.Server.Port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
