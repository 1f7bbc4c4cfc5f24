// Package http serves the game server's HTTP surface: the feature summary,
// liveness and readiness probes, and the websocket upgrade that hands each
// connection to the realtime hub.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wikichallenge/wikichallenge-server/internal/interface/http/handlers"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 3000).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing a plain HTTP response.
	// Upgraded websocket connections clear it.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle keep-alive connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// AllowedOrigins - CORS origins; "*" allows any.
	AllowedOrigins []string

	// Debug switches gin to debug mode.
	Debug bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           3000,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Realtime is the websocket side of the server.
type Realtime interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	OnlineCount(ctx context.Context) int64
}

// FeatureSource lists the client feature flags.
type FeatureSource interface {
	Snapshot() map[string]bool
}

// Dependencies contains everything the HTTP handlers need.
type Dependencies struct {
	Realtime      Realtime
	Features      FeatureSource
	HealthChecker handlers.HealthChecker
	Logger        *logger.Logger

	AppName string
	Version string
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	engine     *gin.Engine
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: config,
		deps:   deps,
		engine: gin.New(),
		logger: deps.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.Named("http")
	if s.deps.HealthChecker == nil {
		s.deps.HealthChecker = handlers.NewCompositeHealthChecker(deps.Version)
	}

	s.engine.Use(
		handlers.RequestID(),
		handlers.Recovery(s.logger),
		handlers.RequestLogger(s.logger),
		corsMiddleware(config.AllowedOrigins),
	)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.engine,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the routed handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ready", s.handleReady)
	if s.deps.Realtime != nil {
		s.engine.GET("/ws", s.handleWebsocket)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		writeJSONError(c, http.StatusNotFound, "not_found", "Resource not found")
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", handlers.HeaderRequestID},
		ExposeHeaders: []string{handlers.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for plain requests to
// finish. Hijacked websocket connections are closed by the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIError is the body of every non-2xx response.
type APIError struct {
	Code      string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSONError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, APIError{
		Code:      code,
		Message:   message,
		RequestID: handlers.GetRequestID(c),
	})
}
