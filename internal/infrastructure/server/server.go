package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/devlens/devlens/internal/api/http"
	"github.com/devlens/devlens/internal/api/middleware"
	"github.com/devlens/devlens/internal/api/ws"
	"github.com/devlens/devlens/internal/domain/ingest"
	"github.com/devlens/devlens/internal/domain/session"
	"github.com/devlens/devlens/internal/infrastructure/config"
	"github.com/devlens/devlens/internal/infrastructure/logging"
	"github.com/devlens/devlens/internal/infrastructure/monitoring"
	"github.com/devlens/devlens/internal/infrastructure/resilience"
	"github.com/devlens/devlens/internal/provider"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	store   *session.Store
	service *ingest.Service
	bus     *ingest.Bus
	client  *provider.Client
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	sweepDone chan struct{}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing DevLens Server",
		zap.String("port", cfg.Server.Port),
		zap.String("provider_url", cfg.Provider.BaseURL),
		zap.String("model", cfg.Provider.Model),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	// Provider budget: sliding window across all sessions
	limiter := resilience.New(resilience.Settings{
		MaxRequests: cfg.Provider.MaxRequests,
		Window:      cfg.Provider.Window,
	})

	client := provider.New(provider.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		Model:       cfg.Provider.Model,
		Timeout:     cfg.Provider.Timeout,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
	}, limiter, logger).WithMetrics(metrics)

	store := session.NewStore(session.Config{
		MaxLogs:   cfg.Session.MaxLogs,
		MaxStates: cfg.Session.MaxStates,
		Timeout:   cfg.Session.Timeout,
	}).WithMetrics(metrics)

	bus := ingest.NewBus().WithMetrics(metrics)

	service := ingest.NewService(store, client, bus, ingest.Config{
		AutoAnalysis:   cfg.Analysis.Enabled,
		ErrorWindow:    cfg.Analysis.ErrorWindow,
		ErrorThreshold: cfg.Analysis.ErrorThreshold,
		ContextLogs:    cfg.Analysis.ContextLogs,
		QueueSize:      cfg.Analysis.QueueSize,
	}, logger).WithMetrics(metrics)
	service.Start()

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Create handlers
	handlers := apihttp.NewHandlers(store, service)
	wsHandler := ws.NewHandler(service, bus, logger).WithMetrics(metrics)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Ingestion
	router.POST("/ingest", handlers.Ingest)

	// Session inspection
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.GET("/sessions/:id/logs", handlers.GetLogs)
	router.GET("/sessions/:id/conversation", handlers.GetConversation)
	router.GET("/sessions/:id/health", handlers.GetSessionHealth)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &Server{
		router:    router,
		store:     store,
		service:   service,
		bus:       bus,
		client:    client,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
		sweepDone: make(chan struct{}),
	}
	go srv.sweepLoop(cfg.Session.SweepInterval)

	logger.Info("Server initialized successfully")
	return srv, nil
}

// sweepLoop evicts inactive sessions on a fixed interval
func (s *Server) sweepLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.sweepDone:
			return
		case <-ticker.C:
			if removed := s.store.Sweep(time.Now()); removed > 0 {
				s.logger.Info("Swept inactive sessions", zap.Int("removed", removed))
			}
			s.metrics.UpdateUptime()
		}
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	close(s.sweepDone)
	s.service.Close()
	s.bus.Close()

	// Sync logger before exit
	s.logger.Sync()

	return nil
}
