package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/deskd/deskd/internal/api/http"
	"github.com/deskd/deskd/internal/api/middleware"
	"github.com/deskd/deskd/internal/domain/resolver"
	"github.com/deskd/deskd/internal/infrastructure/config"
	"github.com/deskd/deskd/internal/infrastructure/logging"
	"github.com/deskd/deskd/internal/infrastructure/monitoring"
)

// shutdownTimeout bounds how long in-flight requests get on shutdown.
const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router   *gin.Engine
	http     *http.Server
	resolver resolver.Resolver
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// New builds the daemon: logger, metrics, platform resolver, and router.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing deskd",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()

	res, err := resolver.New(resolver.Options{
		Logger:          logger.Named("resolver"),
		Metrics:         metrics,
		ExtraRoots:      cfg.Search.ExtraRoots,
		ExtraDenyTokens: cfg.Search.ExtraDenyTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resolver: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(res, logger.Named("http"))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/resolve/:name", handlers.Resolve)
	router.POST("/apps/open", handlers.Open)
	router.POST("/apps/close", handlers.Close)
	router.GET("/apps/:name/status", handlers.Status)
	router.GET("/apps", handlers.List)
	router.GET("/cache", handlers.Cache)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("server initialized")

	return &Server{
		router:   router,
		resolver: res,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting HTTP server", zap.String("addr", addr))

	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown failed", zap.Error(err))
			return err
		}
	}
	s.logger.Sync()
	return nil
}
