package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	otelmetric "go.opentelemetry.io/otel/metric"

	addressHTTP "github.com/allisson/delivery/internal/address/http"
	"github.com/allisson/delivery/internal/config"
	deliveryHTTP "github.com/allisson/delivery/internal/delivery/http"
	"github.com/allisson/delivery/internal/metrics"
)

// Server represents the API HTTP server
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates the API server and registers all routes.
// readyCheck reports readiness of downstream dependencies; nil means always
// ready.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	deliveryHandler *deliveryHTTP.DeliveryHandler,
	addressHandler *addressHTTP.AddressHandler,
	meterProvider otelmetric.MeterProvider,
	readyCheck func(ctx context.Context) error,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if readyCheck != nil {
			if err := readyCheck(c.Request.Context()); err != nil {
				logger.Warn("readiness check failed", slog.String("error", err.Error()))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	var mutating []gin.HandlerFunc
	if cfg.RateLimitEnabled {
		mutating = append(mutating, RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/deliveries", deliveryHandler.ListHandler)
		v1.GET("/deliveries/:id", deliveryHandler.GetHandler)
		v1.PATCH("/deliveries/:id/status", append(mutating, deliveryHandler.UpdateStatusHandler)...)

		v1.GET("/delivery-addresses/:id", addressHandler.GetHandler)

		patients := v1.Group("/patients/delivery-addresses")
		{
			patients.GET("/my-delivery-addresses", addressHandler.ListMyHandler)
			patients.POST("", append(mutating, addressHandler.CreateHandler)...)
			patients.PATCH("/:id", append(mutating, addressHandler.UpdateHandler)...)
			patients.DELETE("/:id", append(mutating, addressHandler.DeleteHandler)...)
		}
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the API HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
