package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"truefeedback/internal/config"
	"truefeedback/internal/container"
	"truefeedback/internal/handler"
	"truefeedback/internal/middleware"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	c := r.container

	if c.RedisClient != nil {
		r.log.Info("Closing Redis connection...")
		if err := c.RedisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	if c.Mongo != nil {
		r.log.Info("Disconnecting from MongoDB...")
		if err := c.Mongo.Close(ctx); err != nil {
			r.log.WithError(err).Error("Failed to disconnect from MongoDB")
			errs = append(errs, fmt.Errorf("MongoDB disconnect: %w", err))
		} else {
			r.log.Info("MongoDB disconnected successfully")
		}
	}

	if c.Postgres != nil {
		r.log.Info("Closing database connection pool...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.Postgres.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Database health check failed before closing")
		}
		healthCancel()

		c.Postgres.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errs) > 0 {
		r.log.WithField("error_count", len(errs)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogConsole)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.WithFields(map[string]interface{}{
		"port":          cfg.Port,
		"log_level":     cfg.LogLevel,
		"environment":   cfg.Environment,
		"store_backend": cfg.StoreBackend,
	}).Info("Starting truefeedback server")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	c, err := container.New(startupCtx, cfg, log)
	startupCancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Runs on every exit path; Cleanup is idempotent
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	services := c.Services

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	// RealIP must run before anything that reads the client address
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	healthHandler := handler.NewHealthHandler(c.HealthChecks(), log)
	pollHandler := handler.NewPollHandler(services.Poll, log)
	profileHandler := handler.NewProfileHandler(services.Profile, log)
	authHandler := handler.NewAuthHandler(services.Profile, log)

	requireAuth := middleware.Auth(services.Auth, log)

	r.Get("/health", healthHandler.Check)

	// Public poll routes; respondents are anonymous
	r.Route("/polls/{slug}", func(r chi.Router) {
		r.Get("/", pollHandler.GetPoll)
		r.With(middleware.RateLimit(services.RateLimit, service.ScopePollSubmit, log)).
			Post("/responses", pollHandler.SubmitResponse)
		r.With(requireAuth).Get("/analytics", pollHandler.GetAnalytics)
	})

	// Public profile routes
	r.Route("/u/{slug}", func(r chi.Router) {
		r.Get("/", profileHandler.GetProfile)
		r.With(middleware.RateLimit(services.RateLimit, service.ScopeMessageSend, log)).
			Post("/messages", profileHandler.SendMessage)
	})

	// Owner API
	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/me", authHandler.Me)

		r.Post("/polls", pollHandler.CreatePoll)
		r.Get("/polls", pollHandler.ListMyPolls)

		r.Put("/profile", profileHandler.UpsertProfile)
		r.Get("/profile", profileHandler.GetMyProfile)

		r.Get("/messages", profileHandler.ListMessages)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, errors.NewNotFoundError("Endpoint not found"), log)
	})

	log.Info("Router configured successfully")
	return r
}
