package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"truefeedback/internal/container"
	"truefeedback/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	checks map[string]container.HealthChecker
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks map[string]container.HealthChecker, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// Check handles GET /health. Any failing store turns the response into a 503.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, checker := range h.checks {
		wg.Add(1)
		go func(name string, checker container.HealthChecker) {
			defer wg.Done()
			status := "up"
			if err := checker.Health(ctx); err != nil {
				h.logger.WithError(err).WithField("component", name).Warn("Health check failed")
				status = "down"
			}
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    "1.0.0",
		Service:    "truefeedback",
		Components: components,
	}

	status := http.StatusOK
	for _, s := range components {
		if s != "up" {
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			break
		}
	}

	respondJSON(w, status, response, h.logger)
}
