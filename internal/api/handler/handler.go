// Package handler provides HTTP handlers for the registration API consumed
// by the PWA front-end.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/iftar-push/internal/api/respond"
	"github.com/albapepper/iftar-push/internal/config"
	"github.com/albapepper/iftar-push/internal/push"
	"github.com/albapepper/iftar-push/internal/subscription"
)

// Store is the slice of the subscription store the handlers need.
type Store interface {
	Get(ctx context.Context, endpoint string) (subscription.Subscriber, error)
	Upsert(ctx context.Context, sub subscription.Subscriber) error
	Delete(ctx context.Context, endpoint string) error
}

// Dispatcher sends the manual test push.
type Dispatcher interface {
	Send(ctx context.Context, sub subscription.Subscriber, p push.Payload) (push.Outcome, error)
}

// Pinger verifies storage connectivity for the /api/health/db probe.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store      Store
	dispatcher Dispatcher
	pinger     Pinger
	cfg        *config.Config
	logger     *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(store Store, dispatcher Dispatcher, pinger Pinger, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		pinger:     pinger,
		cfg:        cfg,
		logger:     logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Iftar Push API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic liveness status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// VAPIDPublicKey exposes the public signing key the browser needs to create
// a push subscription.
// @Summary VAPID public key
// @Description Returns the server's VAPID public key for PushManager.subscribe.
// @Tags subscription
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/vapid-public-key [get]
func (h *Handler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{
		"publicKey": h.cfg.VAPIDPublicKey,
	})
}
