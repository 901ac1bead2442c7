package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/albapepper/iftar-push/internal/api/respond"
	"github.com/albapepper/iftar-push/internal/push"
	"github.com/albapepper/iftar-push/internal/subscription"
)

// subscribeRequest mirrors the browser PushSubscription JSON plus location.
type subscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256DH string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	City     string  `json:"city"`
	TimeZone string  `json:"timeZone"`
}

type endpointRequest struct {
	Endpoint string `json:"endpoint"`
}

// Subscribe registers or updates a push subscription.
// @Summary Register a subscription
// @Description Upserts a push subscription with its location and time zone. Re-registering keeps the dedup state.
// @Tags subscription
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Request body is not valid JSON")
		return
	}

	if req.Subscription.Endpoint == "" || req.Subscription.Keys.P256DH == "" || req.Subscription.Keys.Auth == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SUBSCRIPTION", "Subscription endpoint and keys are required")
		return
	}
	if !subscription.ValidCoordinates(req.Lat, req.Lng) {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_LOCATION", "lat/lng out of range")
		return
	}

	zone := req.TimeZone
	if zone == "" {
		zone = "UTC"
	}
	if _, err := time.LoadLocation(zone); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_TIMEZONE", "Unknown IANA time zone")
		return
	}

	sub := subscription.Subscriber{
		Endpoint: req.Subscription.Endpoint,
		P256DH:   req.Subscription.Keys.P256DH,
		Auth:     req.Subscription.Keys.Auth,
		Lat:      req.Lat,
		Lng:      req.Lng,
		City:     req.City,
		Timezone: zone,
	}
	if err := h.store.Upsert(r.Context(), sub); err != nil {
		h.logger.Error("Subscribe upsert failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Could not save subscription")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]bool{"ok": true})
}

// Unsubscribe deletes a registration. Unknown endpoints are a no-op.
// @Summary Remove a subscription
// @Tags subscription
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/unsubscribe [post]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req endpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		// Nothing to remove; treat as already unsubscribed.
		respond.WriteJSONObject(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if err := h.store.Delete(r.Context(), req.Endpoint); err != nil {
		h.logger.Error("Unsubscribe delete failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Could not delete subscription")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]bool{"ok": true})
}

// TestPush fires a single manual delivery so a user can verify their setup.
// A gone endpoint is removed, mirroring the sweep.
// @Summary Send a test notification
// @Tags subscription
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 404 {object} respond.ErrorResponse
// @Failure 410 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/test-push [post]
func (h *Handler) TestPush(w http.ResponseWriter, r *http.Request) {
	var req endpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_ENDPOINT", "endpoint is required")
		return
	}

	sub, err := h.store.Get(r.Context(), req.Endpoint)
	if errors.Is(err, subscription.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Subscription not found")
		return
	}
	if err != nil {
		h.logger.Error("Test push lookup failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "Could not load subscription")
		return
	}

	payload := push.Payload{
		Title: "Test Notification",
		Body:  "If you see this, push is working",
		URL:   "/",
	}
	outcome, sendErr := h.dispatcher.Send(r.Context(), sub, payload)
	switch outcome {
	case push.OutcomeDelivered:
		respond.WriteJSONObject(w, http.StatusOK, map[string]bool{"ok": true})
	case push.OutcomeGone:
		if delErr := h.store.Delete(r.Context(), sub.Endpoint); delErr != nil {
			h.logger.Error("Test push cleanup failed", "error", delErr)
		}
		respond.WriteError(w, http.StatusGone, "SUBSCRIPTION_GONE", "Subscription expired and was removed")
	default:
		h.logger.Warn("Test push failed", "endpoint", subscription.TruncateEndpoint(sub.Endpoint), "error", sendErr)
		respond.WriteError(w, http.StatusBadGateway, "PUSH_FAILED", "Push service rejected the delivery")
	}
}
