// Package push delivers web-push notifications over the VAPID protocol and
// classifies transport outcomes for the sweep.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/albapepper/iftar-push/internal/subscription"
)

// Outcome classifies one delivery attempt.
type Outcome int

const (
	// OutcomeDelivered means the push service accepted the message.
	OutcomeDelivered Outcome = iota
	// OutcomeGone means the endpoint no longer exists (404/410). Terminal
	// for the registration — the subscriber row must be deleted.
	OutcomeGone
	// OutcomeTransient covers every other failure (rate limiting, 5xx,
	// network errors). The subscriber stays eligible for the next sweep.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeGone:
		return "gone"
	default:
		return "transient"
	}
}

// Payload is the JSON body the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Dispatcher sends one notification to one subscriber. VAPID credentials are
// injected here once instead of living in package-global state.
type Dispatcher struct {
	subject    string
	publicKey  string
	privateKey string
	client     *http.Client
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher with the given VAPID identity.
func NewDispatcher(subject, publicKey, privateKey string, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		subject:    subject,
		publicKey:  publicKey,
		privateKey: privateKey,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send pushes the payload to the subscriber's endpoint and classifies the
// result. The error carries detail for logging; callers branch on the
// Outcome alone.
func (d *Dispatcher) Send(ctx context.Context, sub subscription.Subscriber, p Payload) (Outcome, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return OutcomeTransient, fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      d.subject,
		VAPIDPublicKey:  d.publicKey,
		VAPIDPrivateKey: d.privateKey,
		TTL:             300,
		Urgency:         webpush.UrgencyHigh,
		HTTPClient:      d.client,
	})
	if err != nil {
		return OutcomeTransient, fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return OutcomeGone, fmt.Errorf("push endpoint gone: status %d", resp.StatusCode)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return OutcomeDelivered, nil
	default:
		return OutcomeTransient, fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
}
