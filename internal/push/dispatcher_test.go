package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/iftar-push/internal/subscription"
)

// testSubscriber builds a subscriber with real client keys pointed at a fake
// push service, so the payload encryption path runs for real.
func testSubscriber(t *testing.T, endpoint string) subscription.Subscriber {
	t.Helper()

	clientKey, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	authSecret := make([]byte, 16)
	_, err = rand.Read(authSecret)
	require.NoError(t, err)

	return subscription.Subscriber{
		Endpoint: endpoint,
		P256DH:   base64.RawURLEncoding.EncodeToString(clientKey.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(authSecret),
		Lat:      43.65,
		Lng:      -79.38,
		City:     "Toronto",
		Timezone: "America/Toronto",
	}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return NewDispatcher("mailto:ops@example.com", publicKey, privateKey, 5*time.Second, nil)
}

func TestSendDelivered(t *testing.T) {
	var gotTTL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTTL = r.Header.Get("TTL")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := newTestDispatcher(t)
	outcome, err := d.Send(context.Background(), testSubscriber(t, srv.URL), Payload{
		Title: "Iftar time (Maghrib)",
		Body:  "Toronto • Maghrib: 17:45",
		URL:   "/",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDelivered, outcome)
	assert.Equal(t, "300", gotTTL)
}

func TestSendClassifiesGone(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		d := newTestDispatcher(t)
		outcome, err := d.Send(context.Background(), testSubscriber(t, srv.URL), Payload{Title: "t"})
		assert.Equal(t, OutcomeGone, outcome, "status %d", status)
		assert.Error(t, err)
		srv.Close()
	}
}

func TestSendClassifiesTransient(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		d := newTestDispatcher(t)
		outcome, err := d.Send(context.Background(), testSubscriber(t, srv.URL), Payload{Title: "t"})
		assert.Equal(t, OutcomeTransient, outcome, "status %d", status)
		assert.Error(t, err)
		srv.Close()
	}
}

func TestSendNetworkErrorIsTransient(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	d := newTestDispatcher(t)
	outcome, err := d.Send(context.Background(), testSubscriber(t, endpoint), Payload{Title: "t"})
	assert.Equal(t, OutcomeTransient, outcome)
	assert.Error(t, err)
}
