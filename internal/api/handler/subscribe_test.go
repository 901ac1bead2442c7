package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/iftar-push/internal/config"
	"github.com/albapepper/iftar-push/internal/push"
	"github.com/albapepper/iftar-push/internal/subscription"
)

type fakeStore struct {
	subs     map[string]subscription.Subscriber
	upserted []subscription.Subscriber
	deleted  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[string]subscription.Subscriber)}
}

func (f *fakeStore) Get(_ context.Context, endpoint string) (subscription.Subscriber, error) {
	sub, ok := f.subs[endpoint]
	if !ok {
		return subscription.Subscriber{}, subscription.ErrNotFound
	}
	return sub, nil
}

func (f *fakeStore) Upsert(_ context.Context, sub subscription.Subscriber) error {
	f.upserted = append(f.upserted, sub)
	f.subs[sub.Endpoint] = sub
	return nil
}

func (f *fakeStore) Delete(_ context.Context, endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	delete(f.subs, endpoint)
	return nil
}

type fakeDispatcher struct {
	outcome push.Outcome
	err     error
	calls   int
}

func (f *fakeDispatcher) Send(context.Context, subscription.Subscriber, push.Payload) (push.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) HealthCheck(context.Context) error { return f.err }

func newTestHandler(store *fakeStore, dispatcher *fakeDispatcher) *Handler {
	cfg := &config.Config{VAPIDPublicKey: "test-public-key"}
	return New(store, dispatcher, &fakePinger{}, cfg, nil)
}

const validSubscribeBody = `{
	"subscription": {
		"endpoint": "https://push.example.com/sub/abc",
		"keys": {"p256dh": "pk", "auth": "as"}
	},
	"lat": 43.65, "lng": -79.38,
	"city": "Toronto", "timeZone": "America/Toronto"
}`

func TestSubscribe(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, &fakeDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(validSubscribeBody))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, store.upserted, 1)
	sub := store.upserted[0]
	assert.Equal(t, "https://push.example.com/sub/abc", sub.Endpoint)
	assert.Equal(t, "America/Toronto", sub.Timezone)
	assert.Equal(t, "Toronto", sub.City)
	assert.Empty(t, sub.LastSentDate)
}

func TestSubscribeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{
			name: "missing keys",
			body: `{"subscription":{"endpoint":"https://e"},"lat":1,"lng":1}`,
			code: "INVALID_SUBSCRIPTION",
		},
		{
			name: "latitude out of range",
			body: `{"subscription":{"endpoint":"https://e","keys":{"p256dh":"p","auth":"a"}},"lat":91,"lng":0}`,
			code: "INVALID_LOCATION",
		},
		{
			name: "unknown zone",
			body: `{"subscription":{"endpoint":"https://e","keys":{"p256dh":"p","auth":"a"}},"lat":1,"lng":1,"timeZone":"Not/AZone"}`,
			code: "INVALID_TIMEZONE",
		},
		{
			name: "not json",
			body: `{{{`,
			code: "BAD_JSON",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			h := newTestHandler(store, &fakeDispatcher{})

			req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Subscribe(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			assert.Empty(t, store.upserted)
		})
	}
}

func TestSubscribeDefaultsZoneToUTC(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, &fakeDispatcher{})

	body := `{"subscription":{"endpoint":"https://e","keys":{"p256dh":"p","auth":"a"}},"lat":1,"lng":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "UTC", store.upserted[0].Timezone)
}

func TestUnsubscribe(t *testing.T) {
	store := newFakeStore()
	store.subs["https://e"] = subscription.Subscriber{Endpoint: "https://e"}
	h := newTestHandler(store, &fakeDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/unsubscribe", strings.NewReader(`{"endpoint":"https://e"}`))
	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"https://e"}, store.deleted)
}

func TestUnsubscribeMissingEndpointIsNoOp(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, &fakeDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/unsubscribe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.deleted)
}

func TestTestPush(t *testing.T) {
	store := newFakeStore()
	store.subs["https://e"] = subscription.Subscriber{Endpoint: "https://e"}
	dispatcher := &fakeDispatcher{outcome: push.OutcomeDelivered}
	h := newTestHandler(store, dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/test-push", strings.NewReader(`{"endpoint":"https://e"}`))
	rec := httptest.NewRecorder()
	h.TestPush(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, dispatcher.calls)
}

func TestTestPushUnknownEndpoint(t *testing.T) {
	h := newTestHandler(newFakeStore(), &fakeDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/test-push", strings.NewReader(`{"endpoint":"https://missing"}`))
	rec := httptest.NewRecorder()
	h.TestPush(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestPushGoneRemovesSubscription(t *testing.T) {
	store := newFakeStore()
	store.subs["https://e"] = subscription.Subscriber{Endpoint: "https://e"}
	dispatcher := &fakeDispatcher{outcome: push.OutcomeGone, err: errors.New("status 410")}
	h := newTestHandler(store, dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/test-push", strings.NewReader(`{"endpoint":"https://e"}`))
	rec := httptest.NewRecorder()
	h.TestPush(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, []string{"https://e"}, store.deleted)
}

func TestVAPIDPublicKey(t *testing.T) {
	h := newTestHandler(newFakeStore(), &fakeDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/vapid-public-key", nil)
	rec := httptest.NewRecorder()
	h.VAPIDPublicKey(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "test-public-key", body["publicKey"])
}

func TestHealthCheckDB(t *testing.T) {
	cfg := &config.Config{}
	h := New(newFakeStore(), &fakeDispatcher{}, &fakePinger{}, cfg, nil)

	rec := httptest.NewRecorder()
	h.HealthCheckDB(rec, httptest.NewRequest(http.MethodGet, "/api/health/db", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = New(newFakeStore(), &fakeDispatcher{}, &fakePinger{err: errors.New("down")}, cfg, nil)
	rec = httptest.NewRecorder()
	h.HealthCheckDB(rec, httptest.NewRequest(http.MethodGet, "/api/health/db", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
