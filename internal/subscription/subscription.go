// Package subscription defines the persisted push subscription model and its
// Postgres-backed store. A subscription is keyed by the push endpoint URL,
// which is globally unique and immutable for the life of a registration.
package subscription

import "math"

// Subscriber is one registered push subscription anchored to a location.
type Subscriber struct {
	Endpoint string // push endpoint URL, primary key
	P256DH   string // client public key, opaque
	Auth     string // client auth secret, opaque
	Lat      float64
	Lng      float64
	City     string // display label, may be empty
	Timezone string // IANA zone name, e.g. "America/Toronto"

	// LastSentDate is the last local calendar date (YYYY-MM-DD, in the
	// subscriber's own zone) on which a delivery was confirmed. Empty when
	// never notified. This is the sole dedup state.
	LastSentDate string
}

// ValidCoordinates reports whether lat/lng are finite and in range.
// Checked before any external call so a bad row never reaches the
// timings API.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}

// TruncateEndpoint shortens an endpoint URL for log output. Endpoints are
// long opaque URLs; the prefix is enough to identify a row.
func TruncateEndpoint(endpoint string) string {
	const max = 60
	if len(endpoint) <= max {
		return endpoint
	}
	return endpoint[:max] + "..."
}
