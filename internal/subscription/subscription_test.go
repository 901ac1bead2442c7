package subscription

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{name: "toronto", lat: 43.65, lng: -79.38, want: true},
		{name: "equator meridian", lat: 0, lng: 0, want: true},
		{name: "poles", lat: 90, lng: 180, want: true},
		{name: "lat too high", lat: 91, lng: 0, want: false},
		{name: "lng too low", lat: 0, lng: -181, want: false},
		{name: "nan", lat: math.NaN(), lng: 0, want: false},
		{name: "inf", lat: 0, lng: math.Inf(1), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCoordinates(tt.lat, tt.lng))
		})
	}
}

func TestTruncateEndpoint(t *testing.T) {
	short := "https://push.example.com/sub/abc"
	assert.Equal(t, short, TruncateEndpoint(short))

	long := "https://push.example.com/sub/" + strings.Repeat("x", 100)
	got := TruncateEndpoint(long)
	assert.Len(t, got, 63)
	assert.True(t, strings.HasSuffix(got, "..."))
}
