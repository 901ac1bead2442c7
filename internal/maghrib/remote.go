package maghrib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/iftar-push/internal/localtime"
)

// RemoteResolver queries the AlAdhan timings API. Requests are rate-limited
// with a token bucket and carry a bounded timeout so one slow lookup cannot
// stall the whole sweep.
type RemoteResolver struct {
	httpClient *http.Client
	baseURL    string
	method     int // calculation convention; 0 = Jafari / Shia Ithna-Ashari
	limiter    *rate.Limiter
	cache      *timeCache
	logger     *slog.Logger
}

// NewRemoteResolver creates an AlAdhan-backed resolver.
func NewRemoteResolver(baseURL string, method, requestsPerMinute int, timeout time.Duration, cacheEnabled bool, logger *slog.Logger) *RemoteResolver {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	r := &RemoteResolver{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		method:     method,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
	if cacheEnabled {
		r.cache = newTimeCache()
	}
	return r
}

// timingsResponse is the subset of the AlAdhan body we read.
type timingsResponse struct {
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// Resolve fetches today's Maghrib for the coordinates. It first asks with
// the zone name so the API answers in that zone's wall clock; if that
// attempt fails for any reason it retries without the zone parameter,
// letting the API infer the zone from the coordinates. First success wins;
// both failures aggregate into one error.
func (r *RemoteResolver) Resolve(ctx context.Context, lat, lng float64, localDate time.Time, zone string) (localtime.HourMinute, error) {
	key := cacheKey(lat, lng, localDate, zone)
	if r.cache != nil {
		if hm, ok := r.cache.get(key); ok {
			return hm, nil
		}
	}

	var attemptErrs []error
	for _, u := range r.attemptURLs(lat, lng, localDate, zone) {
		hm, err := r.fetchMaghrib(ctx, u)
		if err == nil {
			if r.cache != nil {
				r.cache.set(key, hm)
			}
			return hm, nil
		}
		attemptErrs = append(attemptErrs, err)
	}
	return localtime.HourMinute{}, errors.Join(attemptErrs...)
}

// attemptURLs builds the ordered fallback chain of request URLs.
func (r *RemoteResolver) attemptURLs(lat, lng float64, localDate time.Time, zone string) []string {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("method", strconv.Itoa(r.method))

	base := fmt.Sprintf("%s/v1/timings/%s", r.baseURL, localDate.Format("02-01-2006"))

	var urls []string
	if strings.Contains(zone, "/") {
		params.Set("timezonestring", zone)
		urls = append(urls, base+"?"+params.Encode())
		params.Del("timezonestring")
	}
	urls = append(urls, base+"?"+params.Encode())
	return urls
}

// fetchMaghrib performs one rate-limited GET and extracts the Maghrib field.
func (r *RemoteResolver) fetchMaghrib(ctx context.Context, u string) (localtime.HourMinute, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return localtime.HourMinute{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return localtime.HourMinute{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return localtime.HourMinute{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return localtime.HourMinute{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return localtime.HourMinute{}, fmt.Errorf("aladhan returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed timingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return localtime.HourMinute{}, fmt.Errorf("decode response: %w", err)
	}

	raw, ok := parsed.Data.Timings["Maghrib"]
	if !ok || raw == "" {
		return localtime.HourMinute{}, fmt.Errorf("no Maghrib in response")
	}

	hm, err := localtime.ParseClock(raw)
	if err != nil {
		return localtime.HourMinute{}, fmt.Errorf("bad Maghrib format: %w", err)
	}
	return hm, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
