// Package maghrib resolves the Maghrib (sunset) wall-clock time for a
// coordinate pair on a given local date.
//
// Two interchangeable strategies exist: a remote resolver backed by the
// AlAdhan timings API, and a local resolver computing sunset offline. The
// sweep only sees the Resolver interface and is agnostic to which is wired.
package maghrib

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/iftar-push/internal/localtime"
)

// Resolver produces the Maghrib time-of-day for one subscriber's location.
//
// localDate must already be expressed in the subscriber's zone (its
// year/month/day are the subscriber's "today", which can differ from the
// host's). zone is the subscriber's IANA zone name.
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64, localDate time.Time, zone string) (localtime.HourMinute, error)
}

// ResolutionError wraps a failed resolution with the subscriber it was for.
// The sweep skips the subscriber for this run without touching its state;
// the next sweep retries naturally.
type ResolutionError struct {
	Endpoint string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve maghrib for %s: %v", e.Endpoint, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
