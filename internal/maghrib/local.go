package maghrib

import (
	"context"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/albapepper/iftar-push/internal/localtime"
)

// LocalResolver computes sunset offline from the coordinates, with no
// network dependency. The sunset instant approximates Maghrib for the
// default (Jafari) convention within a couple of minutes; conventions that
// add a twilight delay need the remote resolver.
type LocalResolver struct{}

// NewLocalResolver creates the offline strategy.
func NewLocalResolver() *LocalResolver {
	return &LocalResolver{}
}

// Resolve computes sunset for the subscriber's local date and converts it
// into that zone's wall clock.
func (r *LocalResolver) Resolve(_ context.Context, lat, lng float64, localDate time.Time, zone string) (localtime.HourMinute, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return localtime.HourMinute{}, fmt.Errorf("load zone %q: %w", zone, err)
	}

	year, month, day := localDate.Date()
	_, set := sunrise.SunriseSunset(lat, lng, year, month, day)
	if set.IsZero() {
		// Polar day or polar night: the sun does not set on this date.
		return localtime.HourMinute{}, fmt.Errorf("no sunset at %.2f,%.2f on %s", lat, lng, localDate.Format("2006-01-02"))
	}

	local := set.In(loc)
	return localtime.HourMinute{Hour: local.Hour(), Minute: local.Minute()}, nil
}
