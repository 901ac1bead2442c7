// Package sweep implements the once-per-window eligibility pass over all
// subscribers. Each invocation is a bounded batch job: load every
// subscription, decide per subscriber whether its local Maghrib falls inside
// the current window, dispatch at most one push, and record the outcome. One
// bad row never aborts the batch, and a confirmed delivery is recorded
// against the subscriber's local calendar date so the next sweep inside the
// same window skips it.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/iftar-push/internal/localtime"
	"github.com/albapepper/iftar-push/internal/maghrib"
	"github.com/albapepper/iftar-push/internal/push"
	"github.com/albapepper/iftar-push/internal/subscription"
)

// Store is the slice of the subscription store the sweep needs.
type Store interface {
	List(ctx context.Context) ([]subscription.Subscriber, error)
	Delete(ctx context.Context, endpoint string) error
	SetLastSentDate(ctx context.Context, endpoint, date string) error
}

// Dispatcher sends one push and classifies the outcome.
type Dispatcher interface {
	Send(ctx context.Context, sub subscription.Subscriber, p push.Payload) (push.Outcome, error)
}

// Config tunes one sweep run.
type Config struct {
	WindowMinutes int // in-window ⇔ 0 ≤ now-target < WindowMinutes
	Workers       int // bounded concurrency across subscribers
}

// Sweeper evaluates the whole subscriber set for one instant.
type Sweeper struct {
	store      Store
	resolver   maghrib.Resolver
	dispatcher Dispatcher
	cfg        Config
	logger     *slog.Logger
}

// New creates a Sweeper.
func New(store Store, resolver maghrib.Resolver, dispatcher Dispatcher, cfg Config, logger *slog.Logger) *Sweeper {
	if cfg.WindowMinutes < 1 {
		cfg.WindowMinutes = 5
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:      store,
		resolver:   resolver,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run evaluates every subscriber against the given instant. The returned
// error is non-nil only when the sweep could not start at all (the
// subscriber list is unavailable); per-subscriber failures land in the
// Result instead.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Result, error) {
	start := time.Now()
	var result Result

	subs, err := s.store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list subscribers: %w", err)
	}

	result.Subscribers = len(subs)
	if len(subs) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	// Worker pool: one channel of subscribers, N workers. Bounded so the
	// timings API and the push service never see the whole table at once.
	workers := s.cfg.Workers
	if workers > len(subs) {
		workers = len(subs)
	}

	ch := make(chan subscription.Subscriber, len(subs))
	for _, sub := range subs {
		ch <- sub
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				outcome, evalErr := s.evaluate(ctx, now, sub)

				mu.Lock()
				result.record(outcome)
				if evalErr != nil {
					result.Errors = append(result.Errors, evalErr.Error())
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	result.Duration = time.Since(start)

	s.logger.Info("Sweep complete", "summary", result.Summary())
	return result, nil
}

// evaluate runs the per-subscriber state machine. It always returns a
// terminal outcome; errors are reported alongside, never raised past the
// subscriber's own boundary.
func (s *Sweeper) evaluate(ctx context.Context, now time.Time, sub subscription.Subscriber) (outcome Outcome, err error) {
	short := subscription.TruncateEndpoint(sub.Endpoint)

	defer func() {
		if rec := recover(); rec != nil {
			// Counted as transient so the row is retried next sweep.
			outcome = OutcomeTransientFailure
			err = fmt.Errorf("evaluate %s: panic: %v", short, rec)
		}
	}()

	// 1. Coordinates must be sane before anything touches the network.
	if !subscription.ValidCoordinates(sub.Lat, sub.Lng) {
		s.logger.Warn("Skipping invalid coordinates", "endpoint", short, "lat", sub.Lat, "lng", sub.Lng)
		return OutcomeInvalidLocation, nil
	}

	// 2. Local clock and date key in the subscriber's own zone.
	zone := sub.Timezone
	if zone == "" {
		zone = "UTC"
	}
	loc, locErr := time.LoadLocation(zone)
	if locErr != nil {
		s.logger.Warn("Skipping invalid timezone", "endpoint", short, "timezone", sub.Timezone)
		return OutcomeInvalidZone, nil
	}
	localNow := now.In(loc)
	dateKey := localtime.DateKey(now, loc)

	// 3. Dedup: at most one delivery per subscriber per local day.
	if sub.LastSentDate == dateKey {
		return OutcomeAlreadySent, nil
	}

	// 4. Today's Maghrib for these coordinates.
	target, resErr := s.resolver.Resolve(ctx, sub.Lat, sub.Lng, localNow, zone)
	if resErr != nil {
		return OutcomeResolutionFailed, &maghrib.ResolutionError{Endpoint: short, Err: resErr}
	}

	// 5. Window check.
	offset := localtime.Offset(now, loc, target)
	if !localtime.InWindow(offset, s.cfg.WindowMinutes) {
		return OutcomeOutOfWindow, nil
	}

	// 6. Dispatch and settle.
	sendOutcome, sendErr := s.dispatcher.Send(ctx, sub, Payload(sub.City, target))
	switch sendOutcome {
	case push.OutcomeDelivered:
		if markErr := s.store.SetLastSentDate(ctx, sub.Endpoint, dateKey); markErr != nil {
			// The push went out but the ledger write failed; the next sweep
			// inside this window may deliver again. Surface it loudly.
			return OutcomeDelivered, fmt.Errorf("mark sent %s: %w", short, markErr)
		}
		s.logger.Info("Sent iftar push", "endpoint", short, "date", dateKey, "maghrib", target.String())
		return OutcomeDelivered, nil

	case push.OutcomeGone:
		if delErr := s.store.Delete(ctx, sub.Endpoint); delErr != nil {
			return OutcomeRemoved, fmt.Errorf("delete gone subscription %s: %w", short, delErr)
		}
		s.logger.Info("Deleted expired subscription", "endpoint", short)
		return OutcomeRemoved, nil

	default:
		s.logger.Warn("Push send failed", "endpoint", short, "error", sendErr)
		return OutcomeTransientFailure, nil
	}
}

// Payload builds the notification body for a delivery: the city label when
// present, plus the resolved Maghrib time.
func Payload(city string, target localtime.HourMinute) push.Payload {
	body := "Maghrib: " + target.String()
	if city != "" {
		body = city + " • " + body
	}
	return push.Payload{
		Title: "Iftar time (Maghrib)",
		Body:  body,
		URL:   "/",
	}
}
