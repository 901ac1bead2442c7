package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by Get when no row matches the endpoint.
var ErrNotFound = errors.New("subscription not found")

// Store persists subscriptions in Postgres. Statements are prepared by the
// db package on every connection.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// List returns all subscriptions. The sweep takes this as its read snapshot;
// registrations landing mid-sweep are picked up on the next run.
func (s *Store) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.pool.Query(ctx, "list_subscriptions")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(
			&sub.Endpoint, &sub.P256DH, &sub.Auth,
			&sub.Lat, &sub.Lng, &sub.City, &sub.Timezone, &sub.LastSentDate,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Get returns a single subscription by endpoint.
func (s *Store) Get(ctx context.Context, endpoint string) (Subscriber, error) {
	var sub Subscriber
	err := s.pool.QueryRow(ctx, "get_subscription", endpoint).Scan(
		&sub.Endpoint, &sub.P256DH, &sub.Auth,
		&sub.Lat, &sub.Lng, &sub.City, &sub.Timezone, &sub.LastSentDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Upsert inserts or updates a registration. An update keeps last_sent_date
// so re-registering on the same device does not re-arm today's delivery.
func (s *Store) Upsert(ctx context.Context, sub Subscriber) error {
	_, err := s.pool.Exec(ctx, "upsert_subscription",
		sub.Endpoint, sub.P256DH, sub.Auth,
		sub.Lat, sub.Lng, sub.City, sub.Timezone,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Delete removes a registration. Deleting an absent endpoint is a no-op.
func (s *Store) Delete(ctx context.Context, endpoint string) error {
	_, err := s.pool.Exec(ctx, "delete_subscription", endpoint)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// SetLastSentDate records the local calendar date of a confirmed delivery.
// A single-row UPDATE, so concurrent sweeps cannot interleave a
// read-modify-write; setting the same date twice is a no-op.
func (s *Store) SetLastSentDate(ctx context.Context, endpoint, date string) error {
	_, err := s.pool.Exec(ctx, "set_last_sent_date", endpoint, date)
	if err != nil {
		return fmt.Errorf("set last sent date: %w", err)
	}
	return nil
}
