// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/iftar-push/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// InitSchema creates the subscriptions table if it does not exist.
func (p *Pool) InitSchema(ctx context.Context) error {
	_, err := p.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS subscriptions (
			endpoint TEXT PRIMARY KEY,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			city TEXT NOT NULL,
			timezone TEXT NOT NULL,
			last_sent_date TEXT
		)`)
	if err != nil {
		return fmt.Errorf("create subscriptions table: %w", err)
	}
	return nil
}

// registerPreparedStatements registers all statements the API and sweep
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Subscriptions
		"list_subscriptions": `
			SELECT endpoint, p256dh, auth, lat, lng, city, timezone, COALESCE(last_sent_date, '')
			FROM subscriptions`,
		"get_subscription": `
			SELECT endpoint, p256dh, auth, lat, lng, city, timezone, COALESCE(last_sent_date, '')
			FROM subscriptions WHERE endpoint = $1`,
		"upsert_subscription": `
			INSERT INTO subscriptions (endpoint, p256dh, auth, lat, lng, city, timezone, last_sent_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
			ON CONFLICT (endpoint) DO UPDATE SET
				p256dh = EXCLUDED.p256dh,
				auth = EXCLUDED.auth,
				lat = EXCLUDED.lat,
				lng = EXCLUDED.lng,
				city = EXCLUDED.city,
				timezone = EXCLUDED.timezone`,
		"delete_subscription": "DELETE FROM subscriptions WHERE endpoint = $1",
		"set_last_sent_date":  "UPDATE subscriptions SET last_sent_date = $2 WHERE endpoint = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
