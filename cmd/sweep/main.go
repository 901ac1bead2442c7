// Command sweep is the Iftar Push batch CLI, designed to be invoked by an
// external cron every SWEEP_WINDOW_MINUTES.
//
// Usage:
//
//	iftar-sweep run
//	iftar-sweep ping --endpoint https://push.example.com/sub/...
//	iftar-sweep initdb
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/iftar-push/internal/config"
	"github.com/albapepper/iftar-push/internal/db"
	"github.com/albapepper/iftar-push/internal/maghrib"
	"github.com/albapepper/iftar-push/internal/push"
	"github.com/albapepper/iftar-push/internal/subscription"
	"github.com/albapepper/iftar-push/internal/sweep"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "iftar-sweep",
		Short: "Iftar Push sweep CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(pingCmd())
	root.AddCommand(initDBCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Evaluate all subscribers once and deliver due notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := cfg.RequireVAPID(); err != nil {
					return err
				}

				store := subscription.NewStore(pool.Pool)
				resolver := maghrib.FromConfig(cfg, logger)
				dispatcher := push.NewDispatcher(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.HTTPTimeout, logger)
				s := sweep.New(store, resolver, dispatcher, sweep.Config{
					WindowMinutes: cfg.WindowMinutes,
					Workers:       cfg.SweepWorkers,
				}, logger)

				start := time.Now()
				result, err := s.Run(ctx, time.Now())
				if err != nil {
					// Only a sweep that could not start at all is fatal;
					// per-subscriber failures are already in the result.
					return err
				}
				logger.Info("Sweep finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("sweep error", "error", e)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// ping command
// --------------------------------------------------------------------------

func pingCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send a manual test notification to one subscriber",
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				return fmt.Errorf("--endpoint is required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := cfg.RequireVAPID(); err != nil {
					return err
				}

				store := subscription.NewStore(pool.Pool)
				sub, err := store.Get(ctx, endpoint)
				if err != nil {
					return err
				}

				dispatcher := push.NewDispatcher(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.HTTPTimeout, logger)
				outcome, sendErr := dispatcher.Send(ctx, sub, push.Payload{
					Title: "Test Notification",
					Body:  "If you see this, push is working",
					URL:   "/",
				})
				logger.Info("Test push finished", "endpoint", subscription.TruncateEndpoint(endpoint), "outcome", outcome.String())
				if outcome != push.OutcomeDelivered {
					return sendErr
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Subscription endpoint URL")
	return cmd
}

// --------------------------------------------------------------------------
// initdb command
// --------------------------------------------------------------------------

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the subscriptions schema if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := pool.InitSchema(ctx); err != nil {
					return err
				}
				logger.Info("Database initialized")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
