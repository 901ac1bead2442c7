package maghrib

import (
	"log/slog"

	"github.com/albapepper/iftar-push/internal/config"
)

// FromConfig selects the resolver strategy. Remote is the default; local
// trades a couple of minutes of convention accuracy for zero network
// dependency.
func FromConfig(cfg *config.Config, logger *slog.Logger) Resolver {
	if cfg.Resolver == config.ResolverLocal {
		return NewLocalResolver()
	}
	return NewRemoteResolver(
		cfg.AlAdhanBaseURL,
		cfg.CalculationMethod,
		cfg.AlAdhanPerMinute,
		cfg.HTTPTimeout,
		cfg.ResolverCache,
		logger,
	)
}
