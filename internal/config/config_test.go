package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/iftar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.WindowMinutes)
	assert.Equal(t, 4, cfg.SweepWorkers)
	assert.Equal(t, time.Duration(0), cfg.SweepInterval)
	assert.Equal(t, ResolverRemote, cfg.Resolver)
	assert.Equal(t, "https://api.aladhan.com", cfg.AlAdhanBaseURL)
	assert.Equal(t, 0, cfg.CalculationMethod)
	assert.True(t, cfg.ResolverCache)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/iftar")
	t.Setenv("SWEEP_WINDOW_MINUTES", "10")
	t.Setenv("RESOLVER", "local")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.WindowMinutes)
	assert.Equal(t, ResolverLocal, cfg.Resolver)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowOrigins)
}

func TestLoadRejectsUnknownResolver(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/iftar")
	t.Setenv("RESOLVER", "astral")
	_, err := Load()
	require.Error(t, err)
}

func TestRequireVAPID(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireVAPID())

	cfg.VAPIDSubject = "mailto:ops@example.com"
	cfg.VAPIDPublicKey = "pub"
	require.Error(t, cfg.RequireVAPID(), "private key still missing")

	cfg.VAPIDPrivateKey = "priv"
	require.NoError(t, cfg.RequireVAPID())
}
