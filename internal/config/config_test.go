package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("WAITLIST_ACCEPT_WINDOW", "")
	t.Setenv("RETENTION_HIGH_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 2*time.Hour, cfg.WaitlistAcceptWindow)
	assert.Equal(t, 21, cfg.RetentionHighDays)
	assert.Equal(t, "@every 1m", cfg.WaitlistSweepSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WAITLIST_ACCEPT_WINDOW", "30m")
	t.Setenv("RETENTION_MEDIUM_DAYS", "7")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.WaitlistAcceptWindow)
	assert.Equal(t, 7, cfg.RetentionMediumDays)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CANCELLATION_REFUND_CUTOFF", "-1h")
	t.Setenv("RETENTION_HIGH_DAYS", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.CancellationRefundCutoff)
	assert.Equal(t, 21, cfg.RetentionHighDays)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInsecureJWTSecret)

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.JWTSecret)
}
