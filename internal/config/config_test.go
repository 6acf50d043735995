package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COUP_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.ChallengeWindow)
	assert.Equal(t, 60*time.Second, cfg.TurnTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PostgresDSN)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COUP_JWT_SECRET", "s3cret")
	t.Setenv("COUP_ADDR", ":9999")
	t.Setenv("COUP_CHALLENGE_WINDOW_SEC", "5")
	t.Setenv("COUP_TURN_TIMEOUT_SEC", "0")
	t.Setenv("COUP_REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ChallengeWindow)
	assert.Zero(t, cfg.TurnTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("COUP_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("COUP_JWT_SECRET", "s3cret")
	t.Setenv("COUP_CHALLENGE_WINDOW_SEC", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsZeroChallengeWindow(t *testing.T) {
	t.Setenv("COUP_JWT_SECRET", "s3cret")
	t.Setenv("COUP_CHALLENGE_WINDOW_SEC", "0")
	_, err := Load()
	assert.Error(t, err)
}
