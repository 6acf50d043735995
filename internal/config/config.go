// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/b6428259/spotup-games/internal/auth"
	"github.com/b6428259/spotup-games/internal/room"
)

// Config holds everything the server needs to start. Redis and Postgres
// are optional: empty addresses disable the corresponding integration.
type Config struct {
	Addr string

	JWTSecret string
	TokenTTL  time.Duration

	ChallengeWindow time.Duration
	TurnTimeout     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string

	LogLevel string
}

// Load reads a .env file if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getEnv("COUP_ADDR", ":8080"),
		JWTSecret:       os.Getenv("COUP_JWT_SECRET"),
		RedisAddr:       os.Getenv("COUP_REDIS_ADDR"),
		RedisPassword:   os.Getenv("COUP_REDIS_PASSWORD"),
		PostgresDSN:     os.Getenv("COUP_POSTGRES_DSN"),
		LogLevel:        getEnv("COUP_LOG_LEVEL", "info"),
		ChallengeWindow: room.DefaultChallengeWindow,
		TurnTimeout:     room.DefaultTurnTimeout,
		TokenTTL:        auth.DefaultTokenTTL,
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("COUP_JWT_SECRET is required")
	}

	var err error
	if cfg.RedisDB, err = getInt("COUP_REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.ChallengeWindow, err = getSeconds("COUP_CHALLENGE_WINDOW_SEC", cfg.ChallengeWindow); err != nil {
		return Config{}, err
	}
	if cfg.TurnTimeout, err = getSeconds("COUP_TURN_TIMEOUT_SEC", cfg.TurnTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getSeconds("COUP_TOKEN_TTL_SEC", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ChallengeWindow <= 0 {
		return Config{}, fmt.Errorf("COUP_CHALLENGE_WINDOW_SEC must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getSeconds reads a whole-second duration. Zero is a valid value and
// disables the timer it configures.
func getSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}
