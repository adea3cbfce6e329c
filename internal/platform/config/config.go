package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration resolved from the environment.
type Server struct {
	Addr        string
	Environment string

	// RedisURL enables the shared quota store when set. Empty means
	// in-process rate limiting only.
	RedisURL string

	// DatabaseURL enables Postgres-backed BIN metadata when set. Empty
	// means the seeded in-memory store is used.
	DatabaseURL string

	// JWTSigningKey verifies bearer tokens used to key authenticated
	// callers in the admission controller.
	JWTSigningKey string

	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CARDFORGE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("CARDFORGE_ENV")
	if env == "" {
		env = "development"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default, must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:            addr,
		Environment:     env,
		RedisURL:        os.Getenv("REDIS_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   jwtSigningKey,
		ShutdownTimeout: durationFromEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  durationFromEnv("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func durationFromEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
