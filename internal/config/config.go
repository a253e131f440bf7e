package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	Port        int    // HTTP port (default 8080)
	DatabaseDSN string // Postgres connection string, required
	RedisAddr   string // optional resolve cache, empty disables it
	Domain      string // public prefix for building short links, no trailing slash
	Env         string // "development" or "production"
	SweepAt     TimeOfDay
}

// TimeOfDay is a wall-clock minute during which the cleanup job may run.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// FromEnv loads configuration, failing only on a missing DSN or a malformed
// sweep window. Callers load .env (godotenv) before calling this.
func FromEnv() (Config, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		return Config{}, fmt.Errorf("DATABASE_DSN not set")
	}

	sweepAt, err := ParseTimeOfDay(getEnv("SWEEP_AT", "03:00"))
	if err != nil {
		return Config{}, fmt.Errorf("SWEEP_AT: %w", err)
	}

	return Config{
		Port:        getEnvInt("PORT", 8080),
		DatabaseDSN: dsn,
		RedisAddr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Domain:      strings.TrimRight(getEnv("DOMAIN", "http://localhost:8080"), "/"),
		Env:         getEnv("APP_ENV", "production"),
		SweepAt:     sweepAt,
	}, nil
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("bad minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
