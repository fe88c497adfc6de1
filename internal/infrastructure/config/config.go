package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Storage
	DBDriver string // "sqlite" or "postgres"
	DBDSN    string // file path for sqlite, connection URL for postgres

	// Session state; empty CacheURL keeps sessions in memory
	CacheURL   string
	SessionTTL time.Duration

	// Seed import at startup; empty SeedDir disables it
	SeedDir     string
	SeedWorkers int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getenvDefault("SERVER_ADDRESS", ":8080"),
		CORSOrigins:   splitList(getenvDefault("CORS_ORIGINS", "*")),
		DBDriver:      getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:         getenvDefault("DB_DSN", "questions.db"),
		CacheURL:      os.Getenv("CACHE_URL"),
		SeedDir:       os.Getenv("SEED_DIR"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),
		LogFormat:     getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SeedWorkers, err = getInt("SEED_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.SeedWorkers < 1 {
		return nil, fmt.Errorf("config: SEED_WORKERS must be at least 1, got %d", cfg.SeedWorkers)
	}
	return cfg, nil
}

func getDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}

func getInt(k string, fallback int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid integer: %w", k, v, err)
	}
	return n, nil
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
