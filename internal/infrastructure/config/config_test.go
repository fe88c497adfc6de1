package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads. t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_ADDRESS", "SHUTDOWN_TIMEOUT", "CORS_ORIGINS",
		"DB_DRIVER", "DB_DSN", "CACHE_URL", "SESSION_TTL",
		"SEED_DIR", "SEED_WORKERS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerAddress != ":8080" {
		t.Errorf("ServerAddress = %q, want :8080", cfg.ServerAddress)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBDSN != "questions.db" {
		t.Errorf("DB = %s %q, want sqlite questions.db", cfg.DBDriver, cfg.DBDSN)
	}
	if cfg.CacheURL != "" {
		t.Errorf("CacheURL = %q, want empty", cfg.CacheURL)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.SeedWorkers != 4 {
		t.Errorf("SeedWorkers = %d, want 4", cfg.SeedWorkers)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("Log = %s/%s, want info/json", cfg.LogLevel, cfg.LogFormat)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://u:p@localhost:5432/cards")
	t.Setenv("CACHE_URL", "redis://localhost:6379/1")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SEED_WORKERS", "8")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerAddress != "127.0.0.1:9090" {
		t.Errorf("ServerAddress = %q", cfg.ServerAddress)
	}
	if cfg.DBDriver != "postgres" || cfg.DBDSN != "postgres://u:p@localhost:5432/cards" {
		t.Errorf("DB = %s %q", cfg.DBDriver, cfg.DBDSN)
	}
	if cfg.CacheURL != "redis://localhost:6379/1" {
		t.Errorf("CacheURL = %q", cfg.CacheURL)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("SessionTTL = %v, want 90m", cfg.SessionTTL)
	}
	if cfg.SeedWorkers != 8 {
		t.Errorf("SeedWorkers = %d, want 8", cfg.SeedWorkers)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad duration", "SHUTDOWN_TIMEOUT", "soon"},
		{"bad ttl", "SESSION_TTL", "1 day"},
		{"bad workers", "SEED_WORKERS", "many"},
		{"zero workers", "SEED_WORKERS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
