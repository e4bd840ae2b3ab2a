package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	cfg := Load()
	if cfg.Addr != ":5000" {
		t.Fatalf("unexpected default addr %q", cfg.Addr)
	}
	if cfg.MongoDB != "chat-app" {
		t.Fatalf("unexpected default database %q", cfg.MongoDB)
	}
	if cfg.AccessTTL != 7*24*time.Hour {
		t.Fatalf("unexpected default ttl %v", cfg.AccessTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("unexpected default bcrypt cost %d", cfg.BcryptCost)
	}
	if cfg.SigningKey != "unit-test-secret" {
		t.Fatalf("signing key not read from env")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("ADDR", ":8080")
	t.Setenv("ACCESS_TTL", "15m")
	t.Setenv("AUTH_RATE_LIMIT", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("addr override ignored: %q", cfg.Addr)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("ttl override ignored: %v", cfg.AccessTTL)
	}
	if cfg.RateLimit != 5 {
		t.Fatalf("rate limit override ignored: %d", cfg.RateLimit)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors origins not parsed: %v", cfg.CORSOrigins)
	}
}

func TestHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	if got := getint("SOME_INT", 42); got != 42 {
		t.Fatalf("expected fallback 42, got %d", got)
	}
	t.Setenv("SOME_DUR", "eleven seconds")
	if got := getdur("SOME_DUR", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback 1m, got %v", got)
	}
}
