package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	Addr        string
	CORSOrigins []string

	// Mongo
	MongoURI string
	MongoDB  string

	// Tokens
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	SigningKey string

	// Passwords
	BcryptCost int

	// Auth endpoint rate limit (per IP)
	RateLimit       int
	RateLimitWindow time.Duration

	// Live connections
	WSPingInterval time.Duration
}

func Load() Config {
	// Local dev convenience; a missing .env is not an error.
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("ADDR", ":5000"),
		CORSOrigins: getlist("CORS_ORIGINS", "*"),

		MongoURI: getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGODB_DB", "chat-app"),

		Issuer:     getenv("ISSUER", "quickchat"),
		Audience:   getenv("AUDIENCE", "quickchat-client"),
		AccessTTL:  getdur("ACCESS_TTL", 7*24*time.Hour),
		SigningKey: must("JWT_SECRET"),

		BcryptCost: getint("BCRYPT_COST", 10),

		RateLimit:       getint("AUTH_RATE_LIMIT", 30),
		RateLimitWindow: getdur("AUTH_RATE_WINDOW", time.Minute),

		WSPingInterval: getdur("WS_PING_INTERVAL", 30*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getlist(k, def string) []string {
	raw := getenv(k, def)
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid int, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("missing required env", "key", k)
		os.Exit(1)
	}
	return v
}
