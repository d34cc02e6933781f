package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"bloodbank/internal/policy"
)

// Config captures process-level configuration. Values come from environment
// variables so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string

	CooldownDays        int
	MaxUnitsPerDonation int
	MaxUnitsPerRequest  int
	StockCacheTTL       time.Duration
}

// FromEnv builds a Config from environment variables. Postgres, Redis, and
// Kafka are each optional; absent URLs select the in-memory implementations.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("BLOODBANK_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		AuditTopic:          envOr("AUDIT_TOPIC", "bloodbank.audit"),
		JWTSigningKey:       os.Getenv("JWT_SIGNING_KEY"),
		CooldownDays:        envIntOr("DONATION_COOLDOWN_DAYS", policy.DefaultCooldownDays),
		MaxUnitsPerDonation: envIntOr("MAX_UNITS_PER_DONATION", policy.DefaultMaxUnitsPerDonation),
		MaxUnitsPerRequest:  envIntOr("MAX_UNITS_PER_REQUEST", policy.DefaultMaxUnitsPerRequest),
		StockCacheTTL:       30 * time.Second,
	}
	if cfg.JWTSigningKey == "" {
		// Development default; must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("STOCK_CACHE_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			cfg.StockCacheTTL = parsed
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
