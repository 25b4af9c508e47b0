// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// CASEFLOW_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	Redis         Redis
	Kafka         Kafka
	JWTSigningKey string
	JWTIssuer     string
	// MaterialExpiryTTL is how long unmatched bulk-scan material waits for its
	// parent case before the expiry signal fires.
	MaterialExpiryTTL time.Duration
	ShutdownTimeout   time.Duration
}

// Redis configures the reference-data cache. An empty URL disables caching and
// the service reads the backing store directly.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Kafka configures the outbox relay. No brokers means events stay in the
// outbox table and no relay is started.
type Kafka struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envOr("CASEFLOW_ADDR", ":8080"),
		DatabaseURL: os.Getenv("CASEFLOW_DATABASE_URL"),
		Redis: Redis{
			URL:          os.Getenv("CASEFLOW_REDIS_URL"),
			PoolSize:     envInt("CASEFLOW_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CASEFLOW_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("CASEFLOW_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CASEFLOW_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CASEFLOW_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("CASEFLOW_REFDATA_CACHE_TTL", 15*time.Minute),
		},
		Kafka: Kafka{
			Brokers:       splitList(os.Getenv("CASEFLOW_KAFKA_BROKERS")),
			Topic:         envOr("CASEFLOW_KAFKA_TOPIC", "caseflow.case-events"),
			RelayInterval: envDuration("CASEFLOW_RELAY_INTERVAL", time.Second),
		},
		// Development default only; production must override.
		JWTSigningKey:     envOr("CASEFLOW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         envOr("CASEFLOW_JWT_ISSUER", "caseflow"),
		MaterialExpiryTTL: envDuration("CASEFLOW_MATERIAL_EXPIRY_TTL", 72*time.Hour),
		ShutdownTimeout:   envDuration("CASEFLOW_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
