package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "foodtrust/pkg/platform/strings"
)

// Config captures process-level configuration. main stays lean by pulling
// everything from the environment in one place.
type Config struct {
	Addr string
	HTTP HTTPConfig

	// DatabaseURL selects the Postgres-backed stores. Registered records and
	// audit events survive restarts only with a database; running without one
	// requires the explicit InMemory opt-in.
	DatabaseURL string

	// InMemory allows running on in-memory stores for local development.
	// Never a silent fallback: startup fails when neither a database nor
	// this flag is set.
	InMemory bool

	Redis RedisConfig

	Kafka KafkaConfig

	JWTSigningKey string
	TokenTTL      time.Duration

	// ManufacturerCredentials holds "id:bcrypt-hash" pairs, comma separated.
	ManufacturerCredentials map[string]string

	RecordCacheTTL time.Duration

	LogLevel string
}

// HTTPConfig bounds how long the server holds a slow connection.
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig configures the optional product record cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox relay. Empty brokers disable the
// relay; audit events stay durable in the database either way.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr: envOr("FOODTRUST_ADDR", ":8080"),
		HTTP: HTTPConfig{
			ReadTimeout:  envDurationOr("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: envDurationOr("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  envDurationOr("HTTP_IDLE_TIMEOUT", 120*time.Second),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		InMemory:    envBoolOr("FOODTRUST_IN_MEMORY", false),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic:        envOr("KAFKA_AUDIT_TOPIC", "foodtrust.audit"),
			PollInterval: envDurationOr("OUTBOX_POLL_INTERVAL", time.Second),
		},
		JWTSigningKey:  os.Getenv("JWT_SIGNING_KEY"),
		TokenTTL:       envDurationOr("TOKEN_TTL", time.Hour),
		RecordCacheTTL: envDurationOr("RECORD_CACHE_TTL", 10*time.Minute),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	if cfg.JWTSigningKey == "" {
		// Development default - must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	cfg.ManufacturerCredentials = parseCredentials(os.Getenv("MANUFACTURER_CREDENTIALS"))

	return cfg
}

// Validate rejects configurations that would lose data by accident.
func (c Config) Validate() error {
	if c.DatabaseURL == "" && !c.InMemory {
		return errors.New("no DATABASE_URL configured; set one, or set FOODTRUST_IN_MEMORY=true to run non-durable stores for development")
	}
	return nil
}

// parseCredentials parses "id:bcrypt-hash,id2:hash2". Malformed entries are
// skipped rather than failing startup; an empty credential set just means no
// manufacturer can authenticate.
func parseCredentials(raw string) map[string]string {
	creds := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		id, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || id == "" || hash == "" {
			continue
		}
		creds[id] = hash
	}
	return creds
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
