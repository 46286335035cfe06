package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/klarsyn/viewstat/internal/logging"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	ListenAddr          string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RedisPoolSize       int
	SigningSecret       string
	SigningMaxSkew      time.Duration
	VisitorSetCap       int
	RetentionDays       int
	LogLevel            logging.Level
	RateLimitPerMinute  int
	MaxRequestBodyBytes int64
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8406"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisPoolSize:       getEnvInt("REDIS_POOL_SIZE", 10),
		SigningSecret:       os.Getenv("SIGNING_SECRET"),
		SigningMaxSkew:      getEnvDuration("SIGNING_MAX_SKEW", 5*time.Minute),
		VisitorSetCap:       getEnvInt("VISITOR_SET_CAP", 10000),
		RetentionDays:       getEnvInt("RETENTION_DAYS", 400),
		LogLevel:            logging.ParseLevel(getEnv("LOG_LEVEL", "INFO")),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
		MaxRequestBodyBytes: getEnvInt64("MAX_REQUEST_BODY_BYTES", 64<<10), // 64KB default
	}
}

// TrackingConfigured reports whether a key-value store is provisioned.
// When false, both the write and read paths run in the soft-disabled state.
func (c Config) TrackingConfigured() bool {
	return c.RedisAddr != ""
}

// Retention returns the expiry applied to bucketed counters and visitor sets.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid int environment variable", "key", key, "value", val, "error", err)
		return def
	}
	return parsed
}

func getEnvInt64(key string, def int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		slog.Warn("invalid int64 environment variable", "key", key, "value", val, "error", err)
		return def
	}
	return parsed
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration environment variable", "key", key, "value", val, "error", err)
		return def
	}
	return parsed
}
