package config

import (
	"os"
	"strconv"
	"time"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/service"
	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	HTTPPort              int
	GRPCPort              int
	GRPCReflectionEnabled bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RedisKeyPrefix        string
	CacheTTL              time.Duration
	MinSessions           int64
	LeaderboardSize       int
	AggregationEngine     string
	SQLiteDSN             string
	MaxUploadBytes        int64
}

// LoadFromEnv loads configuration from environment variables. Values that
// do not parse, or are out of range, fall back to their defaults.
func LoadFromEnv() *Config {
	engine := getEnv("AGGREGATION_ENGINE", service.EngineMemory)
	if engine != service.EngineMemory && engine != service.EngineSQLite {
		engine = service.EngineMemory
	}

	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		HTTPPort:              getEnvInt("HTTP_PORT", 8080, 1, 65535),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051, 1, 65535),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvInt("REDIS_DB", 0, 0, 15),
		RedisKeyPrefix:        getEnv("REDIS_KEY_PREFIX", "campaign-analyzer:"),
		CacheTTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
		MinSessions:           int64(getEnvInt("MIN_SESSIONS", 0, 0, 1<<31-1)),
		LeaderboardSize:       getEnvInt("LEADERBOARD_SIZE", campaign.DefaultLeaderboardSize, 1, 1000),
		AggregationEngine:     engine,
		SQLiteDSN:             getEnv("SQLITE_DSN", service.DefaultSQLiteDSN),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", 32<<20, 1, 1<<31-1)),
	}
}

// Options are the pipeline defaults for requests that do not set their own.
func (c *Config) Options() campaign.Options {
	return campaign.Options{
		MinSessions:     c.MinSessions,
		LeaderboardSize: c.LeaderboardSize,
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback, lo, hi int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < lo || n > hi {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
