package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/imelnik/fintrack/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
// Nothing in the engine or cache reads ambient state; everything flows
// through this struct.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Data store
	DBPath string

	// Cache
	CacheTTL   time.Duration
	CacheSweep time.Duration

	// Connection bootstrap
	MaxRetries     int
	InitialBackoff time.Duration

	// Observability
	OTLPEndpoint string

	// Plan ingestion: uploaded category names → categories.
	// Extra aliases come from PLAN_CATEGORY_ALIASES, e.g.
	// "выдача=issuance,сбор=collection".
	CategoryAliases map[string]domain.PlanCategory
}

// Load reads configuration from environment variables with defaults.
// A .env file, if present, is loaded first (env takes precedence).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBPath: getEnv("DB_PATH", "data/fintrack.db"),

		CacheTTL:   getEnvDuration("CACHE_TTL", time.Hour),
		CacheSweep: getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		CategoryAliases: loadCategoryAliases(getEnv("PLAN_CATEGORY_ALIASES", "")),
	}
}

// loadCategoryAliases builds the category mapping from the defaults plus
// a comma-separated list of alias=category pairs. Unknown categories in
// the list are ignored.
func loadCategoryAliases(raw string) map[string]domain.PlanCategory {
	aliases := domain.DefaultCategoryAliases()
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		alias := strings.ToLower(strings.TrimSpace(parts[0]))
		if alias == "" {
			continue
		}
		if c, ok := aliases[strings.ToLower(strings.TrimSpace(parts[1]))]; ok {
			aliases[alias] = c
		}
	}
	return aliases
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
