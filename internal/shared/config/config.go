package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the orchestrator
type Config struct {
	// Server
	Port string
	Env  string

	// Stores
	DatabaseURL string
	RedisURL    string

	// Provider API Keys (either may be empty; the engine degrades to
	// single-provider or no-provider mode)
	OpenAIAPIKey string
	GeminiAPIKey string

	// Default models per provider
	OpenAIModel string
	GeminiModel string

	// Rate limiting
	RateLimitPerMinute int

	// Retry policy
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Per-attempt HTTP timeout for provider calls
	ProviderTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		RetryMaxAttempts:   getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:     time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		ProviderTimeout:    time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	// Missing provider keys and a missing DATABASE_URL are deliberate
	// degraded modes, not load errors: the engine reports a descriptive
	// failure per call and the audit logger falls back to diagnostics.
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
