package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT (operator tokens)
	JWTSecret string

	// LLM
	LLMProvider       string // "openrouter" | "gemini"
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIHTTPReferer string
	OpenAIXTitle      string
	GeminiAPIKey      string
	GeminiModel       string
	LLMConcurrentReqs int
	LLMTimeout        time.Duration

	// Chat
	ChatCacheTTL        time.Duration
	ChatRateLimitPerMin int

	// Background jobs
	AlertSweepSchedule string
	WorkerCount        int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "4002"),
		Env:               getEnvOrDefault("ENV", "development"),
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		MigrationsDir:     getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:          mustGetEnv("REDIS_URL"),
		JWTSecret:         mustGetEnv("JWT_SECRET"),
		LLMProvider:       getEnvOrDefault("LLM_PROVIDER", "openrouter"),
		OpenAIAPIKey:      getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnvOrDefault("OPENAI_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "x-ai/grok-4-fast:free"),
		OpenAIHTTPReferer: getEnvOrDefault("OPENAI_HTTP_REFERER", "https://disaster-managementweb.netlify.app"),
		OpenAIXTitle:      getEnvOrDefault("OPENAI_X_TITLE", "Disaster Management Bot"),
		GeminiAPIKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMConcurrentReqs: getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		LLMTimeout:        getEnvAsDurationOrDefault("LLM_TIMEOUT", 20*time.Second),

		ChatCacheTTL:        getEnvAsDurationOrDefault("CHAT_CACHE_TTL", 10*time.Minute),
		ChatRateLimitPerMin: getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MIN", 30),

		AlertSweepSchedule: getEnvOrDefault("ALERT_SWEEP_SCHEDULE", "@every 5m"),
		WorkerCount:        getEnvAsIntOrDefault("WORKER_COUNT", 2),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "*"),
	}

	return cfg
}

// LoadJWTSecret is used by CLI commands that only need to mint tokens.
func LoadJWTSecret() string {
	godotenv.Load()
	return mustGetEnv("JWT_SECRET")
}

// LoadDatabaseURL is used by the migrate and seed commands.
func LoadDatabaseURL() (string, string) {
	godotenv.Load()
	return mustGetEnv("DATABASE_URL"), getEnvOrDefault("MIGRATIONS_DIR", "migrations")
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
