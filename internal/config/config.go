package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	DBDriver string
	DBDSN    string

	// empty RedisAddr disables the hot cache tier
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AdminJWTSecret string
	RulesFile      string

	// AI provider
	AIProvider        string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ResearchModel     string
	AdaptModel        string
	FallbackModel     string
	GeminiAPIKey      string
	GeminiBaseURL     string
	OllamaBaseURL     string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterSiteURL string
	OpenRouterAppName string

	// rabbitMQ; empty RabbitURL disables research jobs
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int
	WorkerMaxAttempts int
	WorkerRetryDelay  time.Duration
}

func Load() Config {
	driver := strings.ToLower(env("DB_DRIVER", "sqlite"))
	// DSN demo (mysql):
	// app:apppass@tcp(127.0.0.1:3306)/tone?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" && driver == "sqlite" {
		dsn = "file:tone.db?_pragma=busy_timeout(5000)"
	}

	provider := strings.ToLower(env("AI_PROVIDER", "openai"))

	return Config{
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second),
		LogLevel:       env("LOG_LEVEL", "info"),
		LogFormat:      env("LOG_FORMAT", "json"),

		DBDriver: driver,
		DBDSN:    dsn,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		CacheTTL:      envDuration("CACHE_TTL", 24*time.Hour),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		RulesFile:      os.Getenv("RULES_FILE"),

		AIProvider:        provider,
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		ResearchModel:     modelFor(provider, "OPENAI_MODEL_RESEARCH"),
		AdaptModel:        modelFor(provider, "OPENAI_MODEL_ADAPT"),
		FallbackModel:     fallbackModel(provider),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		OllamaBaseURL:     env("OLLAMA_BASE_URL", "http://localhost:11434"),
		OpenRouterBaseURL: env("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       env("RABBIT_QUEUE", "research_jobs"),
		WorkerConcurrency: min(max(envInt("WORKER_CONCURRENCY", 4), 1), 50),
		WorkerMaxAttempts: envInt("WORKER_MAX_ATTEMPTS", 3),
		WorkerRetryDelay:  envDuration("WORKER_RETRY_DELAY", 10*time.Second),
	}
}

// modelFor reads the OpenAI-named model variable; other providers get their
// own *_MODEL variable as a fallback so one env file can switch providers.
func modelFor(provider, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	switch provider {
	case "ollama":
		return os.Getenv("OLLAMA_MODEL")
	case "openrouter":
		return os.Getenv("OPENROUTER_MODEL")
	case "gemini":
		return os.Getenv("GEMINI_MODEL")
	}
	return ""
}

func fallbackModel(provider string) string {
	if v := os.Getenv("OPENAI_MODEL_FALLBACK"); v != "" {
		return v
	}
	switch provider {
	case "ollama":
		return env("OLLAMA_MODEL", "llama3:latest")
	case "openrouter":
		return env("OPENROUTER_MODEL", "openrouter/auto")
	case "gemini":
		return env("GEMINI_MODEL", "gemini-2.5-flash")
	}
	return "gpt-4o"
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
