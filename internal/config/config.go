package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	Port         string
	GinMode      string
	CORSOrigins  []string

	// Upload validation
	MaxFileSize  int64
	AllowedTypes []string

	// Chunking
	MaxChunkSize int
	MinChunkSize int

	// Pipeline concurrency and failure policy
	MaxConcurrency   int
	FailureThreshold float64
	RequestTimeout   time.Duration

	// Gemini call budget
	GeminiRPM      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	ChunkTimeout   time.Duration

	// HTTP rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Telemetry
	OTLPEndpoint     string
	TelemetryEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		CORSOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"), ","),

		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 50*1024*1024), // 50 MiB
		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf"), ","),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 10000),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 100),

		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 3),
		FailureThreshold: getEnvFloat64("FAILURE_THRESHOLD", 0.5),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 300)) * time.Second,

		GeminiRPM:      getEnvInt("GEMINI_RPM", 10),
		MaxRetries:     getEnvInt("GEMINI_MAX_RETRIES", 3),
		RetryBaseDelay: time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		RetryMaxDelay:  time.Duration(getEnvInt("RETRY_MAX_DELAY_MS", 30000)) * time.Millisecond,
		ChunkTimeout:   time.Duration(getEnvInt("CHUNK_TIMEOUT_SECONDS", 60)) * time.Second,

		RateLimitRPS:   getEnvFloat64("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		OTLPEndpoint:     getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TelemetryEnabled: getEnvBool("TELEMETRY_ENABLED", false),
	}

	// A missing API key is not fatal: the server still starts so the health
	// endpoint can report the misconfiguration.
	if cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 {
		return nil, fmt.Errorf("FAILURE_THRESHOLD must be in (0,1], got %v", cfg.FailureThreshold)
	}

	if cfg.MaxChunkSize <= cfg.MinChunkSize {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE (%d) must exceed MIN_CHUNK_SIZE (%d)", cfg.MaxChunkSize, cfg.MinChunkSize)
	}

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
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
