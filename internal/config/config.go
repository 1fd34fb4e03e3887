package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the admin console configuration loaded from environment
// variables. The .env file is loaded in main.go for local development.
type Config struct {
	Port string

	// Auth
	SessionSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Orchestrator (Admin API + Text Chat API)
	OrchestratorBaseURL string
	OrchestratorKeyID   string
	OrchestratorSecret  string
	OrchestratorTimeout time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Proxy rate limiting (requests per second per client, with burst)
	ProxyRateLimit float64
	ProxyRateBurst int
}

// LoadConfigFromEnv loads the console configuration from environment variables.
func LoadConfigFromEnv() *Config {
	return &Config{
		Port: GetEnvOrDefault("ADMIN_CONSOLE_PORT", "8080"),

		SessionSecret: GetEnvOrDefault("SESSION_SECRET", ""),
		AccessTTL:     time.Duration(GetEnvIntOrDefault("SESSION_ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL:    time.Duration(GetEnvIntOrDefault("SESSION_REFRESH_TTL_HOURS", 168)) * time.Hour,

		OrchestratorBaseURL: GetEnvOrDefault("ORCHESTRATOR_BASE_URL", ""),
		OrchestratorKeyID:   GetEnvOrDefault("ORCHESTRATOR_KEY_ID", ""),
		OrchestratorSecret:  GetEnvOrDefault("ORCHESTRATOR_SECRET", ""),
		OrchestratorTimeout: time.Duration(GetEnvIntOrDefault("ORCHESTRATOR_TIMEOUT_SECONDS", 10)) * time.Second,

		RedisHost:     GetEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvIntOrDefault("REDIS_DB", 0),

		ProxyRateLimit: GetEnvFloatOrDefault("PROXY_RATE_LIMIT_RPS", 5),
		ProxyRateBurst: GetEnvIntOrDefault("PROXY_RATE_BURST", 10),
	}
}

// GetEnvOrDefault gets environment variable or returns default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntOrDefault gets environment variable as int or returns default
func GetEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloatOrDefault gets environment variable as float64 or returns default
func GetEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
