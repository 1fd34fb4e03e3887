package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfigFromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10*time.Second, cfg.OrchestratorTimeout)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, 5.0, cfg.ProxyRateLimit)
	assert.Equal(t, 10, cfg.ProxyRateBurst)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ADMIN_CONSOLE_PORT", "9090")
	t.Setenv("SESSION_SECRET", "super-secret")
	t.Setenv("SESSION_ACCESS_TTL_MINUTES", "30")
	t.Setenv("ORCHESTRATOR_BASE_URL", "https://orchestrator.internal")
	t.Setenv("ORCHESTRATOR_TIMEOUT_SECONDS", "3")
	t.Setenv("PROXY_RATE_LIMIT_RPS", "2.5")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "super-secret", cfg.SessionSecret)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "https://orchestrator.internal", cfg.OrchestratorBaseURL)
	assert.Equal(t, 3*time.Second, cfg.OrchestratorTimeout)
	assert.Equal(t, 2.5, cfg.ProxyRateLimit)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "not-a-number")
	t.Setenv("TEST_FLOAT", "0.75")

	assert.Equal(t, "value", GetEnvOrDefault("TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("TEST_MISSING", "fallback"))

	assert.Equal(t, 42, GetEnvIntOrDefault("TEST_INT", 7))
	assert.Equal(t, 7, GetEnvIntOrDefault("TEST_BAD_INT", 7))
	assert.Equal(t, 7, GetEnvIntOrDefault("TEST_MISSING", 7))

	assert.Equal(t, 0.75, GetEnvFloatOrDefault("TEST_FLOAT", 0.5))
	assert.Equal(t, 0.5, GetEnvFloatOrDefault("TEST_MISSING", 0.5))
}
