package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefaults(t *testing.T) {
	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Cache.Backend)
	assert.Equal(t, 720*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 100*time.Millisecond, cfg.Enrichment.Delay)
	assert.Equal(t, 90*time.Second, cfg.LLM.AttemptTimeout)
	assert.NotEmpty(t, cfg.LLM.Models)
	assert.Equal(t, 8*time.Second, cfg.Providers.Google.Timeout)
	assert.EqualValues(t, 4, cfg.Providers.Foursquare.MaxConcurrent)
	assert.Equal(t, "9090", cfg.Handlers.Prometheus.Port)
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Setenv("APP_LLM_APIKEY", "sk-test")
	t.Setenv("APP_PROVIDERS_GOOGLE_APIKEY", "g-test")
	t.Setenv("APP_CACHE_BACKEND", "redis")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "g-test", cfg.Providers.Google.APIKey)
	assert.Equal(t, "redis", cfg.Cache.Backend)
}
