package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://store.steampowered.com/app/", config.AppBaseURL)
	assert.Equal(t, "steam_ids.csv", config.CatalogPath)
	assert.Equal(t, "steam_appid", config.CatalogColumn)
	assert.Equal(t, 8, config.MaxInFlight)
	assert.Equal(t, 500*time.Millisecond, config.RequestDelay)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.Equal(t, []string{"jsonl"}, config.OutputSinks)
	assert.Empty(t, config.MemcacheAddr)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("STEAM_APP_BASE_URL", "http://localhost:8080/app/")
	t.Setenv("CATALOG_PATH", "ids.csv")
	t.Setenv("MAX_IN_FLIGHT", "2")
	t.Setenv("REQUEST_DELAY_MS", "0")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("OUTPUT_SINKS", "jsonl, SQLite ,redis")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")

	config = LoadConfig()
	assert.Equal(t, "http://localhost:8080/app/", config.AppBaseURL)
	assert.Equal(t, "ids.csv", config.CatalogPath)
	assert.Equal(t, 2, config.MaxInFlight)
	assert.Equal(t, time.Duration(0), config.RequestDelay)
	assert.Equal(t, 5*time.Second, config.RequestTimeout)
	assert.Equal(t, []string{"jsonl", "sqlite", "redis"}, config.OutputSinks)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero in flight", func(c *Config) { c.MaxInFlight = 0 }, "MAX_IN_FLIGHT"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT_SECONDS"},
		{"no sinks", func(c *Config) { c.OutputSinks = nil }, "output sink"},
		{"unknown sink", func(c *Config) { c.OutputSinks = []string{"kafka"} }, "unknown output sink"},
		{"jsonl without path", func(c *Config) { c.OutputPath = "" }, "OUTPUT_PATH"},
		{"no column", func(c *Config) { c.CatalogColumn = "" }, "catalog"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := LoadConfig()
			tc.mutate(config)
			err := config.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadConfigRejectsBadNumbers(t *testing.T) {
	t.Setenv("REQUEST_DELAY_MS", "abc")
	t.Setenv("MAX_IN_FLIGHT", "many")

	config := LoadConfig()
	assert.Equal(t, 500*time.Millisecond, config.RequestDelay, "politeness delay is never silently disabled")

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `REQUEST_DELAY_MS must be an integer, got "abc"`)
	assert.Contains(t, err.Error(), "MAX_IN_FLIGHT")
}
