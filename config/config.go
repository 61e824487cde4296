package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported output sink names
const (
	SinkJSONL  = "jsonl"
	SinkRedis  = "redis"
	SinkSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	// Target site
	AppBaseURL string

	// Catalog
	CatalogPath   string
	CatalogColumn string

	// Crawl driver
	MaxInFlight    int
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	RateLimitBlock time.Duration

	// Memcache configuration (empty disables the rate-limit block cache)
	MemcacheAddr string

	// Output sinks
	OutputSinks []string
	OutputPath  string
	SQLitePath  string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	FailureLogPath string

	// Environment
	Environment string

	parseErrs []error
}

// LoadConfig loads the configuration from environment variables with defaults.
// Unparsable numbers fall back to their default and are reported by Validate.
func LoadConfig() *Config {
	var parseErrs []error
	redisDB := getEnvInt("REDIS_DB", 0, &parseErrs)
	redisStreamMaxLength := getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000, &parseErrs)
	maxInFlight := getEnvInt("MAX_IN_FLIGHT", 8, &parseErrs)
	requestDelay := getEnvInt("REQUEST_DELAY_MS", 500, &parseErrs)
	requestTimeout := getEnvInt("REQUEST_TIMEOUT_SECONDS", 30, &parseErrs)
	maxRetries := getEnvInt("MAX_RETRIES", 0, &parseErrs)
	blockSeconds := getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300, &parseErrs)

	return &Config{
		AppBaseURL:           getEnv("STEAM_APP_BASE_URL", "https://store.steampowered.com/app/"),
		CatalogPath:          getEnv("CATALOG_PATH", "steam_ids.csv"),
		CatalogColumn:        getEnv("CATALOG_COLUMN", "steam_appid"),
		MaxInFlight:          maxInFlight,
		RequestDelay:         time.Duration(requestDelay) * time.Millisecond,
		RequestTimeout:       time.Duration(requestTimeout) * time.Second,
		MaxRetries:           maxRetries,
		RateLimitBlock:       time.Duration(blockSeconds) * time.Second,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		OutputSinks:          ParseSinks(getEnv("OUTPUT_SINKS", SinkJSONL)),
		OutputPath:           getEnv("OUTPUT_PATH", "games.jsonl"),
		SQLitePath:           getEnv("SQLITE_PATH", "games.db"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "steam_games"),
		RedisStreamMaxLength: redisStreamMaxLength,
		FailureLogPath:       getEnv("FAILURE_LOG_PATH", "failed_urls.list"),
		Environment:          getEnv("CRAWLER_ENVIRONMENT", "development"),
		parseErrs:            parseErrs,
	}
}

// ParseSinks splits a comma separated sink list, dropping blanks
func ParseSinks(raw string) []string {
	var sinks []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			sinks = append(sinks, part)
		}
	}
	return sinks
}

// Validate checks the configuration for values the crawl driver cannot run with
func (c *Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return errors.Join(c.parseErrs...)
	}
	if c.AppBaseURL == "" {
		return fmt.Errorf("STEAM_APP_BASE_URL must not be empty")
	}
	if c.CatalogPath == "" || c.CatalogColumn == "" {
		return fmt.Errorf("catalog path and column must be set")
	}
	if c.MaxInFlight <= 0 {
		return fmt.Errorf("MAX_IN_FLIGHT must be positive, got %d", c.MaxInFlight)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestDelay < 0 || c.MaxRetries < 0 {
		return fmt.Errorf("REQUEST_DELAY_MS and MAX_RETRIES must not be negative")
	}
	if len(c.OutputSinks) == 0 {
		return fmt.Errorf("at least one output sink is required")
	}
	for _, sink := range c.OutputSinks {
		switch sink {
		case SinkJSONL:
			if c.OutputPath == "" {
				return fmt.Errorf("OUTPUT_PATH is required for the jsonl sink")
			}
		case SinkSQLite:
			if c.SQLitePath == "" {
				return fmt.Errorf("SQLITE_PATH is required for the sqlite sink")
			}
		case SinkRedis:
			if c.RedisAddr == "" || c.RedisStream == "" {
				return fmt.Errorf("REDIS_ADDR and REDIS_STREAM are required for the redis sink")
			}
		default:
			return fmt.Errorf("unknown output sink %q", sink)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt parses an integer variable, recording a parse error instead of
// silently falling back to zero
func getEnvInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer, got %q", key, raw))
		return defaultValue
	}
	return value
}
