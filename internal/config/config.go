package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// LLMProviderConfig describes one configured LLM backend for the GRM judge.
type LLMProviderConfig struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // anthropic | openai | heuristic
	URL         string `json:"url"`
	APIKey      string `json:"api_key"`
	Model       string `json:"model"`
	TimeoutSecs int    `json:"timeout_seconds"`
}

// EngineConfig carries the scoring-engine-level defaults applied when a
// run's config doesn't override them.
type EngineConfig struct {
	DefaultExamVersion   string  `json:"default_exam_version"`
	GRMMaxConcurrent     int     `json:"grm_max_concurrent"`
	GRMRetries           int     `json:"grm_retries"`
	GRMTimeoutSeconds    int     `json:"grm_timeout_seconds"`
	DefaultItemsPerAxis  int     `json:"default_items_per_axis"`
	DefaultTargetSE      float64 `json:"default_target_se"`
}

// RateLimitConfig tunes the Redis-backed submit_response limiter.
type RateLimitConfig struct {
	Enabled       bool `json:"enabled"`
	RequestsPerMin int  `json:"requests_per_minute"`
	BurstSize      int  `json:"burst_size"`
}

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Qdrant struct {
		Addr       string `json:"addr"`
		Collection string `json:"collection"`
		APIKey     string `json:"api_key"`
	} `json:"qdrant"`
	LLMProviders []LLMProviderConfig `json:"llm_providers"`
	Engine       EngineConfig        `json:"engine"`
	RateLimit    RateLimitConfig     `json:"rate_limit"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton).
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}

		applyDefaults(&c)
		cfg = &c
	})
	return cfg, cfgErr
}

func applyDefaults(c *Config) {
	if c.Engine.DefaultExamVersion == "" {
		c.Engine.DefaultExamVersion = "v2"
	}
	if c.Engine.GRMMaxConcurrent == 0 {
		c.Engine.GRMMaxConcurrent = 5
	}
	if c.Engine.GRMRetries == 0 {
		c.Engine.GRMRetries = 2
	}
	if c.Engine.GRMTimeoutSeconds == 0 {
		c.Engine.GRMTimeoutSeconds = 15
	}
	if c.Engine.DefaultItemsPerAxis == 0 {
		c.Engine.DefaultItemsPerAxis = 15
	}
	if c.Engine.DefaultTargetSE == 0 {
		c.Engine.DefaultTargetSE = 0.06
	}
	if c.RateLimit.RequestsPerMin == 0 {
		c.RateLimit.RequestsPerMin = 60
	}
	if c.RateLimit.BurstSize == 0 {
		c.RateLimit.BurstSize = 10
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "mse_profiles"
	}
}

// GetConfig returns the loaded config (must call LoadConfig first).
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only).
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
