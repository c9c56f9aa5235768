// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ModelConfig selects the upstream model for one chat companion. Each
// companion has its own configuration so the two can evolve independently.
type ModelConfig struct {
	Model       string
	Temperature float32
}

// Config holds all application configuration.
type Config struct {
	Port        string
	DBPath      string
	FrontendURL string

	// Upstream chat-completion endpoint (OpenAI-compatible).
	APIKey          string
	BaseURL         string
	UpstreamTimeout time.Duration

	Coexist ModelConfig
	Sprite  ModelConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	apiKey := getEnv("DEEPSEEK_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("OPENAI_API_KEY", "")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/echo.db"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		APIKey:          apiKey,
		BaseURL:         getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 120)) * time.Second,
		Coexist: ModelConfig{
			Model:       getEnv("COEXIST_MODEL", "deepseek-chat"),
			Temperature: getEnvFloat("COEXIST_TEMPERATURE", 0.8),
		},
		Sprite: ModelConfig{
			Model:       getEnv("SPRITE_MODEL", "deepseek-chat"),
			Temperature: getEnvFloat("SPRITE_TEMPERATURE", 0.7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("DEEPSEEK_BASE_URL cannot be empty")
	}
	if c.Coexist.Model == "" || c.Sprite.Model == "" {
		return fmt.Errorf("model names cannot be empty")
	}
	if c.Coexist.Temperature < 0 || c.Coexist.Temperature > 2 {
		return fmt.Errorf("COEXIST_TEMPERATURE must be between 0 and 2")
	}
	if c.Sprite.Temperature < 0 || c.Sprite.Temperature > 2 {
		return fmt.Errorf("SPRITE_TEMPERATURE must be between 0 and 2")
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS cannot be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float32) float32 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}
