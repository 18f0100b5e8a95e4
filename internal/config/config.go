package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	API    APIConfig
	Auth   AuthConfig
	Site   SiteConfig
	Feed   FeedConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// APIConfig holds remote posts API settings
type APIConfig struct {
	BaseURL   string
	AssetBase string
	Timeout   time.Duration
}

// AuthConfig holds credential storage settings
type AuthConfig struct {
	TokenFile string
}

// SiteConfig holds public-facing site settings
type SiteConfig struct {
	BaseURL string
}

// FeedConfig holds listing snapshot settings
type FeedConfig struct {
	Revalidate time.Duration
	PageSize   int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		API: APIConfig{
			BaseURL:   getEnv("API_BASE_URL", "https://blogbackend.example.com/api"),
			AssetBase: getEnv("API_ASSET_BASE", ""),
			Timeout:   getDurationEnv("API_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			TokenFile: getEnv("AUTH_TOKEN_FILE", "./data/session-token"),
		},
		Site: SiteConfig{
			BaseURL: getEnv("SITE_BASE_URL", "http://localhost:8080"),
		},
		Feed: FeedConfig{
			Revalidate: getDurationEnv("FEED_REVALIDATE", 60*time.Second),
			PageSize:   getIntEnv("FEED_PAGE_SIZE", 9),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("FEED_PAGE_SIZE must be positive")
	}
	// Relative links in post bodies resolve against the API origin unless an
	// asset host is configured explicitly.
	if c.API.AssetBase == "" {
		c.API.AssetBase = strings.TrimSuffix(c.API.BaseURL, "/api")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
