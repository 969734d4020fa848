package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Session   SessionConfig
	Analysis  AnalysisConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// ProviderConfig holds language-model backend configuration.
type ProviderConfig struct {
	BaseURL     string        `envconfig:"PROVIDER_URL" default:"http://localhost:8001"`
	APIKey      string        `envconfig:"PROVIDER_API_KEY" default:""`
	Model       string        `envconfig:"PROVIDER_MODEL" default:"gpt-4o-mini"`
	Timeout     time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"60s"`
	MaxRequests int           `envconfig:"PROVIDER_MAX_REQUESTS" default:"5"`
	Window      time.Duration `envconfig:"PROVIDER_WINDOW" default:"60s"`
	Temperature float64       `envconfig:"PROVIDER_TEMPERATURE" default:"0.7"`
	MaxTokens   int           `envconfig:"PROVIDER_MAX_TOKENS" default:"1024"`
}

// SessionConfig holds session retention configuration.
type SessionConfig struct {
	Timeout       time.Duration `envconfig:"SESSION_TIMEOUT" default:"30m"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"60s"`
	MaxLogs       int           `envconfig:"SESSION_MAX_LOGS" default:"1000"`
	MaxStates     int           `envconfig:"SESSION_MAX_STATES" default:"50"`
}

// AnalysisConfig holds auto-analysis trigger configuration.
type AnalysisConfig struct {
	Enabled        bool `envconfig:"ANALYSIS_ENABLED" default:"true"`
	ErrorWindow    int  `envconfig:"ANALYSIS_ERROR_WINDOW" default:"5"`
	ErrorThreshold int  `envconfig:"ANALYSIS_ERROR_THRESHOLD" default:"2"`
	ContextLogs    int  `envconfig:"ANALYSIS_CONTEXT_LOGS" default:"20"`
	QueueSize      int  `envconfig:"ANALYSIS_QUEUE_SIZE" default:"64"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds inbound per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Provider: ProviderConfig{
			BaseURL:     "http://localhost:8001",
			Model:       "gpt-4o-mini",
			Timeout:     60 * time.Second,
			MaxRequests: 5,
			Window:      60 * time.Second,
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Session: SessionConfig{
			Timeout:       30 * time.Minute,
			SweepInterval: 60 * time.Second,
			MaxLogs:       1000,
			MaxStates:     50,
		},
		Analysis: AnalysisConfig{
			Enabled:        true,
			ErrorWindow:    5,
			ErrorThreshold: 2,
			ContextLogs:    20,
			QueueSize:      64,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
