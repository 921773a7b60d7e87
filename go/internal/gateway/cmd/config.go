package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the gateway's file-based configuration. Connection secrets
// come from the environment; tunables live here.
type Config struct {
	Gateway struct {
		Port           string        `yaml:"port"`
		SessionTTL     time.Duration `yaml:"session_ttl"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"gateway"`
	Events struct {
		StreamName    string        `yaml:"stream_name"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		MaxAge        time.Duration `yaml:"max_age"`
	} `yaml:"events"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Gateway.Port = "8081"
	cfg.Gateway.SessionTTL = 12 * time.Hour
	cfg.Events.StreamName = "AUCTION_EVENTS"
	cfg.Events.SubjectPrefix = "auction.events"
	cfg.Events.MaxAge = 24 * time.Hour
	return &cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
