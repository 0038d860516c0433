package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server-wide configuration, loaded from an optional YAML file
// with LIVEBOARD_* environment overrides applied on top.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Database  DatabaseConfig  `yaml:"database"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	BufferSize   int           `yaml:"buffer_size"`
}

type DatabaseConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns settings suitable for a single-classroom deployment.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			BufferSize:   100,
		},
		Database: DatabaseConfig{
			Path:    "./liveboard.db",
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads configuration from path (optional, "" skips the file), then
// applies environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with LIVEBOARD_* variables where set.
func (c *Config) applyEnv() {
	if v := os.Getenv("LIVEBOARD_HTTP_HOST"); v != "" {
		c.HTTP.Host = v
	}
	if v := os.Getenv("LIVEBOARD_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
	if v := os.Getenv("LIVEBOARD_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LIVEBOARD_WS_BUFFER_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			c.WebSocket.BufferSize = size
		}
	}
}

// Validate rejects configurations that cannot serve.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("http read timeout must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http write timeout must be positive")
	}
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("websocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket read timeout must exceed ping interval")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("websocket buffer size must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}
	return nil
}
