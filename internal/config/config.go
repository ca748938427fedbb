package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	State       StateConfig       `yaml:"state"`
	Tailscale   TailscaleConfig   `yaml:"tailscale"`
	Suggestions SuggestionsConfig `yaml:"suggestions"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// StateConfig locates the local SQLite database holding in-progress
// workout state.
type StateConfig struct {
	Dir string `yaml:"dir"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// SuggestionsConfig tunes the last-performed query layer. Zero values fall
// back to the resolver defaults.
type SuggestionsConfig struct {
	TimeoutMS     int `yaml:"timeout_ms"`
	MaxRetries    int `yaml:"max_retries"`
	MaxConcurrent int `yaml:"max_concurrent"`
	HistoryLimit  int `yaml:"history_limit"`
}

// Timeout returns the per-attempt query timeout, or zero if unset.
func (s SuggestionsConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix REDJITSU_ and underscore-separated paths:
//
//	REDJITSU_SERVER_HOST, REDJITSU_SERVER_PORT,
//	REDJITSU_DB_HOST, REDJITSU_DB_PORT, REDJITSU_DB_NAME,
//	REDJITSU_DB_USER, REDJITSU_DB_PASSWORD, REDJITSU_DB_SSLMODE,
//	REDJITSU_AUTH_API_KEY, REDJITSU_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDJITSU_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REDJITSU_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDJITSU_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REDJITSU_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REDJITSU_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REDJITSU_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REDJITSU_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDJITSU_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REDJITSU_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REDJITSU_STATE_DIR"); v != "" {
		cfg.State.Dir = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.State.Dir == "" {
		c.State.Dir = "."
	}
	return nil
}
