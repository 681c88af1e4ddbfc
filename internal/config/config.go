// Package config loads and holds the Session Manager's application
// configuration: server bind settings, database selection, and the session
// subsystem's tunables (idle timeout, activity sweep interval, token TTL).
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Sessions SessionsConfig `yaml:"sessions" json:"sessions"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"VIEWRA_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" json:"port" env:"VIEWRA_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"VIEWRA_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"VIEWRA_WRITE_TIMEOUT" default:"30s"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"VIEWRA_ENABLE_CORS" default:"true"`
}

// DatabaseConfig selects and configures the gorm-backed persistence layer.
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	DataDir      string `yaml:"data_dir" json:"data_dir" env:"VIEWRA_DATA_DIR" default:"/app/viewra-data"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"VIEWRA_DATABASE_PATH"`
	URL          string `yaml:"url" json:"url" env:"DATABASE_URL"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
}

// SessionsConfig holds the session manager's behavioral tunables.
type SessionsConfig struct {
	// IdleTimeout is how long a playing session may go without a real
	// (non-automated) playback check-in before the idle sweeper synthesizes
	// a stop for it.
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout" env:"VIEWRA_SESSION_IDLE_TIMEOUT" default:"5m"`
	// SweepInterval is how often the idle sweeper scans active sessions.
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval" env:"VIEWRA_SESSION_SWEEP_INTERVAL" default:"5m"`
	// AutoProgressInterval is how often a playing session's current play
	// state is replayed as an automated progress report between
	// client-reported progress updates; the position is not advanced.
	AutoProgressInterval time.Duration `yaml:"auto_progress_interval" json:"auto_progress_interval" env:"VIEWRA_SESSION_AUTO_PROGRESS_INTERVAL" default:"10s"`
	// TokenTTL is loaded and overridable like the other fields, but the
	// session core does not read it: tokens stay active until Logout or
	// RevokeUserTokens deactivates them, whatever their age.
	TokenTTL time.Duration `yaml:"token_ttl" json:"token_ttl" env:"VIEWRA_SESSION_TOKEN_TTL" default:"168h"`
}

// LoggingConfig controls the structured logger's verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"VIEWRA_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"VIEWRA_LOG_FORMAT" default:"text"`
}

// DefaultConfig returns a configuration with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type:         "sqlite",
			DataDir:      "/app/viewra-data",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Sessions: SessionsConfig{
			IdleTimeout:          5 * time.Minute,
			SweepInterval:        5 * time.Minute,
			AutoProgressInterval: 10 * time.Second,
			TokenTTL:             168 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return &ValidationError{Field: "database.type", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.Sessions.IdleTimeout <= 0 {
		return &ValidationError{Field: "sessions.idle_timeout", Message: "must be positive"}
	}
	if c.Sessions.SweepInterval <= 0 {
		return &ValidationError{Field: "sessions.sweep_interval", Message: "must be positive"}
	}
	if c.Sessions.AutoProgressInterval <= 0 {
		return &ValidationError{Field: "sessions.auto_progress_interval", Message: "must be positive"}
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
}

type manager struct {
	mu     sync.RWMutex
	config *Config
}

var (
	global     *manager
	globalOnce sync.Once
)

func getManager() *manager {
	globalOnce.Do(func() {
		global = &manager{config: DefaultConfig()}
	})
	return global
}

// Load reads configuration from the YAML file at path (if it exists),
// applies environment variable overrides, validates the result, and
// installs it as the global configuration. An empty or missing path is not
// an error; defaults (plus env overrides) apply.
func Load(path string) error {
	m := getManager()
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := DefaultConfig()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.Database.DatabasePath == "" && cfg.Database.Type == "sqlite" {
		cfg.Database.DatabasePath = cfg.Database.DataDir + "/viewra.db"
	}

	m.config = cfg
	return nil
}

// Get returns the current global configuration.
func Get() *Config {
	m := getManager()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VIEWRA_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VIEWRA_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("VIEWRA_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("VIEWRA_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("VIEWRA_DATA_DIR"); v != "" {
		cfg.Database.DataDir = v
	}
	if v := os.Getenv("VIEWRA_DATABASE_PATH"); v != "" {
		cfg.Database.DatabasePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("VIEWRA_SESSION_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.IdleTimeout = d
		}
	}
	if v := os.Getenv("VIEWRA_SESSION_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.SweepInterval = d
		}
	}
	if v := os.Getenv("VIEWRA_SESSION_AUTO_PROGRESS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.AutoProgressInterval = d
		}
	}
	if v := os.Getenv("VIEWRA_SESSION_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TokenTTL = d
		}
	}
	if v := os.Getenv("VIEWRA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VIEWRA_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
