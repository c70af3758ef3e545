package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the NGSI bridge.
// All configuration is loaded from YAML and can be overridden by
// NGSIBRIDGE_* environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	NGSI     NGSIConfig     `yaml:"ngsi"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings for the north port
// (the side the context broker talks to).
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	TLS      TLSConfig           `yaml:"tls"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`

	// MaxBodyBytes limits the size of inbound request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// NGSIConfig contains protocol settings.
//
// A single process serves exactly one dialect; the dialect selects which
// route set and payload shapes the context server exposes.
type NGSIConfig struct {
	// Dialect is the wire dialect to serve: "v1" or "v2".
	Dialect string `yaml:"dialect"`

	// DefaultType is used when a v2 update addresses a device by entity
	// id only and the device record carries no type of its own.
	DefaultType string `yaml:"default_type"`

	// DeviceListLimit caps the fan-out of a type-only v2 query.
	DeviceListLimit int `yaml:"device_list_limit"`
}

// DatabaseConfig contains SQLite database settings for the device
// directory and the command queue.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// QueueConfig contains command queue settings.
type QueueConfig struct {
	// MaxPerDevice caps pending commands per device; 0 means unlimited.
	MaxPerDevice int `yaml:"max_per_device"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Supported NGSI dialects.
const (
	DialectV1 = "v1"
	DialectV2 = "v2"
)

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern NGSIBRIDGE_SECTION_KEY,
// for example NGSIBRIDGE_DATABASE_PATH or NGSIBRIDGE_SERVER_PORT.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 4041,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			MaxBodyBytes: 1 << 20,
		},
		NGSI: NGSIConfig{
			Dialect:         DialectV2,
			DefaultType:     "Thing",
			DeviceListLimit: 1000,
		},
		Database: DatabaseConfig{
			Path:        "./data/ngsi-bridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies NGSIBRIDGE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NGSIBRIDGE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("NGSIBRIDGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NGSIBRIDGE_NGSI_DIALECT"); v != "" {
		cfg.NGSI.Dialect = v
	}
	if v := os.Getenv("NGSIBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("NGSIBRIDGE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch c.NGSI.Dialect {
	case DialectV1, DialectV2:
	default:
		errs = append(errs, fmt.Sprintf("ngsi.dialect must be %q or %q", DialectV1, DialectV2))
	}

	if c.NGSI.DeviceListLimit < 1 {
		errs = append(errs, "ngsi.device_list_limit must be at least 1")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			errs = append(errs, "server.tls.cert_file and server.tls.key_file are required when TLS is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout returns the server read timeout as a Duration.
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout returns the server write timeout as a Duration.
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout returns the server idle timeout as a Duration.
func (c *ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
