// Package config provides configuration management for the bibliometrics service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bibliometrics service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains document-store connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Engine contains aggregation-engine settings.
	Engine EngineConfig `mapstructure:"engine"`
	// Plots contains analytics/plot engine settings.
	Plots PlotsConfig `mapstructure:"plots"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum duration to keep idle connections open.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds document-store connection configuration.
type DatabaseConfig struct {
	// URI is the MongoDB connection string. Credentials belong in the
	// QUYCA_DATABASE_URI environment variable, never in config files.
	URI string `mapstructure:"-"`
	// Host is the store hostname, used when URI is not set.
	Host string `mapstructure:"host"`
	// Port is the store port (default: 27017).
	Port int `mapstructure:"port"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// MaxPoolSize is the maximum number of pooled connections.
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	// MinPoolSize is the minimum number of pooled connections.
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// QueryRateLimit is the sustained store queries per second allowed across
	// request fan-out. Zero disables the limiter.
	QueryRateLimit float64 `mapstructure:"query_rate_limit"`
	// QueryRateBurst is the limiter burst size.
	QueryRateBurst int `mapstructure:"query_rate_burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// EngineConfig holds aggregation-engine settings.
type EngineConfig struct {
	// FanOutLimit bounds concurrent store reads issued for one request.
	FanOutLimit int `mapstructure:"fan_out_limit"`
}

// PlotsConfig holds analytics/plot engine settings.
type PlotsConfig struct {
	// WorldMapPath overrides the embedded world base map when set.
	WorldMapPath string `mapstructure:"world_map_path"`
	// ColombiaMapPath overrides the embedded Colombian-departments base map
	// when set.
	ColombiaMapPath string `mapstructure:"colombia_map_path"`
	// NetworkNodeLimit is the maximum number of nodes kept in co-authorship
	// networks.
	NetworkNodeLimit int `mapstructure:"network_node_limit"`
}

// URIOrDefault returns the configured connection string, building one from
// host and port when no explicit URI was provided.
func (c *DatabaseConfig) URIOrDefault() string {
	if c.URI != "" {
		return c.URI
	}
	return fmt.Sprintf("mongodb://%s:%d", c.Host, c.Port)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("QUYCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/quyca")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The connection string may carry credentials, so it is loaded
	// exclusively from the environment (mapstructure:"-").
	cfg.Database.URI = v.GetString("database.uri")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 27017)
	v.SetDefault("database.name", "quyca")
	v.SetDefault("database.max_pool_size", 50)
	v.SetDefault("database.min_pool_size", 5)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.query_rate_limit", 0.0)
	v.SetDefault("database.query_rate_burst", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Engine defaults
	v.SetDefault("engine.fan_out_limit", 8)

	// Plots defaults
	v.SetDefault("plots.world_map_path", "")
	v.SetDefault("plots.colombia_map_path", "")
	v.SetDefault("plots.network_node_limit", 50)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.URI == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxPoolSize < c.Database.MinPoolSize {
		return fmt.Errorf("max_pool_size (%d) must be >= min_pool_size (%d)",
			c.Database.MaxPoolSize, c.Database.MinPoolSize)
	}
	if c.Database.QueryRateLimit < 0 {
		return fmt.Errorf("query_rate_limit must not be negative")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Engine.FanOutLimit <= 0 {
		return fmt.Errorf("engine fan_out_limit must be positive")
	}
	if c.Plots.NetworkNodeLimit <= 0 {
		return fmt.Errorf("plots network_node_limit must be positive")
	}

	return nil
}
