// Package models - Service configuration and operational settings.
// This file defines configuration structures for the API server and the
// offline generator.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, data, rate limit, etc.)
// - Defaults reproduce the reference deployment and work out of the box
// - Comprehensive validation to catch misconfigurations early
// - The same file serves both the server and the generator
package models

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Data source type constants
const (
	DataSourceJSON     = "json"
	DataSourceSQLite   = "sqlite"
	DataSourcePostgres = "postgres"
)

// Rate limiter backend constants
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Data: where the validated dataset lives and where the generator reads input
// - RateLimit: token bucket parameters and client identification
// - Logging: Structured logging and output configuration
// - Metrics: Prometheus endpoint
// - Observability: OpenTelemetry tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Data          DataConfig          `yaml:"data" json:"data"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port          int           `yaml:"port" json:"port"`
	Host          string        `yaml:"host" json:"host"`
	ReadTimeout   time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled    bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile   string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile    string        `yaml:"tls_key_file" json:"tls_key_file"`
	PublicBaseURL string        `yaml:"public_base_url" json:"public_base_url"`
	CORS          CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// DataConfig locates the generator inputs and the published snapshot.
type DataConfig struct {
	Source           string `yaml:"source" json:"source"`
	MerchantsDir     string `yaml:"merchants_dir" json:"merchants_dir"`
	MetadataFile     string `yaml:"metadata_file" json:"metadata_file"`
	CategoriesFile   string `yaml:"categories_file" json:"categories_file"`
	CapabilitiesFile string `yaml:"capabilities_file" json:"capabilities_file"`
	DSN              string `yaml:"dsn" json:"dsn"`
}

type RateLimitConfig struct {
	Enabled              bool          `yaml:"enabled" json:"enabled"`
	Backend              string        `yaml:"backend" json:"backend"`
	Capacity             int           `yaml:"capacity" json:"capacity"`
	RefillRate           float64       `yaml:"refill_rate" json:"refill_rate"`
	IdleTimeout          time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	CleanupInterval      time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	ClientHeaders        []string      `yaml:"client_headers" json:"client_headers"`
	FallbackKey          string        `yaml:"fallback_key" json:"fallback_key"`
	FallbackToRemoteAddr bool          `yaml:"fallback_to_remote_addr" json:"fallback_to_remote_addr"`
	Redis                RedisConfig   `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	PoolSize  int    `yaml:"pool_size" json:"pool_size"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: Standard non-privileged HTTP port
// - JSON data source under ./data: the generator's native output
// - Token bucket of 20 refilling at 2/s, swept every minute, idle after 5 minutes
// - Open CORS for GET: the directory is a public read-only API
// - Structured JSON logging to stdout
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         86400,
			},
		},
		Data: DataConfig{
			Source:           DataSourceJSON,
			MerchantsDir:     "./data/merchants",
			MetadataFile:     "./data/metadata.json",
			CategoriesFile:   "./data/filters/categories.json",
			CapabilitiesFile: "./data/filters/capabilities.json",
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Backend:         RateLimitBackendMemory,
			Capacity:        20,
			RefillRate:      2,
			IdleTimeout:     5 * time.Minute,
			CleanupInterval: time.Minute,
			ClientHeaders:   []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"},
			FallbackKey:     "unknown",
			Redis: RedisConfig{
				PoolSize:  10,
				KeyPrefix: "merchantdir:ratelimit:",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "merchant-directory",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("invalid data config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	if sc.PublicBaseURL != "" {
		u, err := url.Parse(sc.PublicBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("public base URL must be absolute: %q", sc.PublicBaseURL)
		}
	}

	return nil
}

func (dc *DataConfig) Validate() error {
	switch dc.Source {
	case DataSourceJSON:
		if dc.MerchantsDir == "" {
			return errors.New("merchants directory is required for json source")
		}
		if dc.MetadataFile == "" {
			return errors.New("metadata file is required for json source")
		}
	case DataSourceSQLite, DataSourcePostgres:
		if dc.DSN == "" {
			return fmt.Errorf("dsn is required for %s source", dc.Source)
		}
	default:
		return fmt.Errorf("invalid data source: %s", dc.Source)
	}
	return nil
}

func (rc *RateLimitConfig) Validate() error {
	if !rc.Enabled {
		return nil
	}

	if rc.Backend != RateLimitBackendMemory && rc.Backend != RateLimitBackendRedis {
		return fmt.Errorf("invalid rate limit backend: %s", rc.Backend)
	}
	if rc.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	if rc.RefillRate <= 0 {
		return errors.New("refill rate must be positive")
	}
	if rc.IdleTimeout <= 0 {
		return errors.New("idle timeout must be positive")
	}
	if rc.Backend == RateLimitBackendMemory && rc.CleanupInterval <= 0 {
		return errors.New("cleanup interval must be positive")
	}
	if rc.FallbackKey == "" {
		return errors.New("fallback key cannot be empty")
	}
	if rc.Backend == RateLimitBackendRedis && rc.Redis.Addr == "" {
		return errors.New("Redis address is required when backend is redis")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}
	if !oc.Tracing.Enabled {
		return nil
	}
	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required when exporter is otlp")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}
	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
