// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WILDGATE_SERVER_PORT.
const EnvPrefix = "WILDGATE_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Environments.
const (
	Production  = "production"
	Staging     = "staging"
	Development = "development"
	Test        = "test"
)

// Outbound validation modes.
const (
	OutboundAuto   = "auto"
	OutboundAlways = "always"
	OutboundNever  = "never"
)

// Config is the root configuration structure.
type Config struct {
	Environment string           `yaml:"environment" env:"ENVIRONMENT"`
	Server      ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Validation  ValidationConfig `yaml:"validation" envPrefix:"VALIDATION_"`
	Engine      EngineConfig     `yaml:"engine" envPrefix:"ENGINE_"`
	Logging     LoggingConfig    `yaml:"logging" envPrefix:"LOG_"`
	Metrics     MetricsConfig    `yaml:"metrics" envPrefix:"METRICS_"`
	Docs        DocsConfig       `yaml:"docs" envPrefix:"DOCS_"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ValidationConfig configures the boundary checks.
type ValidationConfig struct {
	// StrictUnknownFields rejects request fields the schema does not declare.
	StrictUnknownFields bool `yaml:"strict_unknown_fields" env:"STRICT_UNKNOWN_FIELDS"`
	// Outbound is auto, always or never. Auto checks responses outside production.
	Outbound string `yaml:"outbound" env:"OUTBOUND"`
}

// EngineConfig configures the evaluation engine.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Seed fixes the random evaluator. Zero seeds from the clock.
	Seed uint64 `yaml:"seed" env:"SEED"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"FORMAT"` // "json" or "console"
	// File, when set, receives the log instead of stderr and is rotated.
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// DocsConfig configures the documentation server.
type DocsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
		Docs:    DocsConfig{Enabled: true},
	}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file, applies WILDGATE_* overrides
// and defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for configuration already in memory.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		Docs:    DocsConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(&cfg)
}

// LoadFromEnv creates configuration from defaults and environment variables.
func LoadFromEnv() (*Config, error) {
	return finish(Default())
}

// LoadWithFallback loads path when it exists, otherwise the environment.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// OutboundEnabled reports whether responses are checked against their schema.
func (c *Config) OutboundEnabled() bool {
	switch c.Validation.Outbound {
	case OutboundAlways:
		return true
	case OutboundNever:
		return false
	default:
		return c.Environment != Production
	}
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = Development
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	if cfg.Validation.Outbound == "" {
		cfg.Validation.Outbound = OutboundAuto
	}

	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = 2 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	validEnvironments := map[string]bool{Production: true, Staging: true, Development: true, Test: true}
	if !validEnvironments[cfg.Environment] {
		fail("environment must be one of production, staging, development, test, got %q", cfg.Environment)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		fail("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes < 0 {
		fail("server.max_body_bytes must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     cfg.Server.ReadTimeout,
		"server.write_timeout":    cfg.Server.WriteTimeout,
		"server.request_timeout":  cfg.Server.RequestTimeout,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout,
		"engine.timeout":          cfg.Engine.Timeout,
	} {
		if d < 0 {
			fail("%s must not be negative", name)
		}
	}

	validOutbound := map[string]bool{OutboundAuto: true, OutboundAlways: true, OutboundNever: true}
	if !validOutbound[cfg.Validation.Outbound] {
		fail("validation.outbound must be auto, always or never, got %q", cfg.Validation.Outbound)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		fail("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		fail("logging.format must be json or console, got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		fail("metrics.path must start with /, got %q", cfg.Metrics.Path)
	}

	return errors.Join(errs...)
}
