// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-storedconfig.
//
// go-storedconfig is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/auth"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/ratelimit"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage/file"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage/memory"
	"github.com/jeremyhahn/go-storedconfig/pkg/storedconfig"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// Audit backend names
const (
	AuditMemory = "memory"
	AuditLog    = "log"
)

// Storage backend names
const (
	StorageFile   = "file"
	StorageMemory = "memory"
)

// EnvSecurityKey holds the key used to encrypt stored private keys. It is
// preferred over placing the key in the configuration file.
const EnvSecurityKey = "STOREDCONFIG_SECURITY_KEY"

// Config represents the complete storedconfig configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Document  DocumentConfig  `yaml:"document"`
	Security  SecurityConfig  `yaml:"security"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Auth      AuthConfig      `yaml:"auth"`
	Audit     AuditConfig     `yaml:"audit"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Locale    string          `yaml:"locale"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Backend string `yaml:"backend"` // slog, zap
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// StorageConfig controls where configuration documents are persisted
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, memory
	Path    string `yaml:"path"`

	// Backups is the number of previous document versions kept on save
	Backups int `yaml:"backups"`
}

// DocumentConfig names the document the CLI and server operate on
type DocumentConfig struct {
	Name string `yaml:"name"`
}

// SecurityConfig holds the configuration security key
type SecurityConfig struct {
	Key string `yaml:"key"`
}

// ServerConfig contains REST server settings
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MetricsConfig controls the metrics endpoint and resource collector
type MetricsConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Path              string        `yaml:"path"`
	CollectorInterval time.Duration `yaml:"collector_interval"`
}

// AuthConfig controls REST API authentication
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`

	// APIKeys maps API keys to the identity they authenticate
	APIKeys map[string]APIKeyConfig `yaml:"api_keys,omitempty"`
}

// APIKeyConfig represents an API key and its associated identity
type APIKeyConfig struct {
	Subject string   `yaml:"subject"`
	Roles   []string `yaml:"roles,omitempty"` // reader, admin
}

// AuditConfig controls the audit trail of setting changes
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend"` // memory, log

	// MaxEvents bounds the memory backend
	MaxEvents int `yaml:"max_events"`
}

// RateLimitConfig controls per-client throttling of the REST API
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// Default returns a configuration that works without a config file.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Backend: logger.BackendSlog,
			Level:   "info",
			Format:  "text",
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    "./data",
			Backups: 3,
		},
		Document: DocumentConfig{
			Name: "default",
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8443,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:           true,
			Path:              "/metrics",
			CollectorInterval: 15 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:   true,
			Backend:   AuditMemory,
			MaxEvents: 1000,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 600,
			Burst:             60,
		},
		Locale: "en",
	}
}

// Load reads configuration from a YAML file on top of Default and applies
// environment variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// FromEnv returns Default with environment variable overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	// Server settings
	if host := os.Getenv("STOREDCONFIG_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portEnv := os.Getenv("STOREDCONFIG_PORT"); portEnv != "" {
		port, err := strconv.Atoi(portEnv)
		if err != nil {
			log.Printf("Warning: invalid STOREDCONFIG_PORT value %q, using default %d: %v",
				portEnv, cfg.Server.Port, err)
		} else if port < 1 || port > 65535 {
			log.Printf("Warning: invalid STOREDCONFIG_PORT value %q (out of range 1-65535), using default %d",
				portEnv, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}

	// Logging
	if backend := os.Getenv("STOREDCONFIG_LOG_BACKEND"); backend != "" {
		cfg.Logging.Backend = backend
	}
	if level := os.Getenv("STOREDCONFIG_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("STOREDCONFIG_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// Storage
	if backend := os.Getenv("STOREDCONFIG_STORAGE"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if dataDir := os.Getenv("STOREDCONFIG_DATA_DIR"); dataDir != "" {
		cfg.Storage.Path = dataDir
	}
	if backups := os.Getenv("STOREDCONFIG_BACKUPS"); backups != "" {
		n, err := strconv.Atoi(backups)
		if err != nil || n < 0 {
			log.Printf("Warning: invalid STOREDCONFIG_BACKUPS value %q, using default %d",
				backups, cfg.Storage.Backups)
		} else {
			cfg.Storage.Backups = n
		}
	}

	if name := os.Getenv("STOREDCONFIG_DOCUMENT"); name != "" {
		cfg.Document.Name = name
	}
	if key := os.Getenv(EnvSecurityKey); key != "" {
		cfg.Security.Key = key
	}
	if locale := os.Getenv("STOREDCONFIG_LOCALE"); locale != "" {
		cfg.Locale = locale
	}

	if enabled := os.Getenv("STOREDCONFIG_RATE_LIMIT"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			log.Printf("Warning: invalid STOREDCONFIG_RATE_LIMIT value %q, using default %t",
				enabled, cfg.RateLimit.Enabled)
		} else {
			cfg.RateLimit.Enabled = b
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true, "console": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json, text, or console)", c.Logging.Format)
	}

	switch strings.ToLower(c.Logging.Backend) {
	case "", logger.BackendSlog, logger.BackendZap:
	default:
		return fmt.Errorf("invalid log backend: %s (must be slog or zap)", c.Logging.Backend)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path must be specified")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q (must be file or memory)", c.Storage.Backend)
	}
	if c.Storage.Backups < 0 {
		return fmt.Errorf("storage backups must not be negative: %d", c.Storage.Backups)
	}

	if err := storage.ValidateName(c.Document.Name); err != nil {
		return fmt.Errorf("invalid document name: %w", err)
	}

	if _, err := c.LocaleTag(); err != nil {
		return err
	}

	if c.Auth.Enabled {
		if len(c.Auth.APIKeys) == 0 {
			return fmt.Errorf("auth requires at least one api key when enabled")
		}
		for _, k := range c.Auth.APIKeys {
			if k.Subject == "" {
				return fmt.Errorf("api key subject must be specified")
			}
			for _, role := range k.Roles {
				if role != auth.RoleReader && role != auth.RoleAdmin {
					return fmt.Errorf("invalid role %q for subject %s (must be reader or admin)", role, k.Subject)
				}
			}
		}
	}

	if c.Audit.Enabled {
		switch strings.ToLower(c.Audit.Backend) {
		case AuditMemory, AuditLog:
		default:
			return fmt.Errorf("invalid audit backend: %q (must be memory or log)", c.Audit.Backend)
		}
		if c.Audit.MaxEvents < 0 {
			return fmt.Errorf("audit max_events must not be negative: %d", c.Audit.MaxEvents)
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("rate limit requests_per_minute must be positive: %d", c.RateLimit.RequestsPerMinute)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
	}

	return nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LocaleTag parses the configured locale. An empty locale is English.
func (c *Config) LocaleTag() (language.Tag, error) {
	if c.Locale == "" {
		return language.English, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// SecurityKey returns the configured security key, or nil when none is set.
func (c *Config) SecurityKey() []byte {
	if c.Security.Key == "" {
		return nil
	}
	return []byte(c.Security.Key)
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger() (logger.Logger, error) {
	return logger.New(logger.Config{
		Backend: c.Logging.Backend,
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
	})
}

// NewAuthenticator builds the REST authenticator. Authentication disabled
// means every caller is an anonymous administrator.
func (c *Config) NewAuthenticator() auth.Authenticator {
	if !c.Auth.Enabled {
		return auth.NewNoOpAuthenticator()
	}
	keys := make(map[string]*auth.Identity, len(c.Auth.APIKeys))
	for key, k := range c.Auth.APIKeys {
		keys[key] = &auth.Identity{Subject: k.Subject, Roles: k.Roles}
	}
	return auth.NewAPIKeyAuthenticator(&auth.APIKeyConfig{Keys: keys})
}

// NewAuditor builds the audit adapter described by the audit section.
func (c *Config) NewAuditor(log logger.Logger) audit.AuditAdapter {
	if !c.Audit.Enabled {
		return audit.NewNoOpAuditAdapter()
	}
	if strings.ToLower(c.Audit.Backend) == AuditLog {
		return audit.NewLoggerAuditAdapter(log)
	}
	return audit.NewMemoryAuditAdapter(c.Audit.MaxEvents)
}

// NewRateLimiter builds the REST rate limiter. The caller stops it.
func (c *Config) NewRateLimiter() *ratelimit.Limiter {
	return ratelimit.New(&ratelimit.Config{
		Enabled:           c.RateLimit.Enabled,
		RequestsPerMinute: c.RateLimit.RequestsPerMinute,
		Burst:             c.RateLimit.Burst,
	})
}

// OpenBackend opens the storage backend described by the storage section.
func (c *Config) OpenBackend() (storage.Backend, error) {
	switch strings.ToLower(c.Storage.Backend) {
	case StorageMemory:
		return memory.New(), nil
	case StorageFile:
		return file.New(c.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
}

// NewStore wraps backend in a document store. Private key values are
// encrypted with the configured security key.
func (c *Config) NewStore(backend storage.Backend, log logger.Logger) (*storedconfig.Store, error) {
	registry := value.NewRegistry(value.WithLogger(log), value.WithSecurityKey(c.SecurityKey()))
	return storedconfig.NewStore(storedconfig.StoreConfig{
		Backend:     backend,
		BackendName: strings.ToLower(c.Storage.Backend),
		Backups:     c.Storage.Backups,
		DocumentOptions: []storedconfig.Option{
			storedconfig.WithLogger(log),
			storedconfig.WithRegistry(registry),
		},
		Logger: log,
	})
}
