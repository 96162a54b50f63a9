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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/jeremyhahn/go-storedconfig/internal/config"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage"
	"github.com/jeremyhahn/go-storedconfig/pkg/storedconfig"
)

// EnvPrefix is the prefix of environment variables bound to CLI flags,
// e.g. STOREDCONFIG_OUTPUT or STOREDCONFIG_DATA_DIR.
const EnvPrefix = "storedconfig"

// Flag and viper keys
const (
	keyConfig   = "config"
	keyOutput   = "output"
	keyVerbose  = "verbose"
	keyLocale   = "locale"
	keyDocument = "document"
	keyStorage  = "storage"
	keyDataDir  = "data-dir"
)

// Config holds global CLI configuration. Values come from flags, then
// STOREDCONFIG_* environment variables, then the configuration file.
type Config struct {
	v      *viper.Viper
	stderr io.Writer
	loaded *config.Config
}

// NewConfig creates a new Config with its own viper instance
func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyOutput, string(OutputFormatText))
	v.SetDefault(keyVerbose, false)

	return &Config{v: v, stderr: os.Stderr}
}

// OutputFormat returns the selected output format
func (c *Config) OutputFormat() string {
	return strings.ToLower(c.v.GetString(keyOutput))
}

// Verbose reports whether verbose output is enabled
func (c *Config) Verbose() bool {
	return c.v.GetBool(keyVerbose)
}

// Load resolves the service configuration: the --config file (or defaults
// and environment when none is given) with flag overrides on top. The
// result is cached for the life of the command.
func (c *Config) Load() (*config.Config, error) {
	if c.loaded != nil {
		return c.loaded, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if path := c.v.GetString(keyConfig); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if c.v.IsSet(keyDocument) {
		cfg.Document.Name = c.v.GetString(keyDocument)
	}
	if c.v.IsSet(keyStorage) {
		cfg.Storage.Backend = c.v.GetString(keyStorage)
	}
	if c.v.IsSet(keyDataDir) {
		cfg.Storage.Path = c.v.GetString(keyDataDir)
	}
	if c.v.IsSet(keyLocale) {
		cfg.Locale = c.v.GetString(keyLocale)
	}
	if c.Verbose() {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = cfg
	return cfg, nil
}

// Locale returns the locale used to render values
func (c *Config) Locale() (language.Tag, error) {
	cfg, err := c.Load()
	if err != nil {
		return language.Und, err
	}
	return cfg.LocaleTag()
}

// NewLogger builds the logger for CLI diagnostics. Logs go to stderr so
// they never mix with command output.
func (c *Config) NewLogger() (logger.Logger, error) {
	cfg, err := c.Load()
	if err != nil {
		return nil, err
	}
	return logger.New(logger.Config{
		Backend: cfg.Logging.Backend,
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  c.stderr,
	})
}

// session is an open store plus everything a command needs to work on
// the configured document.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	backend storage.Backend
	store   *storedconfig.Store
	auditor audit.AuditAdapter
}

// openSession opens the configured storage backend and document store
func (c *Config) openSession() (*session, error) {
	cfg, err := c.Load()
	if err != nil {
		return nil, err
	}
	log, err := c.NewLogger()
	if err != nil {
		return nil, err
	}

	backend, err := cfg.OpenBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	store, err := cfg.NewStore(backend, log)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	// The CLI process is short lived, so events go to the log
	var auditor audit.AuditAdapter = audit.NewNoOpAuditAdapter()
	if cfg.Audit.Enabled {
		auditor = audit.NewLoggerAuditAdapter(log)
	}

	return &session{cfg: cfg, log: log, backend: backend, store: store, auditor: auditor}, nil
}

// document opens the configured document, or a new empty one when it
// has never been saved
func (s *session) document() (*storedconfig.StoredConfiguration, error) {
	doc, err := s.store.OpenOrNew(s.cfg.Document.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %q: %w", s.cfg.Document.Name, err)
	}
	return doc, nil
}

// save persists doc under the configured document name and audits the
// change of key
func (s *session) save(ctx context.Context, doc *storedconfig.StoredConfiguration, eventType audit.EventType, key string) error {
	event := &audit.AuditEvent{
		EventType:  eventType,
		Severity:   audit.SeverityInfo,
		Outcome:    audit.OutcomeSuccess,
		Principal:  principal(),
		Document:   s.cfg.Document.Name,
		SettingKey: key,
		Action:     "Setting changed",
	}

	err := s.store.Save(s.cfg.Document.Name, doc)
	if err != nil {
		event.Outcome = audit.OutcomeFailure
		event.Severity = audit.SeverityError
		event.Error = err.Error()
	}
	if aerr := s.auditor.LogEvent(ctx, event); aerr != nil {
		s.log.Warn("Failed to record audit event", logger.Error(aerr))
	}

	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", s.cfg.Document.Name, err)
	}
	return nil
}

// principal names the local user running the CLI
func principal() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}

func (s *session) Close() error {
	return s.store.Close()
}
