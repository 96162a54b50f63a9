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

package logger

import (
	"fmt"
	"io"
	"strings"
)

// Backend names accepted by New
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Config selects and configures a logging adapter
type Config struct {
	// Backend is "slog" (default) or "zap"
	Backend string

	// Level is debug, info, warn or error
	Level string

	// Format is text, json or console
	Format string

	// Output is used by the slog backend (default os.Stderr)
	Output io.Writer
}

// New builds the adapter described by cfg.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(cfg.Format)

	switch strings.ToLower(cfg.Backend) {
	case "", BackendSlog:
		return NewSlogAdapter(&SlogConfig{
			Level:  level,
			JSON:   format == "json",
			Output: cfg.Output,
		}), nil
	case BackendZap:
		zl, err := NewZapAdapter(&ZapConfig{
			Level:       level,
			Development: format == "console" || format == "text",
		})
		if err != nil {
			return nil, fmt.Errorf("logger: failed to build zap logger: %w", err)
		}
		return zl, nil
	default:
		return nil, fmt.Errorf("logger: unknown backend %q", cfg.Backend)
	}
}
