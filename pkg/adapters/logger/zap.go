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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter wraps a zap.Logger to implement the Logger interface
type ZapAdapter struct {
	logger *zap.Logger
}

// ZapConfig configures the zap adapter
type ZapConfig struct {
	// Logger is the underlying zap logger
	// If nil, a new logger will be built
	Logger *zap.Logger

	// Level is the minimum log level to output
	Level Level

	// Development selects zap's console encoder and development defaults
	Development bool

	// OutputPaths defaults to stderr
	OutputPaths []string
}

// NewZapAdapter creates a new zap adapter
func NewZapAdapter(config *ZapConfig) (*ZapAdapter, error) {
	if config == nil {
		config = &ZapConfig{}
	}
	if config.Logger != nil {
		return &ZapAdapter{logger: config.Logger}, nil
	}

	var zapConfig zap.Config
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(levelToZapLevel(config.Level))
	if len(config.OutputPaths) > 0 {
		zapConfig.OutputPaths = config.OutputPaths
	} else {
		zapConfig.OutputPaths = []string{"stderr"}
	}

	zl, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return &ZapAdapter{logger: zl}, nil
}

// Debug logs a debug message
func (l *ZapAdapter) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, toZapFields(fields)...)
}

// Info logs an informational message
func (l *ZapAdapter) Info(msg string, fields ...Field) {
	l.logger.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message
func (l *ZapAdapter) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message
func (l *ZapAdapter) Error(msg string, fields ...Field) {
	l.logger.Error(msg, toZapFields(fields)...)
}

// With creates a child logger with the given fields
func (l *ZapAdapter) With(fields ...Field) Logger {
	return &ZapAdapter{logger: l.logger.With(toZapFields(fields)...)}
}

// Sync flushes buffered log entries
func (l *ZapAdapter) Sync() error {
	return l.logger.Sync()
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case []string:
			out = append(out, zap.Strings(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}

func levelToZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
