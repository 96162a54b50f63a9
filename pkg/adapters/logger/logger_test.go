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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSlogAdapter_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Level: LevelDebug, Output: &buf})

	log.Debug("decoding setting", String("key", "ldap.serverCerts"))
	log.Error("error decoding certificate", Int("index", 2), Error(errors.New("bad base64")))

	out := buf.String()
	assert.Contains(t, out, "decoding setting")
	assert.Contains(t, out, "key=ldap.serverCerts")
	assert.Contains(t, out, "index=2")
	assert.Contains(t, out, `error="bad base64"`)
}

func TestSlogAdapter_JSONAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Level: LevelInfo, JSON: true, Output: &buf})

	child := log.With(String("setting", "https.server.cert"))
	child.Warn("error generating hash for certificate", Bool("md5", true))

	out := buf.String()
	assert.Contains(t, out, `"setting":"https.server.cert"`)
	assert.Contains(t, out, `"md5":true`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestSlogAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Level: LevelError, Output: &buf})

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("hidden warn")
	log.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible error")
}

func TestZapAdapter_Observed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log, err := NewZapAdapter(&ZapConfig{Logger: zap.New(core)})
	require.NoError(t, err)

	log.With(String("setting", "ldap.serverCerts")).
		Error("error decoding certificate", Error(errors.New("malformed")), Strings("tags", []string{"a"}))
	log.Info("loaded", Int("count", 3))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "ldap.serverCerts", ctx["setting"])
	assert.Equal(t, "malformed", ctx["error"])
	assert.Equal(t, int64(3), entries[1].ContextMap()["count"])
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Backend: "slog", Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	log.Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	zl, err := New(Config{Backend: "zap", Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.IsType(t, &ZapAdapter{}, zl)

	_, err = New(Config{Backend: "syslog"})
	assert.Error(t, err)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Debug("x")
	log.Info("x")
	log.Warn("x")
	log.Error("x")
	assert.NotNil(t, log.With(String("a", "b")))
}
