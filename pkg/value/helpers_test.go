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

package value_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/stretchr/testify/require"
)

// createTestCert creates a self-signed certificate for testing.
func createTestCert(t *testing.T, cn string, serial int64) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour).Truncate(time.Second),
		NotAfter:              time.Now().Add(24 * time.Hour).Truncate(time.Second),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return cert, priv
}

// handmadeCert returns a certificate that was never encoded and therefore
// has no DER bytes.
func handmadeCert(cn string) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: big.NewInt(5),
		Subject:      pkix.Name{CommonName: cn},
		Issuer:       pkix.Name{CommonName: cn},
		NotBefore:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// settingElement wraps value elements in a <setting> element.
func settingElement(key string, children ...*etree.Element) *etree.Element {
	el := etree.NewElement("setting")
	el.CreateAttr("key", key)
	for _, c := range children {
		el.AddChild(c)
	}
	return el
}

func textElement(text string) *etree.Element {
	el := etree.NewElement("value")
	el.SetText(text)
	return el
}

type logEntry struct {
	level  logger.Level
	msg    string
	fields map[string]any
}

// recordingLogger keeps every log call for inspection.
type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	base    []logger.Field
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) record(level logger.Level, msg string, fields []logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := make(map[string]any)
	for _, f := range append(append([]logger.Field{}, l.base...), fields...) {
		m[f.Key] = f.Value
	}
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, fields: m})
}

func (l *recordingLogger) Debug(msg string, f ...logger.Field) { l.record(logger.LevelDebug, msg, f) }
func (l *recordingLogger) Info(msg string, f ...logger.Field)  { l.record(logger.LevelInfo, msg, f) }
func (l *recordingLogger) Warn(msg string, f ...logger.Field)  { l.record(logger.LevelWarn, msg, f) }
func (l *recordingLogger) Error(msg string, f ...logger.Field) { l.record(logger.LevelError, msg, f) }

func (l *recordingLogger) With(f ...logger.Field) logger.Logger {
	return &recordingLogger{mu: l.mu, entries: l.entries, base: append(append([]logger.Field{}, l.base...), f...)}
}

func (l *recordingLogger) at(level logger.Level) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}
