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

// Package correlation carries request correlation IDs through contexts,
// HTTP headers and log records.
package correlation

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
)

type contextKey string

const (
	// CorrelationIDKey is the context key for storing correlation IDs
	CorrelationIDKey contextKey = "correlation-id"

	// RequestIDHeader is the HTTP header for request IDs
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDHeader is the HTTP header for correlation IDs
	CorrelationIDHeader = "X-Correlation-ID"

	// LogField is the log field name used for correlation IDs
	LogField = "correlation_id"
)

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GetCorrelationID retrieves the correlation ID from context, or "" when
// none is set.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 correlation ID.
func NewID() string {
	return uuid.New().String()
}

// FromHeader returns the correlation ID carried by h, preferring
// X-Correlation-ID over X-Request-ID, or a new ID when neither is present.
func FromHeader(h http.Header) string {
	if id := h.Get(CorrelationIDHeader); id != "" {
		return id
	}
	if id := h.Get(RequestIDHeader); id != "" {
		return id
	}
	return NewID()
}

// Logger returns log with the context's correlation ID attached. log is
// returned unchanged when the context carries no ID.
func Logger(ctx context.Context, log logger.Logger) logger.Logger {
	id := GetCorrelationID(ctx)
	if id == "" {
		return log
	}
	return log.With(logger.String(LogField, id))
}
