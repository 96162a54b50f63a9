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

// Package metrics provides Prometheus instrumentation for go-storedconfig.
// It exposes document operation counters, latency histograms, certificate
// decode and fingerprint failure counters, and resource gauges for the
// configuration server.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all storedconfig metrics
	Namespace = "storedconfig"

	// Label names
	LabelOperation  = "operation"
	LabelBackend    = "backend"
	LabelStatus     = "status"
	LabelErrorType  = "error_type"
	LabelProtocol   = "protocol"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"
	LabelReason     = "reason"
	LabelSyntax     = "syntax"
	LabelAlgorithm  = "algorithm"
	LabelDocument   = "document"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpLoad     = "load"
	OpSave     = "save"
	OpOpen     = "open"
	OpDelete   = "delete"
	OpList     = "list"
	OpRead     = "read"
	OpWrite    = "write"
	OpImport   = "import"
	OpReset    = "reset"
	OpValidate = "validate"

	// Certificate drop reasons
	ReasonBase64      = "base64"
	ReasonCertificate = "certificate"
)

var (
	// OperationsTotal tracks configuration document operations by type, backend, and status.
	// Use RecordOperation to increment this counter with the appropriate labels.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of configuration operations by type, backend, and status",
		},
		[]string{LabelOperation, LabelBackend, LabelStatus},
	)

	// OperationDuration tracks the duration of configuration operations in seconds.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of configuration operations in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{LabelOperation, LabelBackend},
	)

	// ErrorsTotal tracks errors by operation, backend, and error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, backend, and error type",
		},
		[]string{LabelOperation, LabelBackend, LabelErrorType},
	)

	// CertificatesDecoded counts persisted certificates decoded successfully.
	CertificatesDecoded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "certificates_decoded_total",
			Help:      "Total number of persisted certificates decoded successfully",
		},
	)

	// CertificatesDropped counts persisted certificate entries dropped while
	// loading, by reason (base64 or certificate).
	CertificatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "certificates_dropped_total",
			Help:      "Total number of persisted certificate entries dropped while loading",
		},
		[]string{LabelReason},
	)

	// EncodeFailures counts values that could not be written to a document.
	EncodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "encode_failures_total",
			Help:      "Total number of value entries omitted while writing a document",
		},
		[]string{LabelSyntax},
	)

	// HashFailures counts fingerprint computations that failed.
	HashFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "hash_failures_total",
			Help:      "Total number of certificate fingerprint failures by algorithm",
		},
		[]string{LabelAlgorithm},
	)

	// SettingsTotal tracks the number of settings held by each loaded document.
	SettingsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "settings_total",
			Help:      "Number of settings stored in each configuration document",
		},
		[]string{LabelDocument},
	)

	// ActiveConnections tracks the number of active connections by protocol.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_connections",
			Help:      "Number of active connections by protocol",
		},
		[]string{LabelProtocol},
	)

	// HTTPRequestsTotal tracks the total number of HTTP requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks the duration of HTTP requests in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod},
	)

	// Goroutines tracks the current number of goroutines in the server.
	// Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// ServerUptime tracks the server uptime in seconds since startup.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Server uptime in seconds since startup",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a configuration operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	err := store.Save(ctx, "default", doc)
//	status := metrics.StatusSuccess
//	if err != nil {
//	    status = metrics.StatusError
//	}
//	metrics.RecordOperation(metrics.OpSave, "file", status, time.Since(start).Seconds())
func RecordOperation(operation, backend, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, backend, status).Inc()
	OperationDuration.WithLabelValues(operation, backend).Observe(duration)
}

// RecordError records an error event with context about where it occurred.
// Error types should be specific, e.g. "not_found" or "invalid_document".
func RecordError(operation, backend, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, backend, errorType).Inc()
}

// RecordCertificateDecoded counts one successfully decoded certificate.
func RecordCertificateDecoded() {
	if !enabled.Load() {
		return
	}
	CertificatesDecoded.Inc()
}

// RecordCertificateDropped counts one persisted certificate entry that was
// discarded while loading.
func RecordCertificateDropped(reason string) {
	if !enabled.Load() {
		return
	}
	CertificatesDropped.WithLabelValues(reason).Inc()
}

// RecordEncodeFailure counts one value entry omitted from a written document.
func RecordEncodeFailure(syntax string) {
	if !enabled.Load() {
		return
	}
	EncodeFailures.WithLabelValues(syntax).Inc()
}

// RecordHashFailure counts one failed fingerprint computation.
func RecordHashFailure(algorithm string) {
	if !enabled.Load() {
		return
	}
	HashFailures.WithLabelValues(algorithm).Inc()
}

// SetSettingsTotal sets the number of settings held by a document.
func SetSettingsTotal(document string, count float64) {
	if !enabled.Load() {
		return
	}
	SettingsTotal.WithLabelValues(document).Set(count)
}

// RecordHTTPRequest records an HTTP request with its duration and status.
func RecordHTTPRequest(method, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration)
}

// IncrementActiveConnections increments the active connection count for a protocol.
func IncrementActiveConnections(protocol string) {
	if !enabled.Load() {
		return
	}
	ActiveConnections.WithLabelValues(protocol).Inc()
}

// DecrementActiveConnections decrements the active connection count for a protocol.
func DecrementActiveConnections(protocol string) {
	if !enabled.Load() {
		return
	}
	ActiveConnections.WithLabelValues(protocol).Dec()
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
