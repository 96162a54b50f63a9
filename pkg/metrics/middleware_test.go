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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMiddlewareStatusCodes(t *testing.T) {
	Enable()

	testCases := []struct {
		name       string
		statusCode int
		code       string
	}{
		{"200 OK", http.StatusOK, "200"},
		{"404 Not Found", http.StatusNotFound, "404"},
		{"500 Internal Server Error", http.StatusInternalServerError, "500"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			HTTPRequestsTotal.Reset()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
			rec := httptest.NewRecorder()
			HTTPMiddleware(handler).ServeHTTP(rec, req)

			if rec.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, rec.Code)
			}
			if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, tc.code)); got != 1 {
				t.Errorf("Expected 1 request with code %s, got %v", tc.code, got)
			}
		})
	}
}

func TestHTTPMiddlewareImplicitOK(t *testing.T) {
	Enable()
	HTTPRequestsTotal.Reset()
	ActiveConnections.Reset()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "200")); got != 1 {
		t.Errorf("Expected implicit 200 to be recorded, got %v", got)
	}
	if got := testutil.ToFloat64(ActiveConnections.WithLabelValues(ProtocolHTTP)); got != 0 {
		t.Errorf("Expected no active connections after request, got %v", got)
	}
}

func TestHTTPMiddlewareDisabled(t *testing.T) {
	Disable()
	defer Enable()
	HTTPRequestsTotal.Reset()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected handler status to pass through, got %d", rec.Code)
	}
	if count := testutil.CollectAndCount(HTTPRequestsTotal); count != 0 {
		t.Errorf("Expected no requests recorded, got %d", count)
	}
}
