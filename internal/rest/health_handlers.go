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

package rest

import (
	"net/http"
	"time"

	"github.com/jeremyhahn/go-storedconfig/pkg/health"
)

// ProbeResponse is the body of /health/live, /health/ready and
// /health/startup.
type ProbeResponse struct {
	Status   health.Status        `json:"status"`
	Message  string               `json:"message,omitempty"`
	Document string               `json:"document"`
	Uptime   string               `json:"uptime,omitempty"`
	Checks   []health.CheckResult `json:"checks,omitempty"`
}

// LivenessHandler handles GET /health/live requests.
func (h *HandlerContext) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	if h.HealthChecker == nil {
		h.writeProbe(w, health.CheckResult{Status: health.StatusHealthy, Message: "Service is alive"}, nil)
		return
	}
	h.writeProbe(w, h.HealthChecker.Live(r.Context()), nil)
}

// ReadinessHandler handles GET /health/ready requests. The document check
// supplies the message when registered; a degraded document still serves
// traffic.
func (h *HandlerContext) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if h.HealthChecker == nil {
		h.writeProbe(w, health.CheckResult{Status: health.StatusHealthy, Message: "Service is ready"}, nil)
		return
	}

	results := h.HealthChecker.Ready(r.Context())
	overall := health.CheckResult{Status: health.AggregateStatus(results)}
	for _, result := range results {
		if result.Name == "document" {
			overall.Message = result.Message
		}
	}
	if overall.Message == "" {
		switch overall.Status {
		case health.StatusHealthy:
			overall.Message = "All checks passed"
		case health.StatusDegraded:
			overall.Message = "Service is degraded"
		default:
			overall.Message = "One or more checks failed"
		}
	}
	h.writeProbe(w, overall, results)
}

// StartupHandler handles GET /health/startup requests. It fails until the
// server is serving.
func (h *HandlerContext) StartupHandler(w http.ResponseWriter, r *http.Request) {
	if h.HealthChecker == nil {
		h.writeProbe(w, health.CheckResult{Status: health.StatusHealthy, Message: "Service has started"}, nil)
		return
	}
	h.writeProbe(w, h.HealthChecker.Startup(r.Context()), nil)
}

// writeProbe answers 503 for unhealthy results and 200 otherwise.
func (h *HandlerContext) writeProbe(w http.ResponseWriter, result health.CheckResult, checks []health.CheckResult) {
	resp := ProbeResponse{
		Status:   result.Status,
		Message:  result.Message,
		Document: h.document,
		Checks:   checks,
	}
	if h.HealthChecker != nil {
		resp.Uptime = h.HealthChecker.Uptime().Round(time.Second).String()
	}

	statusCode := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, resp, statusCode)
}
