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
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/auth"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/correlation"
	"github.com/jeremyhahn/go-storedconfig/pkg/ratelimit"
)

// maxAuditLimit caps the page size of GET /api/v1/audit.
const maxAuditLimit = 500

// SetAuditor sets the adapter receiving setting change events.
func (h *HandlerContext) SetAuditor(auditor audit.AuditAdapter) {
	h.auditor = auditor
}

// recordEvent reports an event for r to the auditor. Audit failures are
// logged and never fail the request.
func (h *HandlerContext) recordEvent(r *http.Request, eventType audit.EventType, key string, cause error) {
	if h.auditor == nil {
		return
	}

	event := &audit.AuditEvent{
		EventType:  eventType,
		Severity:   audit.SeverityInfo,
		Outcome:    audit.OutcomeSuccess,
		Document:   h.document,
		SettingKey: key,
		Action:     fmt.Sprintf("%s %s", r.Method, r.URL.Path),
		RequestID:  correlation.GetCorrelationID(r.Context()),
		SourceIP:   ratelimit.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
	if identity := auth.GetIdentity(r.Context()); identity != nil {
		event.Principal = identity.Subject
	}
	if cause != nil {
		event.Outcome = audit.OutcomeFailure
		event.Severity = audit.SeverityWarn
		event.Error = cause.Error()
		switch eventType {
		case audit.EventAuthFailure, audit.EventAuthzDeny, audit.EventRateLimited:
			event.Outcome = audit.OutcomeDenied
		}
	}

	if err := h.auditor.LogEvent(r.Context(), event); err != nil {
		correlation.Logger(r.Context(), h.log).Error("Failed to record audit event",
			logger.String("event_type", string(eventType)),
			logger.Error(err))
	}
}

// recordSystemEvent reports a server lifecycle event.
func (h *HandlerContext) recordSystemEvent(ctx context.Context, eventType audit.EventType, action string) {
	if h.auditor == nil {
		return
	}
	err := h.auditor.LogEvent(ctx, &audit.AuditEvent{
		EventType: eventType,
		Severity:  audit.SeverityInfo,
		Outcome:   audit.OutcomeSuccess,
		Document:  h.document,
		Action:    action,
	})
	if err != nil {
		h.log.Error("Failed to record audit event",
			logger.String("event_type", string(eventType)),
			logger.Error(err))
	}
}

// AuditEventsHandler handles GET /api/v1/audit requests. Supported query
// parameters: type, outcome, principal, setting, limit, offset, order.
func (h *HandlerContext) AuditEventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := &audit.EventQuery{
		Principal:  q.Get("principal"),
		SettingKey: q.Get("setting"),
		Document:   q.Get("document"),
		OrderBy:    q.Get("order"),
		Limit:      100,
	}
	for _, t := range splitList(q.Get("type")) {
		query.EventTypes = append(query.EventTypes, audit.EventType(t))
	}
	for _, o := range splitList(q.Get("outcome")) {
		query.Outcomes = append(query.Outcomes, audit.EventOutcome(o))
	}

	switch query.OrderBy {
	case "", "timestamp_desc", "timestamp_asc":
	default:
		writeErrorWithMessage(w, ErrInvalidRequest, fmt.Sprintf("unsupported order %q", query.OrderBy), http.StatusBadRequest)
		return
	}

	var err error
	if query.Limit, err = intParam(q.Get("limit"), query.Limit); err != nil || query.Limit < 1 || query.Limit > maxAuditLimit {
		writeErrorWithMessage(w, ErrInvalidRequest, fmt.Sprintf("limit must be between 1 and %d", maxAuditLimit), http.StatusBadRequest)
		return
	}
	if query.Offset, err = intParam(q.Get("offset"), 0); err != nil || query.Offset < 0 {
		writeErrorWithMessage(w, ErrInvalidRequest, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	events, err := h.auditor.GetEvents(r.Context(), query)
	if err != nil {
		h.auditQueryError(w, err)
		return
	}
	writeJSON(w, AuditEventsResponse{Events: events, Count: len(events)}, http.StatusOK)
}

// AuditStatsHandler handles GET /api/v1/audit/stats requests.
func (h *HandlerContext) AuditStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.auditor.GetStatistics(r.Context(), nil)
	if err != nil {
		h.auditQueryError(w, err)
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

func (h *HandlerContext) auditQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, audit.ErrQueryNotSupported) {
		writeErrorWithMessage(w, err, "The configured audit adapter does not support queries", http.StatusNotImplemented)
		return
	}
	handleError(w, err)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
