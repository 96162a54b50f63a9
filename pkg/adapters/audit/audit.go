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

package audit

import (
	"context"
	"errors"
	"time"
)

// EventType categorizes audit events
type EventType string

const (
	// Setting changes
	EventSettingWrite EventType = "setting.write"
	EventSettingReset EventType = "setting.reset"

	// Authentication and authorization
	EventAuthFailure EventType = "auth.failure"
	EventAuthzDeny   EventType = "authz.deny"

	// Throttling
	EventRateLimited EventType = "ratelimit.reject"

	// System events
	EventSystemStart EventType = "system.start"
	EventSystemStop  EventType = "system.stop"
)

// EventSeverity indicates the severity level of an audit event
type EventSeverity string

const (
	SeverityInfo  EventSeverity = "info"
	SeverityWarn  EventSeverity = "warn"
	SeverityError EventSeverity = "error"
)

// EventOutcome indicates whether the audited action succeeded
type EventOutcome string

const (
	OutcomeSuccess EventOutcome = "success"
	OutcomeFailure EventOutcome = "failure"
	OutcomeDenied  EventOutcome = "denied"
)

// ErrEventNotFound is returned when an event ID is unknown
var ErrEventNotFound = errors.New("audit: event not found")

// ErrQueryNotSupported is returned by adapters that only record events
var ErrQueryNotSupported = errors.New("audit: adapter does not support queries")

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	// ID is a unique identifier, generated when empty
	ID string `json:"id"`

	// Timestamp is when the event occurred, set when zero
	Timestamp time.Time `json:"timestamp"`

	EventType EventType     `json:"eventType"`
	Severity  EventSeverity `json:"severity"`
	Outcome   EventOutcome  `json:"outcome"`

	// Principal is the subject that performed the action
	Principal string `json:"principal,omitempty"`

	// Document and SettingKey identify the changed configuration
	Document   string `json:"document,omitempty"`
	SettingKey string `json:"settingKey,omitempty"`

	// Action is a human readable description
	Action string `json:"action,omitempty"`

	// Error holds the failure reason for failed or denied events
	Error string `json:"error,omitempty"`

	// RequestID is the correlation ID of the originating request
	RequestID string `json:"requestId,omitempty"`

	SourceIP  string `json:"sourceIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// AuditAdapter records and queries audit events. Implementations must be
// safe for concurrent use.
type AuditAdapter interface {
	// LogEvent records an audit event
	LogEvent(ctx context.Context, event *AuditEvent) error

	// GetEvents retrieves events matching the query, newest first by default
	GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error)

	// GetEvent retrieves a specific event by ID
	GetEvent(ctx context.Context, eventID string) (*AuditEvent, error)

	// GetStatistics aggregates the recorded events
	GetStatistics(ctx context.Context, query *StatisticsQuery) (*Statistics, error)
}

// EventQuery provides filtering and pagination for audit events
type EventQuery struct {
	// EventTypes filters by event type
	EventTypes []EventType

	// Outcomes filters by outcome
	Outcomes []EventOutcome

	// Principal filters by principal
	Principal string

	// Document filters by document name
	Document string

	// SettingKey filters by setting key
	SettingKey string

	// StartTime filters events after this time
	StartTime *time.Time

	// EndTime filters events before this time
	EndTime *time.Time

	// RequestID filters by request ID
	RequestID string

	// Limit limits the number of results
	Limit int

	// Offset skips the first N results
	Offset int

	// OrderBy is "timestamp_desc" (default) or "timestamp_asc"
	OrderBy string
}

// StatisticsQuery bounds the statistics window
type StatisticsQuery struct {
	StartTime *time.Time
	EndTime   *time.Time
}

// Statistics contains audit statistics
type Statistics struct {
	TotalEvents     int64                  `json:"totalEvents"`
	EventsByType    map[EventType]int64    `json:"eventsByType"`
	EventsByOutcome map[EventOutcome]int64 `json:"eventsByOutcome"`

	// TopSettings lists the most frequently changed settings
	TopSettings []SettingStats `json:"topSettings"`
}

// SettingStats counts events for one setting key
type SettingStats struct {
	SettingKey string `json:"settingKey"`
	EventCount int64  `json:"eventCount"`
}
