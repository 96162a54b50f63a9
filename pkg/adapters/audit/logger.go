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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
)

// LoggerAuditAdapter writes audit events to a structured logger
type LoggerAuditAdapter struct {
	log logger.Logger
}

// NewLoggerAuditAdapter creates an adapter logging through log. A nil
// logger discards events.
func NewLoggerAuditAdapter(log logger.Logger) *LoggerAuditAdapter {
	if log == nil {
		log = logger.NewNop()
	}
	return &LoggerAuditAdapter{log: log.With(logger.String("component", "audit"))}
}

// LogEvent writes the event at a level matching its severity
func (l *LoggerAuditAdapter) LogEvent(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fields := []logger.Field{
		logger.String("event_id", event.ID),
		logger.String("event_type", string(event.EventType)),
		logger.String("outcome", string(event.Outcome)),
	}
	if event.Principal != "" {
		fields = append(fields, logger.String("principal", event.Principal))
	}
	if event.Document != "" {
		fields = append(fields, logger.String("document", event.Document))
	}
	if event.SettingKey != "" {
		fields = append(fields, logger.String("setting", event.SettingKey))
	}
	if event.RequestID != "" {
		fields = append(fields, logger.String("request_id", event.RequestID))
	}
	if event.SourceIP != "" {
		fields = append(fields, logger.String("source_ip", event.SourceIP))
	}
	if event.Error != "" {
		fields = append(fields, logger.String("error", event.Error))
	}

	msg := event.Action
	if msg == "" {
		msg = string(event.EventType)
	}

	switch event.Severity {
	case SeverityError:
		l.log.Error(msg, fields...)
	case SeverityWarn:
		l.log.Warn(msg, fields...)
	default:
		l.log.Info(msg, fields...)
	}
	return nil
}

// GetEvents is not supported
func (l *LoggerAuditAdapter) GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error) {
	return nil, ErrQueryNotSupported
}

// GetEvent is not supported
func (l *LoggerAuditAdapter) GetEvent(ctx context.Context, eventID string) (*AuditEvent, error) {
	return nil, ErrQueryNotSupported
}

// GetStatistics is not supported
func (l *LoggerAuditAdapter) GetStatistics(ctx context.Context, query *StatisticsQuery) (*Statistics, error) {
	return nil, ErrQueryNotSupported
}

// NoOpAuditAdapter discards all events
type NoOpAuditAdapter struct{}

// NewNoOpAuditAdapter creates an adapter that records nothing
func NewNoOpAuditAdapter() *NoOpAuditAdapter {
	return &NoOpAuditAdapter{}
}

func (NoOpAuditAdapter) LogEvent(context.Context, *AuditEvent) error { return nil }

func (NoOpAuditAdapter) GetEvents(context.Context, *EventQuery) ([]*AuditEvent, error) {
	return []*AuditEvent{}, nil
}

func (NoOpAuditAdapter) GetEvent(_ context.Context, eventID string) (*AuditEvent, error) {
	return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
}

func (NoOpAuditAdapter) GetStatistics(context.Context, *StatisticsQuery) (*Statistics, error) {
	return &Statistics{
		EventsByType:    map[EventType]int64{},
		EventsByOutcome: map[EventOutcome]int64{},
		TopSettings:     []SettingStats{},
	}, nil
}

var (
	_ AuditAdapter = (*MemoryAuditAdapter)(nil)
	_ AuditAdapter = (*LoggerAuditAdapter)(nil)
	_ AuditAdapter = NoOpAuditAdapter{}
)
