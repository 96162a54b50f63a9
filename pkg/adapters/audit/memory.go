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
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEvents bounds a MemoryAuditAdapter created without a limit
const DefaultMaxEvents = 10000

// MemoryAuditAdapter implements AuditAdapter with in-memory storage.
// The oldest events are discarded once MaxEvents is reached.
//
// Note: All events are stored in memory and will be lost on process restart.
type MemoryAuditAdapter struct {
	mu        sync.RWMutex
	events    map[string]*AuditEvent
	eventIDs  []string // insertion order, oldest first
	maxEvents int
	now       func() time.Time
}

// NewMemoryAuditAdapter creates a new in-memory audit adapter keeping at
// most maxEvents events. A non-positive limit uses DefaultMaxEvents.
func NewMemoryAuditAdapter(maxEvents int) *MemoryAuditAdapter {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &MemoryAuditAdapter{
		events:    make(map[string]*AuditEvent),
		eventIDs:  make([]string, 0, min(maxEvents, 1024)),
		maxEvents: maxEvents,
		now:       time.Now,
	}
}

// LogEvent records an audit event in memory
func (m *MemoryAuditAdapter) LogEvent(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	// Generate ID if not provided
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}

	stored := *event
	stored.Metadata = cloneMetadata(event.Metadata)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.events[stored.ID]; !exists {
		m.eventIDs = append(m.eventIDs, stored.ID)
	}
	m.events[stored.ID] = &stored

	for len(m.eventIDs) > m.maxEvents {
		delete(m.events, m.eventIDs[0])
		m.eventIDs = m.eventIDs[1:]
	}

	return nil
}

// GetEvents retrieves audit events based on query parameters
func (m *MemoryAuditAdapter) GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error) {
	if query == nil {
		query = &EventQuery{}
	}

	m.mu.RLock()
	results := make([]*AuditEvent, 0, len(m.eventIDs))
	for _, id := range m.eventIDs {
		event := m.events[id]
		if matchesQuery(event, query) {
			results = append(results, copyEvent(event))
		}
	}
	m.mu.RUnlock()

	switch query.OrderBy {
	case "", "timestamp_desc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp.After(results[j].Timestamp)
		})
	case "timestamp_asc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp.Before(results[j].Timestamp)
		})
	default:
		return nil, fmt.Errorf("unsupported order: %q", query.OrderBy)
	}

	// Apply offset and limit
	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*AuditEvent{}, nil
		}
		results = results[query.Offset:]
	}

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// GetEvent retrieves a specific audit event by ID
func (m *MemoryAuditAdapter) GetEvent(ctx context.Context, eventID string) (*AuditEvent, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	event, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return copyEvent(event), nil
}

// GetStatistics returns audit statistics
func (m *MemoryAuditAdapter) GetStatistics(ctx context.Context, query *StatisticsQuery) (*Statistics, error) {
	if query == nil {
		query = &StatisticsQuery{}
	}

	stats := &Statistics{
		EventsByType:    make(map[EventType]int64),
		EventsByOutcome: make(map[EventOutcome]int64),
	}
	settingCounts := make(map[string]int64)

	m.mu.RLock()
	for _, event := range m.events {
		// Apply time filters
		if query.StartTime != nil && event.Timestamp.Before(*query.StartTime) {
			continue
		}
		if query.EndTime != nil && event.Timestamp.After(*query.EndTime) {
			continue
		}

		stats.TotalEvents++
		stats.EventsByType[event.EventType]++
		stats.EventsByOutcome[event.Outcome]++
		if event.SettingKey != "" {
			settingCounts[event.SettingKey]++
		}
	}
	m.mu.RUnlock()

	stats.TopSettings = buildTopSettings(settingCounts)
	return stats, nil
}

// Len returns the number of retained events
func (m *MemoryAuditAdapter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.eventIDs)
}

// matchesQuery checks if an event matches the query criteria
func matchesQuery(event *AuditEvent, query *EventQuery) bool {
	if len(query.EventTypes) > 0 && !slices.Contains(query.EventTypes, event.EventType) {
		return false
	}
	if len(query.Outcomes) > 0 && !slices.Contains(query.Outcomes, event.Outcome) {
		return false
	}
	if query.Principal != "" && event.Principal != query.Principal {
		return false
	}
	if query.Document != "" && event.Document != query.Document {
		return false
	}
	if query.SettingKey != "" && event.SettingKey != query.SettingKey {
		return false
	}
	if query.StartTime != nil && event.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && event.Timestamp.After(*query.EndTime) {
		return false
	}
	if query.RequestID != "" && event.RequestID != query.RequestID {
		return false
	}
	return true
}

// buildTopSettings builds a sorted list of the ten most changed settings
func buildTopSettings(counts map[string]int64) []SettingStats {
	settings := make([]SettingStats, 0, len(counts))
	for key, count := range counts {
		settings = append(settings, SettingStats{SettingKey: key, EventCount: count})
	}

	sort.Slice(settings, func(i, j int) bool {
		if settings[i].EventCount != settings[j].EventCount {
			return settings[i].EventCount > settings[j].EventCount
		}
		return settings[i].SettingKey < settings[j].SettingKey
	})

	if len(settings) > 10 {
		settings = settings[:10]
	}
	return settings
}

func copyEvent(event *AuditEvent) *AuditEvent {
	c := *event
	c.Metadata = cloneMetadata(event.Metadata)
	return &c
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
