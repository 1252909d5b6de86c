// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Attendance events
	EventCheckedIn        EventType = "attendance.checked_in"
	EventCheckedOut       EventType = "attendance.checked_out"
	EventExcuseFiled      EventType = "attendance.excuse_filed"
	EventTaskReported     EventType = "attendance.task_reported"
	EventStatusOverridden EventType = "attendance.status_overridden"
	EventPointsRecomputed EventType = "attendance.points_recomputed"

	// User events
	EventUserCreated     EventType = "user.created"
	EventUserUpdated     EventType = "user.updated"
	EventUserDeactivated EventType = "user.deactivated"

	// School config events
	EventConfigUpdated EventType = "school.config_updated"

	// Leaderboard events
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"

	// System events
	EventAbsenceDigest EventType = "system.absence_digest"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Events
// ═══════════════════════════════════════════════════════════════════════════

// AttendanceRecordedEvent is emitted whenever a new attendance record is
// created: a check-in, a filed excuse, or a reported additional task.
// The aggregate ID is the record ID.
type AttendanceRecordedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Kind    string `json:"kind"` // record type (main/additional)
	Status  string `json:"status"`
	Points  int    `json:"points"`
	IsLate  bool   `json:"is_late"`
	RoleTag string `json:"role_tag,omitempty"` // duty role for additional tasks
}

// Payload implements Event interface.
func (e AttendanceRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"date":     e.Date,
		"kind":     e.Kind,
		"status":   e.Status,
		"points":   e.Points,
		"is_late":  e.IsLate,
		"role_tag": e.RoleTag,
	}
}

// NewAttendanceRecordedEvent creates an AttendanceRecordedEvent of the given type.
func NewAttendanceRecordedEvent(eventType EventType, recordID, userID, date, kind, status string, points int) AttendanceRecordedEvent {
	return AttendanceRecordedEvent{
		BaseEvent: NewBaseEvent(eventType, recordID),
		UserID:    userID,
		Date:      date,
		Kind:      kind,
		Status:    status,
		Points:    points,
	}
}

// CheckedOutEvent is emitted when a checkout completes an existing Main record.
type CheckedOutEvent struct {
	BaseEvent
	UserID       string    `json:"user_id"`
	Date         string    `json:"date"`
	CheckOutTime time.Time `json:"check_out_time"`
}

// Payload implements Event interface.
func (e CheckedOutEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"date":           e.Date,
		"check_out_time": e.CheckOutTime.Format(time.RFC3339),
	}
}

// NewCheckedOutEvent creates a new CheckedOutEvent.
func NewCheckedOutEvent(recordID, userID, date string, checkOutTime time.Time) CheckedOutEvent {
	return CheckedOutEvent{
		BaseEvent:    NewBaseEvent(EventCheckedOut, recordID),
		UserID:       userID,
		Date:         date,
		CheckOutTime: checkOutTime,
	}
}

// StatusOverriddenEvent is emitted when an administrator replaces the status
// of an existing record. Points are not touched by the override itself.
type StatusOverriddenEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	Date      string `json:"date"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	AdminID   string `json:"admin_id"`
}

// Payload implements Event interface.
func (e StatusOverriddenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"date":       e.Date,
		"old_status": e.OldStatus,
		"new_status": e.NewStatus,
		"admin_id":   e.AdminID,
	}
}

// NewStatusOverriddenEvent creates a new StatusOverriddenEvent.
func NewStatusOverriddenEvent(recordID, userID, date, oldStatus, newStatus, adminID string) StatusOverriddenEvent {
	return StatusOverriddenEvent{
		BaseEvent: NewBaseEvent(EventStatusOverridden, recordID),
		UserID:    userID,
		Date:      date,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		AdminID:   adminID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User and Config Events
// ═══════════════════════════════════════════════════════════════════════════

// UserDeactivatedEvent is emitted when a staff account is deactivated.
// History is kept; only login is blocked.
type UserDeactivatedEvent struct {
	BaseEvent
	Username string `json:"username"`
}

// Payload implements Event interface.
func (e UserDeactivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"username": e.Username}
}

// NewUserDeactivatedEvent creates a new UserDeactivatedEvent.
func NewUserDeactivatedEvent(userID, username string) UserDeactivatedEvent {
	return UserDeactivatedEvent{
		BaseEvent: NewBaseEvent(EventUserDeactivated, userID),
		Username:  username,
	}
}

// ConfigUpdatedEvent is emitted after an admin save of the school config
// passed validation and was persisted.
type ConfigUpdatedEvent struct {
	BaseEvent
	RadiusMeters    int   `json:"radius_meters"`
	StartHour       int   `json:"start_hour"`
	MinCheckOutHour int   `json:"min_check_out_hour"`
	EndHour         int   `json:"end_hour"`
	ActiveDays      []int `json:"active_days"`
}

// Payload implements Event interface.
func (e ConfigUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"radius_meters":      e.RadiusMeters,
		"start_hour":         e.StartHour,
		"min_check_out_hour": e.MinCheckOutHour,
		"end_hour":           e.EndHour,
		"active_days":        e.ActiveDays,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard and System Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardRebuiltEvent is emitted after a full leaderboard rebuild.
type LeaderboardRebuiltEvent struct {
	BaseEvent
	Category   string        `json:"category"`
	EntryCount int           `json:"entry_count"`
	Took       time.Duration `json:"took"`
}

// Payload implements Event interface.
func (e LeaderboardRebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"category":    e.Category,
		"entry_count": e.EntryCount,
		"took":        e.Took.String(),
	}
}

// AbsenceDigestEvent is emitted by the daily digest job. It is informational:
// no records are created for absentees, the digest only reports them.
type AbsenceDigestEvent struct {
	BaseEvent
	Date          string   `json:"date"`
	AbsentUserIDs []string `json:"absent_user_ids"`
}

// Payload implements Event interface.
func (e AbsenceDigestEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":            e.Date,
		"absent_user_ids": e.AbsentUserIDs,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
