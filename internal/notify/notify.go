// Package notify publishes role and membership change events for the
// notification subsystem. Formatting and delivery (email, webhooks) happen
// downstream; this package only hands events off.
package notify

import (
	"context"
	"time"
)

// EventType names a change in the console
type EventType string

const (
	EventRoleCreated    EventType = "role.created"
	EventRoleUpdated    EventType = "role.updated"
	EventRoleDeleted    EventType = "role.deleted"
	EventRoleReordered  EventType = "role.reordered"
	EventMemberAssigned EventType = "member.role_assigned"
)

// Event is a single change record
type Event struct {
	Type       EventType      `json:"type"`
	ActorID    string         `json:"actor_id"`
	SubjectID  string         `json:"subject_id"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher hands events to the notification subsystem
type Publisher interface {
	// Publish sends an event. Implementations must not block on slow consumers.
	Publish(ctx context.Context, event Event) error

	// Close releases resources
	Close() error
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, actorID, subjectID string, details map[string]any) Event {
	return Event{
		Type:       t,
		ActorID:    actorID,
		SubjectID:  subjectID,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
}
