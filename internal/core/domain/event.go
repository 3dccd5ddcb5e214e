package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a type that represents the type of a session lifecycle event
type EventType string

const (
	EventTypeSessionCreated EventType = "session.created"
	EventTypeSessionExpired EventType = "session.expired"
	EventTypeSessionPurged  EventType = "session.purged"
)

// SessionEvent is published when a session changes lifecycle status
type SessionEvent struct {
	Type           EventType
	SessionID      uuid.UUID
	ConversionID   string
	TotalConverted int
	TotalErrors    int
	OccurredAt     time.Time
	ExpiresAt      time.Time
}

// NewSessionEvent builds an event from a session snapshot
func NewSessionEvent(eventType EventType, session Session, at time.Time) SessionEvent {
	return SessionEvent{
		Type:           eventType,
		SessionID:      session.ID,
		ConversionID:   session.ConversionID,
		TotalConverted: session.TotalConverted,
		TotalErrors:    len(session.Failures),
		OccurredAt:     at,
		ExpiresAt:      session.ExpiresAt,
	}
}
