package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Recording lifecycle events
	EventTypeSessionStarted     EventType = "session.started"
	EventTypeSessionFinished    EventType = "session.finished"
	EventTypeCompletionDetected EventType = "session.completion_detected"

	// Delivery events
	EventTypeArtifactSent   EventType = "artifact.sent"
	EventTypeArtifactFailed EventType = "artifact.failed"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType
	Source    string // component that emitted the event
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID
	Unsubscribe(id SubscriptionID)
	Publish(event Event)
	Stop()
}
