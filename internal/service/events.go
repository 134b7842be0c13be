package service

import (
	"sync"

	"branchline/internal/engine"
)

// EventType defines the type of event
type EventType string

const (
	EventGraphSaved      EventType = "graph_saved"
	EventGraphDeleted    EventType = "graph_deleted"
	EventSessionStarted  EventType = "session_started"
	EventSessionAdvanced EventType = "session_advanced"
	EventSessionEnded    EventType = "session_ended"
	EventPropertyChanged EventType = "property_changed"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// GraphPayload accompanies graph events
type GraphPayload struct {
	Name string `json:"name"`
}

// SessionPayload accompanies session events
type SessionPayload struct {
	SessionID string       `json:"session_id"`
	Graph     string       `json:"graph"`
	State     engine.State `json:"state"`

	// Closed is set when a session was ended by the caller or reaped
	// rather than reaching an end state
	Closed string `json:"closed,omitempty"`
}

// PropertyPayload accompanies property_changed. SessionID is empty when a
// stored default changed.
type PropertyPayload struct {
	Graph     string `json:"graph"`
	SessionID string `json:"session_id,omitempty"`
	Property  string `json:"property"`
	Value     string `json:"value"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber; the channel is not closed
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers. A nil bus drops the event.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
