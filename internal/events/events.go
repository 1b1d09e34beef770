package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventReservationCommitted = "reservation_committed"
	EventReservationCancelled = "reservation_cancelled"
	EventResolutionStarted    = "resolution_started"
	EventResolutionAbandoned  = "resolution_abandoned"
)

// ReservationEventPayload is the minimal reservation snapshot for event
// consumers.
type ReservationEventPayload struct {
	ReservationID int64    `json:"reservation_id"`
	CustomerRef   string   `json:"customer_ref"`
	OccupantCount int64    `json:"occupant_count"`
	Status        string   `json:"status"`
	Days          []string `json:"days,omitempty"`
}

// ResolutionEventPayload describes a resolution session transition.
type ResolutionEventPayload struct {
	SessionID      string   `json:"session_id"`
	CustomerRef    string   `json:"customer_ref"`
	ConflictedDays []string `json:"conflicted_days,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
