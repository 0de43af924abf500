package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventRecordCreated     = "record_created"
	EventRecordUpdated     = "record_updated"
	EventRecordDeleted     = "record_deleted"
	EventRecordsBulkCost   = "records_bulk_cost_updated"
	EventRecordsBulkDelete = "records_bulk_deleted"
	EventMechanicCreated   = "mechanic_created"
	EventMechanicDeleted   = "mechanic_deleted"
)

// RecordEventPayload is the minimal record snapshot for event consumers.
type RecordEventPayload struct {
	RecordID     string  `json:"record_id"`
	VehicleModel string  `json:"vehicle_model"`
	VehicleID    string  `json:"vehicle_id"`
	ServiceType  string  `json:"service_type"`
	Cost         float64 `json:"cost"`
}

// BulkEventPayload describes a substring bulk operation.
type BulkEventPayload struct {
	Model   string  `json:"model"`
	Cost    float64 `json:"cost,omitempty"`
	Matched bool    `json:"matched"`
}

// MechanicEventPayload identifies a roster change.
type MechanicEventPayload struct {
	MechanicID string `json:"mechanic_id"`
	Name       string `json:"name,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
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

// PublishJSON serializes the payload and publishes an event. A nil bus
// drops the event, so publishers need no nil checks.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
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
