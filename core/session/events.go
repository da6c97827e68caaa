package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Lifecycle event topics.
const (
	TopicStart  = "SESSION.START"
	TopicStop   = "SESSION.STOP"
	TopicExpire = "SESSION.EXPIRE"
)

// StartPayload is published with TopicStart.
type StartPayload struct {
	SessionID string `json:"session_id"`
}

// TuplePayload is published with TopicStop and TopicExpire.
type TuplePayload struct {
	Items Tuple `json:"items"`
}

// EventHandler publishes session lifecycle events. It never touches storage.
type EventHandler struct {
	mu  sync.RWMutex
	bus EventBus
}

// NewEventHandler creates an event handler publishing to bus. bus may be nil
// and set later; publishing without a bus fails with ErrSessionEvent.
func NewEventHandler(bus EventBus) *EventHandler {
	return &EventHandler{bus: bus}
}

// SetEventBus replaces the bus.
func (h *EventHandler) SetEventBus(bus EventBus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bus = bus
}

// EventBus returns the configured bus, or nil.
func (h *EventHandler) EventBus() EventBus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bus
}

// NotifyStart publishes TopicStart for a session that already has an id.
func (h *EventHandler) NotifyStart(ctx context.Context, s *Session) error {
	if s == nil || s.ID() == "" {
		return errors.Join(ErrSessionEvent, errors.New("session has no id"))
	}
	return h.publish(ctx, TopicStart, StartPayload{SessionID: s.ID()})
}

// NotifyStop publishes TopicStop with the identifiers and key of the stopped session.
func (h *EventHandler) NotifyStop(ctx context.Context, tuple Tuple) error {
	return h.publish(ctx, TopicStop, TuplePayload{Items: tuple})
}

// NotifyExpiration publishes TopicExpire with the identifiers and key of the expired session.
func (h *EventHandler) NotifyExpiration(ctx context.Context, tuple Tuple) error {
	return h.publish(ctx, TopicExpire, TuplePayload{Items: tuple})
}

func (h *EventHandler) publish(ctx context.Context, topic string, payload any) error {
	bus := h.EventBus()
	if bus == nil {
		return errors.Join(ErrSessionEvent, fmt.Errorf("no event bus configured for %s", topic))
	}
	if err := bus.Publish(ctx, topic, payload); err != nil {
		return errors.Join(ErrSessionEvent, fmt.Errorf("publish %s: %w", topic, err))
	}
	return nil
}
