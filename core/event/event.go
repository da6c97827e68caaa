package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a published payload together with its delivery metadata.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent wraps payload for topic with a fresh UUID and the current time.
func NewEvent(topic string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
