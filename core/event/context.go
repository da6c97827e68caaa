package event

import (
	"context"
	"time"
)

type eventMetaCtx struct{}

type eventMeta struct {
	id        string
	topic     string
	createdAt time.Time
}

// WithEventMeta attaches the delivery metadata of e to ctx.
// Buses call it before invoking handlers.
func WithEventMeta(ctx context.Context, e Event) context.Context {
	return context.WithValue(ctx, eventMetaCtx{}, eventMeta{id: e.ID, topic: e.Topic, createdAt: e.CreatedAt})
}

// EventID returns the id of the event being handled, or "".
func EventID(ctx context.Context) string {
	m, _ := ctx.Value(eventMetaCtx{}).(eventMeta)
	return m.id
}

// EventTopic returns the topic of the event being handled, or "".
func EventTopic(ctx context.Context) string {
	m, _ := ctx.Value(eventMetaCtx{}).(eventMeta)
	return m.topic
}

// EventTime returns when the event being handled was published, or the zero time.
func EventTime(ctx context.Context) time.Time {
	m, _ := ctx.Value(eventMetaCtx{}).(eventMeta)
	return m.createdAt
}
