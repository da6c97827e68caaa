package event

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

// HandlerFunc is a type-safe function signature for processing payloads of type T.
type HandlerFunc[T any] func(context.Context, T) error

// Handler processes payloads published to the topics it is subscribed to.
type Handler interface {
	// Name identifies the handler in logs and errors.
	Name() string

	// Handle processes a single payload.
	Handle(ctx context.Context, payload any) error
}

// NewHandler creates a named handler for payloads of type T.
//
// Example:
//
//	h := event.NewHandler("audit", func(ctx context.Context, p session.TuplePayload) error {
//	    return audit.Record(ctx, p.Items.Key.SessionID)
//	})
//	bus.Subscribe(session.TopicStop, h)
func NewHandler[T any](name string, fn HandlerFunc[T]) Handler {
	return &handlerFuncWrapper[T]{name: name, fn: fn}
}

// NewHandlerFunc creates a handler named after T.
func NewHandlerFunc[T any](fn HandlerFunc[T]) Handler {
	var zero T
	return &handlerFuncWrapper[T]{name: typeName(zero), fn: fn}
}

type handlerFuncWrapper[T any] struct {
	name string
	fn   HandlerFunc[T]
}

func (h *handlerFuncWrapper[T]) Name() string { return h.name }

// Handle converts payload to T and calls the wrapped function.
func (h *handlerFuncWrapper[T]) Handle(ctx context.Context, payload any) error {
	typed, err := unmarshalPayload[T](payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPayloadType, err)
	}
	return h.fn(ctx, typed)
}

// typeName returns the bare type name of v, unwrapping pointers.
// Anonymous and nil-interface types yield "handler".
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "handler"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "handler"
	}
	return t.Name()
}

// unmarshalPayload converts payload to T. Typed values pass through;
// raw JSON and decoded JSON maps are re-decoded into T.
func unmarshalPayload[T any](payload any) (T, error) {
	var zero T

	if v, ok := payload.(T); ok {
		return v, nil
	}

	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case map[string]any:
		b, err := json.Marshal(p)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal map payload: %w", err)
		}
		data = b
	default:
		return zero, fmt.Errorf("unexpected payload type: %T", payload)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return out, nil
}
