package event

import "errors"

var (
	// ErrBufferFull is returned when the channel bus queue is full.
	ErrBufferFull = errors.New("event buffer is full")

	// ErrBusClosed is returned when publishing to a closed channel bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("event handler is nil")

	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("event handler panicked")

	// ErrPayloadType is returned when a payload cannot be converted to the handler's type.
	ErrPayloadType = errors.New("unexpected event payload type")
)
