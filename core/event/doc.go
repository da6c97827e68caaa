// Package event provides in-process publish/subscribe buses for lifecycle
// events.
//
// Two buses share the same Publish(ctx, topic, payload) signature, which
// satisfies session.EventBus:
//
//   - Bus delivers synchronously in the publisher's goroutine and returns
//     the joined handler errors.
//   - ChannelBus queues events and delivers them on background workers.
//     Handler errors are logged. Close drains the queue.
//
// # Handlers
//
// Handlers are type-safe through generics:
//
//	bus := event.NewBus()
//	_ = bus.Subscribe(session.TopicStart, event.NewHandlerFunc(
//		func(ctx context.Context, p session.StartPayload) error {
//			log.Info("session started", logger.SessionID(p.SessionID))
//			return nil
//		}))
//
// Payloads arriving as raw JSON or decoded JSON maps are converted to the
// handler's type. Panics are recovered and reported as ErrHandlerPanic.
//
// # Decorators
//
// Decorate composes middleware such as Retry (exponential backoff), Timeout
// and LoggingMiddleware around a handler. WithMiddleware applies middleware
// to every handler a bus subscribes.
//
// Handlers can read delivery metadata with EventID, EventTopic and EventTime.
package event
