package logger

import (
	"log/slog"
	"runtime"
	"strconv"
	"time"
)

// Helpers that receive a zero value return an empty slog.Attr, which slog
// drops, so callers can pass optional values without nil checks.

// Group nests attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error logs err under "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors logs the non-nil errs under "errors", keyed by their position.
func Errors(errs ...error) slog.Attr {
	var as []slog.Attr
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Duration logs d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed logs the time since start under "elapsed".
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Interval logs a recurring period under "interval".
func Interval(d time.Duration) slog.Attr {
	return slog.Duration("interval", d)
}

// ============================================================================
// Sessions
// ============================================================================

// SessionID logs a session id under "session_id".
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// Host logs the originating address of a session.
func Host(host string) slog.Attr {
	if host == "" {
		return slog.Attr{}
	}
	return slog.String("host", host)
}

// State logs a lifecycle state name.
func State(state string) slog.Attr {
	return slog.String("state", state)
}

// Topic logs an event bus topic.
func Topic(topic string) slog.Attr {
	if topic == "" {
		return slog.Attr{}
	}
	return slog.String("topic", topic)
}

// Store logs the name of a storage backend.
func Store(name string) slog.Attr {
	return slog.String("store", name)
}

// ============================================================================
// Generic metadata
// ============================================================================

// ID logs an identifier under key. A nil value is dropped.
func ID(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// Component logs the name of the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event logs an event name.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Action logs an operation name.
func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// Result logs an outcome such as "success" or "failure".
func Result(result string) slog.Attr {
	return slog.String("result", result)
}

// Count logs an integer counter under key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key logs an arbitrary value under key. A nil value is dropped.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// RetryCount logs the attempt number of a retried operation.
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// ============================================================================
// Debugging
// ============================================================================

// Stack logs the current goroutine's stack trace.
func Stack() slog.Attr {
	buf := make([]byte, 64<<10)
	buf = buf[:runtime.Stack(buf, false)]
	return slog.String("stack", string(buf))
}

// Caller logs the file and line of the function calling Caller.
func Caller() slog.Attr {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return slog.Attr{}
	}
	return slog.String("caller", file+":"+strconv.Itoa(line))
}
