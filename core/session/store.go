package session

import (
	"context"
	"time"
)

// Key identifies a session for lookup.
// Identifiers is optional caller-supplied context and is never persisted.
type Key struct {
	SessionID   string
	Identifiers any
}

// NewKey returns a key for the given session id.
func NewKey(sessionID string) Key {
	return Key{SessionID: sessionID}
}

// Tuple is the item published with stop and expiration events.
type Tuple struct {
	Identifiers any
	Key         Key
}

// Context carries the data a Factory needs to build a session.
// Zero timeouts fall back to the configured defaults.
type Context struct {
	Host            string
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
}

// Store persists sessions. Implementations must be safe for concurrent use
// and must not retain or hand out session pointers shared with callers.
type Store interface {
	// Create persists a new session, assigns its id and returns it.
	Create(ctx context.Context, s *Session) (string, error)
	// Read returns the session with id, or nil and no error when absent.
	Read(ctx context.Context, id string) (*Session, error)
	// Update overwrites an existing session. It must not recreate a deleted
	// session and returns ErrSessionNotFound when nothing was written.
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, s *Session) error
}

// Lister is implemented by stores that can enumerate active sessions
// for background validation.
type Lister interface {
	ActiveSessionIDs(ctx context.Context) ([]string, error)
}

// CacheHandler caches sessions by id. Get returns nil and no error on a miss.
type CacheHandler interface {
	Get(ctx context.Context, key string) (*Session, error)
	Set(ctx context.Context, key string, s *Session) error
	Delete(ctx context.Context, key string) error
}

// CacheAware is implemented by stores that accept a cache handler.
type CacheAware interface {
	SetCacheHandler(cache CacheHandler)
}

// EventBus publishes lifecycle events. Subscription is the bus's concern.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Factory builds new, unpersisted sessions.
type Factory interface {
	CreateSession(sctx Context) (*Session, error)
}
