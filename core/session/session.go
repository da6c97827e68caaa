package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// IdentifiersAttributeKey is the internal attribute under which the identifiers
// of the principal bound to a session are stored.
const IdentifiersAttributeKey = "identifiers_session_key"

// State is the lifecycle state of a session.
type State int

const (
	// StateActive sessions can be read, mutated and touched.
	StateActive State = iota
	// StateStopped sessions were ended explicitly.
	StateStopped
	// StateExpired sessions breached their idle or absolute timeout.
	StateExpired
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is the server-held state of one interaction context.
//
// A Session is not safe for concurrent mutation. Stores and caches hand out
// clones, and the Manager assumes at most one in-flight mutation per session id.
type Session struct {
	id              string
	startTimestamp  time.Time
	stopTimestamp   time.Time
	lastAccessTime  time.Time
	idleTimeout     time.Duration
	absoluteTimeout time.Duration
	host            string
	expired         bool

	attributes         Attributes
	internalAttributes Attributes
}

// New creates an active session that started at now.
// A non-positive timeout disables the corresponding check.
func New(now time.Time, host string, idleTimeout, absoluteTimeout time.Duration) *Session {
	return &Session{
		startTimestamp:  now,
		lastAccessTime:  now,
		idleTimeout:     idleTimeout,
		absoluteTimeout: absoluteTimeout,
		host:            host,
	}
}

// ID returns the session id, or an empty string until a store assigns one.
func (s *Session) ID() string { return s.id }

// AssignID sets the session id. It may be called exactly once.
func (s *Session) AssignID(id string) error {
	if id == "" {
		return errors.Join(ErrInvalidArgument, errors.New("session id must not be empty"))
	}
	if s.id != "" {
		return errors.Join(ErrIllegalState, fmt.Errorf("session id already assigned: %s", s.id))
	}
	s.id = id
	return nil
}

// StartTimestamp returns when the session was created.
func (s *Session) StartTimestamp() time.Time { return s.startTimestamp }

// StopTimestamp returns when the session was stopped or expired; zero while active.
func (s *Session) StopTimestamp() time.Time { return s.stopTimestamp }

// LastAccessTime returns the last time the session was touched.
func (s *Session) LastAccessTime() time.Time { return s.lastAccessTime }

func (s *Session) IdleTimeout() time.Duration { return s.idleTimeout }

func (s *Session) AbsoluteTimeout() time.Duration { return s.absoluteTimeout }

// Host returns the originating network address, if known.
func (s *Session) Host() string { return s.host }

func (s *Session) SetIdleTimeout(d time.Duration) { s.idleTimeout = d }

func (s *Session) SetAbsoluteTimeout(d time.Duration) { s.absoluteTimeout = d }

// State derives the lifecycle state from the stop timestamp and expiry flag.
func (s *Session) State() State {
	switch {
	case s.stopTimestamp.IsZero():
		return StateActive
	case s.expired:
		return StateExpired
	default:
		return StateStopped
	}
}

// IsStopped reports whether the session left the active state for any reason.
func (s *Session) IsStopped() bool { return !s.stopTimestamp.IsZero() }

// IsExpired reports whether the session was expired.
func (s *Session) IsExpired() bool { return s.State() == StateExpired }

// Touch advances the last access time to now. Earlier times are ignored.
func (s *Session) Touch(now time.Time) {
	if now.After(s.lastAccessTime) {
		s.lastAccessTime = now
	}
}

// Stop moves an active session to the stopped state.
func (s *Session) Stop(now time.Time) error {
	switch s.State() {
	case StateStopped:
		return errors.Join(ErrInvalidSession, ErrStoppedSession)
	case StateExpired:
		return errors.Join(ErrInvalidSession, ErrExpiredSession)
	}
	s.stopTimestamp = now
	return nil
}

// Expire moves an active session to the expired state.
// Sessions that are already stopped or expired are left untouched.
func (s *Session) Expire(now time.Time) {
	if s.IsStopped() {
		return
	}
	s.stopTimestamp = now
	s.expired = true
}

// IsTimedOut reports whether either timeout has been breached at now.
func (s *Session) IsTimedOut(now time.Time) bool {
	if s.absoluteTimeout > 0 && now.Sub(s.startTimestamp) > s.absoluteTimeout {
		return true
	}
	if s.idleTimeout > 0 && now.Sub(s.lastAccessTime) > s.idleTimeout {
		return true
	}
	return false
}

// Validate checks the session's own state and timeouts at now.
// It never mutates the session; the Handler reacts to the result.
func (s *Session) Validate(now time.Time) Validation {
	switch s.State() {
	case StateStopped:
		return invalid(ErrStoppedSession)
	case StateExpired:
		return expired()
	}
	if s.IsTimedOut(now) {
		return expired()
	}
	return Validation{Kind: ValidationValid}
}

// Attribute returns an application attribute.
func (s *Session) Attribute(key string) (any, bool) { return s.attributes.Get(key) }

// SetAttribute stores an application attribute.
func (s *Session) SetAttribute(key string, value any) { s.attributes.Set(key, value) }

// RemoveAttribute deletes an application attribute and returns its previous value.
func (s *Session) RemoveAttribute(key string) any { return s.attributes.Remove(key) }

// AttributeKeys returns application attribute keys in insertion order.
func (s *Session) AttributeKeys() []string { return s.attributes.Keys() }

// InternalAttribute returns a framework-private attribute.
func (s *Session) InternalAttribute(key string) (any, bool) {
	return s.internalAttributes.Get(key)
}

// SetInternalAttribute stores a framework-private attribute.
func (s *Session) SetInternalAttribute(key string, value any) {
	s.internalAttributes.Set(key, value)
}

// RemoveInternalAttribute deletes a framework-private attribute and returns its previous value.
func (s *Session) RemoveInternalAttribute(key string) any {
	return s.internalAttributes.Remove(key)
}

// InternalAttributeKeys returns framework-private attribute keys in insertion order.
func (s *Session) InternalAttributeKeys() []string { return s.internalAttributes.Keys() }

// Identifiers returns the identifiers bound to the session, if any.
func (s *Session) Identifiers() any {
	v, _ := s.internalAttributes.Get(IdentifiersAttributeKey)
	return v
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.attributes = s.attributes.Clone()
	c.internalAttributes = s.internalAttributes.Clone()
	return &c
}

// alignLastAccessToStop records the stop time as the final access.
func (s *Session) alignLastAccessToStop() {
	if s.stopTimestamp.After(s.lastAccessTime) {
		s.lastAccessTime = s.stopTimestamp
	}
}

type sessionJSON struct {
	ID                 string        `json:"id"`
	StartTimestamp     time.Time     `json:"start_timestamp"`
	StopTimestamp      *time.Time    `json:"stop_timestamp,omitempty"`
	LastAccessTime     time.Time     `json:"last_access_time"`
	IdleTimeout        time.Duration `json:"idle_timeout"`
	AbsoluteTimeout    time.Duration `json:"absolute_timeout"`
	Host               string        `json:"host,omitempty"`
	Expired            bool          `json:"expired,omitempty"`
	Attributes         Attributes    `json:"attributes"`
	InternalAttributes Attributes    `json:"internal_attributes"`
}

// MarshalJSON encodes the full session, including internal attributes.
// Intended for stores and caches, never for application output.
func (s *Session) MarshalJSON() ([]byte, error) {
	w := sessionJSON{
		ID:                 s.id,
		StartTimestamp:     s.startTimestamp,
		LastAccessTime:     s.lastAccessTime,
		IdleTimeout:        s.idleTimeout,
		AbsoluteTimeout:    s.absoluteTimeout,
		Host:               s.host,
		Expired:            s.expired,
		Attributes:         s.attributes,
		InternalAttributes: s.internalAttributes,
	}
	if !s.stopTimestamp.IsZero() {
		stop := s.stopTimestamp
		w.StopTimestamp = &stop
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a session encoded by MarshalJSON.
// Attribute values come back as their generic JSON types.
func (s *Session) UnmarshalJSON(data []byte) error {
	var w sessionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}
	*s = Session{
		id:                 w.ID,
		startTimestamp:     w.StartTimestamp,
		lastAccessTime:     w.LastAccessTime,
		idleTimeout:        w.IdleTimeout,
		absoluteTimeout:    w.AbsoluteTimeout,
		host:               w.Host,
		expired:            w.Expired,
		attributes:         w.Attributes,
		internalAttributes: w.InternalAttributes,
	}
	if w.StopTimestamp != nil {
		s.stopTimestamp = *w.StopTimestamp
	}
	return nil
}
