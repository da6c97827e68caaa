package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and single-instance deployments.
// It keeps clones, so callers never share session memory with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create assigns a random UUID to s and stores a copy.
func (m *MemoryStore) Create(ctx context.Context, s *Session) (string, error) {
	if err := s.AssignID(uuid.New().String()); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s.Clone()

	return s.ID(), nil
}

func (m *MemoryStore) Read(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

// Update replaces the stored copy. An unknown session is left absent and
// reported with ErrSessionNotFound.
func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID()]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[s.ID()] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID())
	return nil
}

// ActiveSessionIDs returns the ids of sessions not yet stopped or expired.
func (m *MemoryStore) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if !s.IsStopped() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
