package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/sessionkit/core/session"
)

type published struct {
	topic   string
	payload any
}

// recordingBus captures every publish.
type recordingBus struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (b *recordingBus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, published{topic: topic, payload: payload})
	return nil
}

func (b *recordingBus) byTopic(topic string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []any
	for _, e := range b.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

// countingStore wraps a MemoryStore and counts calls.
type countingStore struct {
	*session.MemoryStore

	creates atomic.Int32
	reads   atomic.Int32
	updates atomic.Int32
	deletes atomic.Int32

	mu        sync.Mutex
	updateErr error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: session.NewMemoryStore()}
}

func (s *countingStore) Create(ctx context.Context, sess *session.Session) (string, error) {
	s.creates.Add(1)
	return s.MemoryStore.Create(ctx, sess)
}

func (s *countingStore) Read(ctx context.Context, id string) (*session.Session, error) {
	s.reads.Add(1)
	return s.MemoryStore.Read(ctx, id)
}

func (s *countingStore) Update(ctx context.Context, sess *session.Session) error {
	s.updates.Add(1)
	s.mu.Lock()
	err := s.updateErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Update(ctx, sess)
}

func (s *countingStore) Delete(ctx context.Context, sess *session.Session) error {
	s.deletes.Add(1)
	return s.MemoryStore.Delete(ctx, sess)
}

func (s *countingStore) failUpdates(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
