package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/core/session"
)

const (
	defaultPrefix = "sessionkit:session:"

	// noExpiryScore ranks index members of stores without a TTL (2100-01-01).
	noExpiryScore = 4102444800
)

// Store is a session.Store backed by Redis. Sessions are stored as JSON
// strings. Active session ids live in a sorted set scored by key expiry so
// ActiveSessionIDs never scans the keyspace.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	clock  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix. The index key is prefix + "index".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires session keys ttl after their last write. Zero keeps them
// until deleted, which leaves expiry decisions to the session handler.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = max(ttl, 0)
	}
}

// WithClock sets the time source used to score the index.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a Store on client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string { return s.prefix + id }

func (s *Store) indexKey() string { return s.prefix + "index" }

func (s *Store) score() float64 {
	if s.ttl == 0 {
		return noExpiryScore
	}
	return float64(s.clock().Add(s.ttl).Unix())
}

// Create assigns a random UUID to sess and writes it with its index entry.
func (s *Store) Create(ctx context.Context, sess *session.Session) (string, error) {
	if err := sess.AssignID(uuid.New().String()); err != nil {
		return "", err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sess.ID()), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: s.score(), Member: sess.ID()})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save session to redis: %w", err)
	}

	return sess.ID(), nil
}

// Read returns the session, or nil when the key is absent or expired.
func (s *Store) Read(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	sess := new(session.Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update overwrites an existing session. A missing key is left missing and
// reported with session.ErrSessionNotFound. Stopped sessions leave the index.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	set := pipe.SetXX(ctx, s.key(sess.ID()), data, s.ttl)
	if sess.IsStopped() {
		pipe.ZRem(ctx, s.indexKey(), sess.ID())
	} else {
		pipe.ZAddXX(ctx, s.indexKey(), redis.Z{Score: s.score(), Member: sess.ID()})
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to update session in redis: %w", err)
	}
	if !set.Val() {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sess *session.Session) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sess.ID()))
	pipe.ZRem(ctx, s.indexKey(), sess.ID())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// ActiveSessionIDs prunes index entries whose keys have expired and returns
// the rest.
func (s *Store) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(s.clock().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune session index: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}
