package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/core/session"
)

type document struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	Stopped   bool      `bson:"stopped"`
	StartedAt time.Time `bson:"started_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is a session.Store backed by a MongoDB collection. The session is
// kept as its JSON encoding next to the fields queries need.
type Store struct {
	coll *mongo.Collection
}

// New creates a Store on coll.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// EnsureIndexes creates the index used by ActiveSessionIDs.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "stopped", Value: 1}, {Key: "started_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create session index: %w", err)
	}
	return nil
}

func toDocument(sess *session.Session) (document, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return document{}, fmt.Errorf("failed to marshal session: %w", err)
	}
	return document{
		ID:        sess.ID(),
		Data:      string(data),
		Stopped:   sess.IsStopped(),
		StartedAt: sess.StartTimestamp(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Create assigns a random UUID to sess and inserts it.
func (s *Store) Create(ctx context.Context, sess *session.Session) (string, error) {
	if err := sess.AssignID(uuid.New().String()); err != nil {
		return "", err
	}

	doc, err := toDocument(sess)
	if err != nil {
		return "", err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return sess.ID(), nil
}

// Read returns nil and no error when no document matches id.
func (s *Store) Read(ctx context.Context, id string) (*session.Session, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := new(session.Session)
	if err := json.Unmarshal([]byte(doc.Data), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update rewrites an existing document. Missing documents are not recreated.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	doc, err := toDocument(sess)
	if err != nil {
		return err
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: doc.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "data", Value: doc.Data},
			{Key: "stopped", Value: doc.Stopped},
			{Key: "updated_at", Value: doc.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sess *session.Session) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: sess.ID()}}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ActiveSessionIDs returns the ids of sessions not yet stopped, oldest first.
func (s *Store) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "started_at", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.D{{Key: "stopped", Value: false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
