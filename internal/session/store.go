package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session id resolves to nothing,
// either because it never existed or because it expired.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions in Redis, keyed by random session ids. The
// cookie carries only the id; all state lives server-side.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a session store with the given idle TTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

// New creates and persists a fresh anonymous session.
func (s *Store) New(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		State:     StateAnonymous,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

// Save persists the session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// Regenerate issues a new session id for the given session, deleting
// the old record. Called on login so a pre-auth session id never
// becomes an authenticated one (session fixation).
func (s *Store) Regenerate(ctx context.Context, sess *Session) error {
	oldID := sess.ID
	sess.ID = uuid.NewString()
	if err := s.Save(ctx, sess); err != nil {
		sess.ID = oldID
		return err
	}
	if err := s.Delete(ctx, oldID); err != nil {
		return err
	}
	return nil
}
