// File: services/dialog/store.go
package dialog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"aerovoice/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "dialog:sess:"

// SessionStore persists dialog sessions for their lifetime. Sessions share no
// state with one another; the store is the only thing they have in common.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.DialogSession, error)
	Save(ctx context.Context, sess *models.DialogSession) error
	Delete(ctx context.Context, sessionID string) error
	// Stale returns sessions idle since before the cutoff, for the sweeper.
	Stale(ctx context.Context, cutoff time.Time) ([]*models.DialogSession, error)
}

// RedisSessionStore keeps sessions in Redis with a TTL, so abandoned sessions
// expire on their own even if the sweeper is down.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.DialogSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess models.DialogSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *models.DialogSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+sess.SessionID, b, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (s *RedisSessionStore) Stale(ctx context.Context, cutoff time.Time) ([]*models.DialogSession, error) {
	var stale []*models.DialogSession
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var sess models.DialogSession
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			continue
		}
		if sess.LastActivityAt.Before(cutoff) && !sess.Stage.Terminal() {
			stale = append(stale, &sess)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return stale, nil
}

// MemorySessionStore is the in-process store used by tests and single-node
// development runs.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.DialogSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.DialogSession)}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*models.DialogSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	// Copy through JSON so callers never share the stored value.
	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	var out models.DialogSession
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *models.DialogSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	var copied models.DialogSession
	if err := json.Unmarshal(b, &copied); err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sess.SessionID] = &copied
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Stale(_ context.Context, cutoff time.Time) ([]*models.DialogSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []*models.DialogSession
	for _, sess := range s.sessions {
		if sess.LastActivityAt.Before(cutoff) && !sess.Stage.Terminal() {
			stale = append(stale, sess)
		}
	}
	return stale, nil
}
