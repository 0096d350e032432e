package sessionService

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session remembers a settlement slip while its owner picks a match or enters
// stakes for a new record.
type Session struct {
	ID           string                `json:"id"`
	OwnerID      string                `json:"owner_id"`
	Bet          models.ParsedBet      `json:"bet"`
	Raw          *models.RawExtraction `json:"raw,omitempty"`
	CandidateIDs []string              `json:"candidate_ids"`
	WhoPaid      string                `json:"who_paid,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, bool, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) int
}

// NewID returns a session id short enough for a Discord custom id.
func NewID() string {
	return uuid.NewString()
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, s Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok || m.expired(s) {
		return Session{}, false, nil
	}
	return s, true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (m *MemoryStore) Sweep(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.CreatedAt) > m.ttl
}

// RedisStore keeps sessions in Redis so several bot replicas can share them.
// Redis expires keys itself, so Sweep has nothing to do.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func keySession(id string) string { return "bettracker:session:" + id }

func (r *RedisStore) Put(ctx context.Context, s Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, keySession(s.ID), b, r.ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	b, err := r.rdb.Get(ctx, keySession(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, keySession(id)).Err()
}

func (r *RedisStore) Sweep(context.Context) int { return 0 }

func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
