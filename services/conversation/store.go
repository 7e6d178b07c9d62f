package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"concierge/models"
)

const contextKeyPrefix = "conv:ctx:"

// SessionState is the persisted per-session conversation state: the slot
// context plus what the assistant last said (needed for anti-repetition).
type SessionState struct {
	Context   models.ConversationContext `json:"context"`
	LastReply string                     `json:"lastReply,omitempty"`
}

// ContextStore is the optional persistence port for session state. The
// engine is correct with the in-memory implementation for a single process;
// the Redis implementation lets a session survive reconnects.
type ContextStore interface {
	Get(ctx context.Context, sessionID string) (*SessionState, error)
	Set(ctx context.Context, sessionID string, state *SessionState) error
	Clear(ctx context.Context, sessionID string) error
}

// RedisContextStore persists session state as JSON with a TTL.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	key := contextKeyPrefix + sessionID
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return &SessionState{}, nil
	}
	if err != nil {
		return nil, err
	}
	var state SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RedisContextStore) Set(ctx context.Context, sessionID string, state *SessionState) error {
	key := contextKeyPrefix + sessionID
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, sessionID string) error {
	key := contextKeyPrefix + sessionID
	return s.client.Del(ctx, key).Err()
}

// MemoryContextStore keeps session state in process memory.
type MemoryContextStore struct {
	mu     sync.RWMutex
	states map[string]SessionState
}

func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{states: make(map[string]SessionState)}
}

func (s *MemoryContextStore) Get(_ context.Context, sessionID string) (*SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.states[sessionID]
	return &state, nil
}

func (s *MemoryContextStore) Set(_ context.Context, sessionID string, state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = *state
	return nil
}

func (s *MemoryContextStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}
