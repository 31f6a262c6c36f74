package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Put(ctx context.Context, st State) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Stored states are cloned on
// the way in and out so callers never share a ledger.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, st State) error {
	if st.ID == "" {
		return errors.New("session id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.ID] = st.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// RedisStore keeps each session as a JSON value that expires after ttl of
// inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (r *RedisStore) Get(ctx context.Context, id string) (State, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to get session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return st.Clone(), nil
}

func (r *RedisStore) Put(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(st.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
