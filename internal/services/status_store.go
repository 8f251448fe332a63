package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/redis/go-redis/v9"
)

// StatusStore remembers the most recent run. LastRun returns nil, nil
// before the first run.
type StatusStore interface {
	SaveRun(ctx context.Context, status dtos.RunStatus) error
	LastRun(ctx context.Context) (*dtos.RunStatus, error)
}

type MemoryStatusStore struct {
	mu   sync.RWMutex
	last *dtos.RunStatus
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{}
}

func (m *MemoryStatusStore) SaveRun(_ context.Context, status dtos.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &status
	return nil
}

func (m *MemoryStatusStore) LastRun(_ context.Context) (*dtos.RunStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil, nil
	}
	cp := *m.last
	return &cp, nil
}

// RedisStatusStore shares the last run between API replicas.
type RedisStatusStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

const (
	DefaultStatusKey = "jobboard:last_run"
	defaultStatusTTL = 7 * 24 * time.Hour
)

func NewRedisStatusStore(rdb *redis.Client, key string) *RedisStatusStore {
	if key == "" {
		key = DefaultStatusKey
	}
	return &RedisStatusStore{rdb: rdb, key: key, ttl: defaultStatusTTL}
}

func (r *RedisStatusStore) SaveRun(ctx context.Context, status dtos.RunStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal run status: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStatusStore) LastRun(ctx context.Context) (*dtos.RunStatus, error) {
	payload, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", r.key, err)
	}

	var status dtos.RunStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("decode run status: %w", err)
	}
	return &status, nil
}
