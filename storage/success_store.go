// Package storage keeps the last successful order of each session so the
// confirmation page survives a reload.
package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"checkout-service/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces success records.
const KeyPrefix = "orderSuccessData"

// ErrNotFound is returned when a session has no stored record.
var ErrNotFound = errors.New("order success record not found")

type RedisSuccessStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSuccessStore connects to redisURL and verifies the connection.
func NewRedisSuccessStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSuccessStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	return NewRedisSuccessStoreWithClient(client, ttl), nil
}

func NewRedisSuccessStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSuccessStore {
	return &RedisSuccessStore{client: client, ttl: ttl}
}

func (s *RedisSuccessStore) key(sessionID string) string {
	return KeyPrefix + ":" + sessionID
}

func (s *RedisSuccessStore) Save(ctx context.Context, sessionID string, rec models.OrderSuccessRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal success record")
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to store success record for session %s", sessionID)
	}
	return nil
}

func (s *RedisSuccessStore) Load(ctx context.Context, sessionID string) (*models.OrderSuccessRecord, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load success record for session %s", sessionID)
	}
	var rec models.OrderSuccessRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal success record")
	}
	return &rec, nil
}

func (s *RedisSuccessStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return errors.Wrapf(err, "failed to clear success record for session %s", sessionID)
	}
	return nil
}

func (s *RedisSuccessStore) Close() error {
	return s.client.Close()
}

// MemorySuccessStore is used when no Redis URL is configured.
type MemorySuccessStore struct {
	mu      sync.RWMutex
	records map[string]models.OrderSuccessRecord
}

func NewMemorySuccessStore() *MemorySuccessStore {
	return &MemorySuccessStore{records: make(map[string]models.OrderSuccessRecord)}
}

func (s *MemorySuccessStore) Save(_ context.Context, sessionID string, rec models.OrderSuccessRecord) error {
	s.mu.Lock()
	s.records[sessionID] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemorySuccessStore) Load(_ context.Context, sessionID string) (*models.OrderSuccessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemorySuccessStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.records, sessionID)
	s.mu.Unlock()
	return nil
}
