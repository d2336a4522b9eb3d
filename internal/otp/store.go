package otp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists hashed codes keyed by email with an expiration.
type Store interface {
	Save(ctx context.Context, email, hash string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// RedisStore keeps codes in Redis with native TTL expiry
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed code store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, codeKey(email), hash, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (string, error) {
	hash, err := s.client.Get(ctx, codeKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("verification code not found")
		}
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}
	return hash, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, codeKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}

func codeKey(email string) string {
	return "otp:code:" + email
}

// MemoryStore keeps codes in memory. Used when no Redis address is
// configured and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]memoryEntry
}

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = memoryEntry{hash: hash, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[email]
	if !ok {
		return "", fmt.Errorf("verification code not found")
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.codes, email)
		return "", fmt.Errorf("verification code expired")
	}
	return entry.hash, nil
}

func (s *MemoryStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}
