package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RevocationStore remembers tokens cleared at logout until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked_token:" + hex.EncodeToString(sum[:])
}

// RedisRevocationStore shares revocations across API instances.
type RedisRevocationStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	if client == nil {
		panic("auth: redis client cannot be nil")
	}
	return &RedisRevocationStore{
		redis:  client,
		tracer: otel.Tracer("connectcom.internal.auth.revocation"),
	}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return errors.New("auth: token required")
	}
	ctx, span := s.tracer.Start(ctx, "auth.revoke")
	defer span.End()

	if err := s.redis.Set(ctx, revocationKey(token), "1", ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("auth: persist revocation: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "auth.is_revoked")
	defer span.End()

	err := s.redis.Get(ctx, revocationKey(token)).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	span.RecordError(err)
	return false, fmt.Errorf("auth: load revocation: %w", err)
}

// MemoryRevocationStore is the single-instance fallback when Redis is not configured.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return errors.New("auth: token required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, k)
		}
	}
	s.entries[revocationKey(token)] = now.Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[revocationKey(token)]
	return ok && exp.After(s.now()), nil
}
