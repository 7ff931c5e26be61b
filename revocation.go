package credo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore is the time-bounded denylist of tokens withdrawn before
// their natural expiry. Keys are the raw token string (stores hash it
// before persisting); values are a sentinel; entries self-expire at the
// token's own expiry, so the store never grows unbounded.
//
// Revoke never decodes the token: a malformed token simply is never found
// revoked and fails at the codec instead.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenStr string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenStr string) (bool, error)
}

// revocationKey hashes the raw token so the denylist never stores usable
// bearer credentials.
func revocationKey(prefix, tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// RedisRevocationStore backs the denylist with Redis, relying on native
// per-key TTL for expiry. Safe for concurrent use.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRevocationStore wraps an already connected client. The caller
// owns the client's lifecycle; credo only issues commands on it.
func NewRedisRevocationStore(client *redis.Client, prefix string) *RedisRevocationStore {
	if prefix == "" {
		prefix = "credo:bl"
	}
	return &RedisRevocationStore{client: client, prefix: prefix}
}

// Revoke denylists the token for ttl. A non-positive ttl means the token
// is already past expiry and there is nothing to block.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenStr string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revocationKey(s.prefix, tokenStr), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: revocation store: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the token is currently denylisted.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenStr string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(s.prefix, tokenStr)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: revocation store: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}
