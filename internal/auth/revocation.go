package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/ClareAI/astra-admin-console/pkg/redis"
)

// RevocationStore records logout times in Redis so credentials issued
// before a logout stop working on every pod, not just the one that
// served the logout. A nil store (or nil redis) disables the check;
// sessions then expire only through their TTL.
type RevocationStore struct {
	redis redis.RedisServiceInterface
	ttl   time.Duration
}

// NewRevocationStore creates a store whose markers live as long as the
// longest-lived credential, typically the refresh TTL.
func NewRevocationStore(redisService redis.RedisServiceInterface, ttl time.Duration) *RevocationStore {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &RevocationStore{redis: redisService, ttl: ttl}
}

// Revoke invalidates every credential issued to the user up to now.
func (s *RevocationStore) Revoke(ctx context.Context, userID string) error {
	if s == nil || s.redis == nil || userID == "" {
		return nil
	}
	key := s.redis.GenerateKey(redis.SESSION_REVOKE, userID)
	return s.redis.SetValue(ctx, key, strconv.FormatInt(time.Now().Unix(), 10), s.ttl)
}

// IsRevoked reports whether a credential issued at issuedAt has been
// revoked. Redis errors fail open; a redis outage must not lock every
// operator out of the console.
func (s *RevocationStore) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) bool {
	if s == nil || s.redis == nil || userID == "" {
		return false
	}
	key := s.redis.GenerateKey(redis.SESSION_REVOKE, userID)
	val, err := s.redis.GetValue(ctx, key)
	if err != nil {
		return false
	}
	revokedAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false
	}
	// tokens stamped in the same second as the logout count as revoked
	return !issuedAt.After(time.Unix(revokedAt, 0))
}

// Clear drops the revocation marker, typically after a fresh login.
func (s *RevocationStore) Clear(ctx context.Context, userID string) error {
	if s == nil || s.redis == nil || userID == "" {
		return nil
	}
	return s.redis.DelValue(ctx, s.redis.GenerateKey(redis.SESSION_REVOKE, userID))
}
