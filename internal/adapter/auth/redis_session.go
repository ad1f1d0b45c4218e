// Package auth adapts the external session identity oracle.
//
// Sessions are minted by a separate identity service; this adapter only
// resolves bearer tokens to an identity and never creates or refreshes them.
package auth

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// sessionKeyPrefix namespaces session tokens in Redis.
const sessionKeyPrefix = "session:"

// RedisSessionStore implements domain.SessionStore against Redis.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore constructs a session store from a Redis URL.
func NewRedisSessionStore(redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("op=auth.NewRedisSessionStore: %w", err)
	}
	return &RedisSessionStore{rdb: redis.NewClient(opts)}, nil
}

// NewRedisSessionStoreFromClient wraps an existing client; used by tests with
// miniredis.
func NewRedisSessionStoreFromClient(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

type sessionRecord struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// Resolve looks up a bearer token. Unknown or expired tokens map to
// domain.ErrUnauthorized; malformed stored records are treated the same way
// so a corrupt session can never authenticate.
func (s *RedisSessionStore) Resolve(ctx domain.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, fmt.Errorf("op=auth.Resolve: empty token: %w", domain.ErrUnauthorized)
	}
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return domain.Identity{}, fmt.Errorf("op=auth.Resolve: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("op=auth.Resolve: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.UserID == "" {
		return domain.Identity{}, fmt.Errorf("op=auth.Resolve: malformed session: %w", domain.ErrUnauthorized)
	}
	return domain.Identity{UserID: rec.UserID, Admin: rec.Admin}, nil
}

// Ping reports Redis reachability for readiness checks.
func (s *RedisSessionStore) Ping(ctx domain.Context) error {
	return s.rdb.Ping(ctx).Err()
}
