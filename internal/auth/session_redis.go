package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces session keys in a shared Redis.
const sessionKeyPrefix = "vidhub:session:"

// casScript swaps KEYS[1] from ARGV[1] to ARGV[2] with a PX of ARGV[3].
// Returns 1 when swapped, 0 otherwise. Runs atomically on the server.
var casScript = goredis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == ARGV[1] then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
  return 1
end
return 0
`)

// RedisSessionStore keeps session digests in Redis with the refresh TTL,
// so an idle session disappears when its refresh token would have expired.
type RedisSessionStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client goredis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(accountID string) string {
	return sessionKeyPrefix + accountID
}

// Rotate overwrites the live session digest.
func (s *RedisSessionStore) Rotate(ctx context.Context, accountID, token string) error {
	if err := s.client.Set(ctx, sessionKey(accountID), HashToken(token), s.ttl).Err(); err != nil {
		return fmt.Errorf("rotating session: %w", err)
	}
	return nil
}

// CompareAndRotate swaps the digest with a server-side Lua script.
func (s *RedisSessionStore) CompareAndRotate(ctx context.Context, accountID, current, next string) (bool, error) {
	swapped, err := casScript.Run(ctx, s.client,
		[]string{sessionKey(accountID)},
		HashToken(current), HashToken(next), s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rotating session: %w", err)
	}
	return swapped == 1, nil
}

// Clear deletes the session key.
func (s *RedisSessionStore) Clear(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, sessionKey(accountID)).Err(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Get returns the live session digest.
func (s *RedisSessionStore) Get(ctx context.Context, accountID string) (string, bool, error) {
	digest, err := s.client.Get(ctx, sessionKey(accountID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session: %w", err)
	}
	return digest, true, nil
}
