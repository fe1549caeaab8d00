package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys are namespaced per console principal so one redis can back many
// concurrent console sessions.
const (
	accessSuffix  = "access"
	refreshSuffix = "refresh"
)

// Both tokens of a principal live and die together on logout.
const clearScript = `
redis.call("DEL", KEYS[1])
redis.call("DEL", KEYS[2])
return 1
`

var clearLua = redis.NewScript(clearScript)

// RedisStore is a durable TokenStore over a shared redis client.
type RedisStore struct {
	rdb       *redis.Client
	prefix    string
	principal string
	accessTTL time.Duration
}

// NewRedisStore returns a RedisStore for one console principal. accessTTL
// bounds how long a mirrored access token survives in redis; zero means
// 12 hours.
func NewRedisStore(rdb *redis.Client, prefix, principal string, accessTTL time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client required")
	}
	if prefix == "" {
		prefix = "hospauth"
	}
	if principal == "" {
		return nil, errors.New("principal required")
	}
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	return &RedisStore{rdb: rdb, prefix: prefix, principal: principal, accessTTL: accessTTL}, nil
}

func (s *RedisStore) key(suffix string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, suffix, s.principal)
}

func (s *RedisStore) get(ctx context.Context, suffix string) (string, error) {
	val, err := s.rdb.Get(ctx, s.key(suffix)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, accessSuffix)
}

func (s *RedisStore) SetAccessToken(ctx context.Context, tok string) error {
	if err := s.rdb.Set(ctx, s.key(accessSuffix), tok, s.accessTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) ClearAccessToken(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key(accessSuffix)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, refreshSuffix)
}

// SetRefreshToken writes the refresh token with the expiry the issuer gave
// it. An expiry in the past clears the key instead of writing a dead token.
func (s *RedisStore) SetRefreshToken(ctx context.Context, tok string, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return s.ClearRefreshToken(ctx)
	}
	if err := s.rdb.Set(ctx, s.key(refreshSuffix), tok, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) ClearRefreshToken(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key(refreshSuffix)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear removes both tokens in one round trip.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys := []string{s.key(accessSuffix), s.key(refreshSuffix)}
	if err := clearLua.Run(ctx, s.rdb, keys).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
