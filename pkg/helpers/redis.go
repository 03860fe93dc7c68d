package helpers

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the hash key holding an authenticated principal's session.
// Sessions are written by the auth backend; this service only reads them.
func SessionKey(principalID string) string {
	return "user:session:" + principalID
}

// SessionExists reports whether an active session hash is present for the
// principal.
func SessionExists(ctx context.Context, rdb *redis.Client, principalID string) (bool, error) {
	n, err := rdb.Exists(ctx, SessionKey(principalID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
