// Package linkstore keeps one-time login tokens in Redis until they are
// consumed or expire. Only a hash of each token is stored.
package linkstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "clouddrive:login:"

// Store saves and atomically consumes login tokens.
type Store interface {
	Save(ctx context.Context, token, email string, ttl time.Duration) error
	// Consume returns the email bound to token and removes it. Unknown or
	// expired tokens yield common.ErrLinkExpired.
	Consume(ctx context.Context, token string) (string, error)
}

// kv is the subset of *redis.Client the store needs.
type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

type RedisStore struct {
	rdb kv
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewRedisClient connects to Redis and checks the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (s *RedisStore) Save(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, hashToken(token), email, ttl).Err(); err != nil {
		return fmt.Errorf("save login token: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) (string, error) {
	email, err := s.rdb.GetDel(ctx, hashToken(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrLinkExpired
		}
		return "", fmt.Errorf("consume login token: %w", err)
	}
	return email, nil
}
