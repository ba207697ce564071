package tokenstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore хранит пару в Redis-хэше с полями accessToken/refreshToken.
// Нужен, когда одну сессию делят несколько реплик локального прокси.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если key пустой — используется "storefront:credentials".
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	const op = "tokenstore.redis.New"

	if key == "" {
		key = "storefront:credentials"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &RedisStore{rdb: rdb, key: key}, nil
}

func (s *RedisStore) Get(ctx context.Context) (Pair, error) {
	const op = "tokenstore.redis.Get"

	m, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	p := Pair{AccessToken: m[KeyAccessToken], RefreshToken: m[KeyRefreshToken]}
	if p.validate() != nil {
		return Pair{}, nil
	}

	return p, nil
}

// Set перезаписывает хэш в одной транзакции: DEL + HSET.
func (s *RedisStore) Set(ctx context.Context, p Pair) error {
	const op = "tokenstore.redis.Set"

	if err := p.validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	pipe.HSet(ctx, s.key, map[string]string{
		KeyAccessToken:  p.AccessToken,
		KeyRefreshToken: p.RefreshToken,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	const op = "tokenstore.redis.Clear"

	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
