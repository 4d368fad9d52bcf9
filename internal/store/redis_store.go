package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/config"
)

const (
	codeKeyPrefix = "bridge:code:"
)

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(conf *config.RedisConfig) *redisStore {
	return &redisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
	}
}

func NewRedisStoreWithClient(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (s *redisStore) Put(ctx context.Context, code string, expiresIn int, ttl time.Duration) error {
	if err := s.client.Set(ctx, codeKeyPrefix+code, expiresIn, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store authorization code in redis: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, code string) (int, bool, error) {
	data, err := s.client.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get authorization code from redis: %w", err)
	}
	expiresIn, err := strconv.Atoi(data)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse stored expiry value: %w", err)
	}
	return expiresIn, true, nil
}
