package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/platform/redis"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/sentinel"
)

const redisKeyPrefix = "otp:challenge:"

// RedisStore keeps challenges in Redis so the attempt counter and TTL
// survive restarts and are shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, ch *Challenge, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Delete(ctx, ch.Email)
	}
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+ch.Email, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, email string) (*Challenge, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+email).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	var ch Challenge
	if err := json.Unmarshal(payload, &ch); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &ch, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}
