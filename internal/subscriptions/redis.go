package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps bookkeeping in Redis so multiple relay instances share
// one view of which events have been processed.
type RedisStore struct {
	client  *redis.Client
	seenTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, seenTTL time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	if seenTTL <= 0 {
		seenTTL = 72 * time.Hour
	}
	return &RedisStore{client: client, seenTTL: seenTTL}, nil
}

// NewRedisStoreWithClient wraps an existing client, for tests.
func NewRedisStoreWithClient(client *redis.Client, seenTTL time.Duration) *RedisStore {
	if seenTTL <= 0 {
		seenTTL = 72 * time.Hour
	}
	return &RedisStore{client: client, seenTTL: seenTTL}
}

func (s *RedisStore) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	// SETNX: first writer wins, redeliveries observe the existing key.
	ok, err := s.client.SetNX(ctx, seenKey(eventID), time.Now().UTC().Format(time.RFC3339), s.seenTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark event seen: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) SetPlan(ctx context.Context, userID string, plan Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := s.client.Set(ctx, planKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPlan(ctx context.Context, userID string) (Plan, error) {
	data, err := s.client.Get(ctx, planKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return Plan{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	return plan, nil
}

func (s *RedisStore) ClearPlan(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, planKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func seenKey(eventID string) string {
	return "relay:webhook:seen:" + eventID
}

func planKey(userID string) string {
	return "relay:subscription:" + userID
}
