package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// ThrottleRedisStore keeps login throttle state in Redis so every API process
// sees the same counters. Values are JSON-encoded ThrottleState records.
type ThrottleRedisStore struct {
	rdb *redis.Client
}

func NewThrottleRedisStore(rdb *redis.Client) *ThrottleRedisStore {
	return &ThrottleRedisStore{rdb: rdb}
}

func (s *ThrottleRedisStore) Get(ctx context.Context, key string) (*models.ThrottleState, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get throttle state: %w", err)
	}

	var state models.ThrottleState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode throttle state: %w", err)
	}
	return &state, nil
}

func (s *ThrottleRedisStore) Set(ctx context.Context, key string, state models.ThrottleState, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode throttle state: %w", err)
	}

	if err := s.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set throttle state: %w", err)
	}
	return nil
}

func (s *ThrottleRedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete throttle state: %w", err)
	}
	return nil
}

// DeletePrefix scans for keys under prefix and deletes them in batches
func (s *ThrottleRedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()

	removed := 0
	batch := make([]string, 0, scanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.rdb.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("failed to delete throttle keys: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan throttle keys: %w", err)
	}

	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
