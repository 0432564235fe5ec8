package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskdesk/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_URL with bounded timeouts so a
// slow or absent Redis never stalls a request for long. A failed startup ping is
// logged, not fatal: callers treat Redis as best-effort.
func NewRedisClient(cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis url: %w", err)
	}

	opts.DialTimeout = cfg.Timeout
	opts.ReadTimeout = cfg.Timeout
	opts.WriteTimeout = cfg.Timeout

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable at startup", slog.String("addr", opts.Addr), slog.Any("error", err))
	} else {
		logger.Info("redis connection established", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))
	}

	return rdb, nil
}
