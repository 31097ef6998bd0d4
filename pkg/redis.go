package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/catprep/mocktest-service/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the session store and verifies the
// connection up front so startup fails fast.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}
