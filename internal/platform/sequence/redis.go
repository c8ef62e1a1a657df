package sequence

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/medlab/medlab/internal/platform/db"
)

const redisKeyPrefix = "medlab:seq:"

// Redis keeps counters as Redis integers advanced with INCR.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Next(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisCheck probes the client for the health endpoint.
func RedisCheck(client *redis.Client) db.Check {
	return db.Check{
		Name: "redis",
		Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}
