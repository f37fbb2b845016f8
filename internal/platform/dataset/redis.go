package dataset

import (
	"context"
	"fmt"

	rds "qsrankings/internal/platform/redis"
)

// Redis appends JSON items to the list dataset:<name>.
type Redis struct {
	redis *rds.Service
	key   string
}

func NewRedis(r *rds.Service, name string) *Redis {
	return &Redis{redis: r, key: Key(name)}
}

// Key is the Redis list holding dataset name.
func Key(name string) string { return "dataset:" + name }

func (r *Redis) Push(ctx context.Context, items ...interface{}) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := r.redis.AppendJSON(ctx, r.key, items...); err != nil {
		return fmt.Errorf("push to %s: %w", r.key, err)
	}
	return nil
}

// Close leaves the shared Redis connection open; its owner closes it.
func (r *Redis) Close() error { return nil }
