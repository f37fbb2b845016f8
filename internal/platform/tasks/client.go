package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"qsrankings/internal/platform/redis"

	"github.com/hibiken/asynq"
)

// Client enqueues scrape tasks into Redis.
type Client struct{ c *asynq.Client }

func NewClient(r *redis.Service) *Client { return &Client{c: asynq.NewClient(r.AsynqRedisOpt())} }

func (t *Client) Enqueue(ctx context.Context, task Task, queue string, maxRetries int) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	opts := []asynq.Option{asynq.Queue(queue), asynq.MaxRetry(maxRetries)}
	if task.ID != "" {
		opts = append(opts, asynq.TaskID(task.ID))
	}
	_, err = t.c.EnqueueContext(ctx, asynq.NewTask(TaskTypeScrape, payload), opts...)
	return err
}

func (t *Client) Close() error { return t.c.Close() }

func decodeTask(task *asynq.Task) (Task, error) {
	var t Task
	if err := json.Unmarshal(task.Payload(), &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	return t, nil
}
