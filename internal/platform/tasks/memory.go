package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qsrankings/internal/logger"

	"github.com/cenkalti/backoff/v4"
)

const (
	InitialRetryInterval = 500 * time.Millisecond
	MaxRetryInterval     = 5 * time.Second
)

// MemoryQueue is an in-process FIFO queue.
type MemoryQueue struct {
	log  *logger.Logger
	opts Options
	// newBackOff builds the delay policy between attempts of one task.
	newBackOff func() backoff.BackOff

	mu      sync.Mutex
	pending []Task
	seen    map[string]struct{}
	handled int
}

func NewMemoryQueue(opts Options) *MemoryQueue {
	return &MemoryQueue{
		log:  logger.New("MemoryQueue"),
		opts: opts.withDefaults(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = InitialRetryInterval
			b.MaxInterval = MaxRetryInterval
			b.MaxElapsedTime = 0
			return b
		},
		seen: make(map[string]struct{}),
	}
}

// WithBackOff replaces the delay policy. Tests use backoff.ZeroBackOff.
func (q *MemoryQueue) WithBackOff(f func() backoff.BackOff) *MemoryQueue {
	q.newBackOff = f
	return q
}

func (q *MemoryQueue) AddTask(_ context.Context, t Task) error {
	if t.URL == "" {
		return fmt.Errorf("add task: empty url")
	}
	if t.UniqueKey == "" {
		t.UniqueKey = t.URL
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.seen[t.UniqueKey]; ok {
		return ErrDuplicate
	}
	q.seen[t.UniqueKey] = struct{}{}
	q.pending = append(q.pending, t)
	return nil
}

func (q *MemoryQueue) next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 || q.handled >= q.opts.MaxRequestsPerCrawl {
		return Task{}, false
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	return t, true
}

func (q *MemoryQueue) Run(ctx context.Context, handle Handler, failed FailedHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, ok := q.next()
		if !ok {
			return nil
		}
		if err := q.process(ctx, &t, handle, failed); err != nil {
			return err
		}
		q.mu.Lock()
		q.handled++
		q.mu.Unlock()
	}
}

// process runs attempts for t until one succeeds or retries are exhausted.
// Only errors from failed, or a cancelled ctx, are returned.
func (q *MemoryQueue) process(ctx context.Context, t *Task, handle Handler, failed FailedHandler) error {
	b := backoff.WithContext(q.newBackOff(), ctx)
	for {
		err := handle(ctx, t)
		if err == nil {
			return nil
		}
		t.ErrorMessages = append(t.ErrorMessages, err.Error())
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if t.RetryCount >= q.opts.MaxRetries {
			q.log.LogWarnf("task %s exhausted %d retries: %v", t.URL, q.opts.MaxRetries, err)
			return failed(ctx, t)
		}
		t.RetryCount++
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return ctx.Err()
		}
		q.log.LogWarnf("task %s failed, retry %d/%d in %s: %v", t.URL, t.RetryCount, q.opts.MaxRetries, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (q *MemoryQueue) Close() error { return nil }
