package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"qsrankings/internal/platform/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAsynqTestQueue(t *testing.T, maxRetries int) *AsynqQueue {
	t.Helper()
	s := miniredis.RunT(t)
	r, err := redis.New(redis.Options{Addr: s.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	q := NewAsynqQueue(r, AsynqOptions{
		Options:       Options{MaxRetries: maxRetries},
		Queue:         "qs-test",
		RetryDelay:    func(int) time.Duration { return 10 * time.Millisecond },
		CheckInterval: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestAsynqQueueRetriesUntilSuccess(t *testing.T) {
	q := newAsynqTestQueue(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, q.AddTask(ctx, NewTask("https://example.com/2020")))

	var (
		mu   sync.Mutex
		seen []int
	)
	err := q.Run(ctx, func(_ context.Context, task *Task) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, task.RetryCount)
		if task.RetryCount < 2 {
			return errors.New("not ready")
		}
		return nil
	}, func(context.Context, *Task) error {
		t.Error("failed handler must not run")
		return nil
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestAsynqQueueExhaustsRetries(t *testing.T) {
	q := newAsynqTestQueue(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, q.AddTask(ctx, NewTask("https://example.com/2020")))

	var (
		mu  sync.Mutex
		got []Task
	)
	err := q.Run(ctx, func(_ context.Context, task *Task) error {
		task.LoadedURL = "https://example.com/2020?redirected=1"
		return errors.New("navigation timeout")
	}, func(_ context.Context, task *Task) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, *task)
		return nil
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].RetryCount)
	assert.Len(t, got[0].ErrorMessages, 3)
	assert.Equal(t, "https://example.com/2020", got[0].URL)
	assert.Equal(t, "https://example.com/2020?redirected=1", got[0].LoadedURL)
}

func TestAsynqQueueDeduplicates(t *testing.T) {
	q := newAsynqTestQueue(t, 0)
	ctx := context.Background()
	require.NoError(t, q.AddTask(ctx, NewTask("https://example.com/2020")))
	assert.ErrorIs(t, q.AddTask(ctx, NewTask("https://example.com/2020")), ErrDuplicate)
}

func TestAsynqQueueRunWithoutTasks(t *testing.T) {
	q := newAsynqTestQueue(t, 0)
	assert.NoError(t, q.Run(context.Background(), nil, nil))
}

func TestAsynqQueueIgnoresLeftoverTasks(t *testing.T) {
	q := newAsynqTestQueue(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// queued by an earlier run that never finished
	require.NoError(t, q.client.Enqueue(ctx, NewTask("https://example.com/2019"), "qs-test", 0))
	require.NoError(t, q.AddTask(ctx, NewTask("https://example.com/2021")))

	var (
		mu      sync.Mutex
		handled []string
		failed  []string
	)
	err := q.Run(ctx, func(_ context.Context, task *Task) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, task.URL)
		return nil
	}, func(_ context.Context, task *Task) error {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, task.URL)
		return nil
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"https://example.com/2021"}, handled)
	assert.Empty(t, failed)
}
