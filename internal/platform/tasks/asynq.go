package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qsrankings/internal/logger"
	"qsrankings/internal/platform/redis"
	"qsrankings/internal/worker"

	"github.com/hibiken/asynq"
)

type AsynqOptions struct {
	Options
	Queue string
	// RetryDelay is the wait before retry n (n starts at 1).
	RetryDelay func(n int) time.Duration
	// CheckInterval is how often scheduled retries are moved back to pending.
	CheckInterval time.Duration
}

// AsynqQueue runs tasks through an in-process asynq server backed by Redis.
// Retry counting and scheduling are done by asynq; the failed handler is
// called from the server's ErrorHandler on the last attempt.
type AsynqQueue struct {
	log      *logger.Logger
	opts     AsynqOptions
	redisOpt asynq.RedisClientOpt
	client   *Client

	mu   sync.Mutex
	seen map[string]struct{}
	// owned holds the tasks enqueued through this queue, by task ID. Anything
	// else found in Redis is left over from another run and is archived.
	owned map[string]*attemptState
}

// attemptState is what one attempt learns that the payload cannot carry.
type attemptState struct {
	failures  []string
	loadedURL string
}

func NewAsynqQueue(r *redis.Service, opts AsynqOptions) *AsynqQueue {
	opts.Options = opts.Options.withDefaults()
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = func(n int) time.Duration {
			d := InitialRetryInterval << (n - 1)
			if d > MaxRetryInterval || d <= 0 {
				d = MaxRetryInterval
			}
			return d
		}
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Second
	}
	return &AsynqQueue{
		log:      logger.New("AsynqQueue"),
		opts:     opts,
		redisOpt: r.AsynqRedisOpt(),
		client:   NewClient(r),
		seen:     make(map[string]struct{}),
		owned:    make(map[string]*attemptState),
	}
}

func (q *AsynqQueue) AddTask(ctx context.Context, t Task) error {
	if t.URL == "" {
		return fmt.Errorf("add task: empty url")
	}
	if t.UniqueKey == "" {
		t.UniqueKey = t.URL
	}
	q.mu.Lock()
	if _, ok := q.seen[t.UniqueKey]; ok {
		q.mu.Unlock()
		return ErrDuplicate
	}
	q.seen[t.UniqueKey] = struct{}{}
	q.mu.Unlock()

	if err := q.client.Enqueue(ctx, t, q.opts.Queue, q.opts.MaxRetries); err != nil {
		q.mu.Lock()
		delete(q.seen, t.UniqueKey)
		q.mu.Unlock()
		return fmt.Errorf("enqueue %s: %w", t.URL, err)
	}
	q.mu.Lock()
	q.owned[t.ID] = &attemptState{}
	q.mu.Unlock()
	q.log.LogDebugf("enqueued %s (max retries %d)", t.URL, q.opts.MaxRetries)
	return nil
}

func (q *AsynqQueue) Run(ctx context.Context, handle Handler, failed FailedHandler) error {
	q.mu.Lock()
	expected := min(len(q.owned), q.opts.MaxRequestsPerCrawl)
	q.mu.Unlock()
	if expected == 0 {
		return nil
	}

	done := make(chan struct{}, expected)
	finish := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}
	var (
		errMu     sync.Mutex
		failedErr error
	)

	srv := asynq.NewServer(q.redisOpt, asynq.Config{
		Concurrency:              1,
		Queues:                   map[string]int{q.opts.Queue: 1},
		DelayedTaskCheckInterval: q.opts.CheckInterval,
		Logger:                   asynqLogger{q.log},
		LogLevel:                 asynq.WarnLevel,
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return q.opts.RetryDelay(n)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			t, decErr := decodeTask(task)
			if decErr != nil {
				q.log.LogError("dropping undecodable task", decErr)
				return
			}
			if !q.owns(t.ID) {
				return
			}
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retried < maxRetry && !errors.Is(err, asynq.SkipRetry) {
				q.log.LogWarnf("attempt %d/%d failed: %v", retried+1, maxRetry+1, err)
				return
			}
			defer finish()
			t.RetryCount = retried
			q.restore(&t)
			if ferr := failed(context.WithoutCancel(ctx), &t); ferr != nil {
				errMu.Lock()
				failedErr = ferr
				errMu.Unlock()
			}
		}),
	})

	mux := worker.NewMux()
	mux.HandleFunc(TaskTypeScrape, func(ctx context.Context, task *asynq.Task) error {
		t, err := decodeTask(task)
		if err != nil {
			// Payload is broken; retrying cannot help.
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		if !q.owns(t.ID) {
			q.log.LogWarnf("archiving %s left over from another run", t.URL)
			return fmt.Errorf("%w: task %s was not enqueued by this run", asynq.SkipRetry, t.ID)
		}
		t.RetryCount, _ = asynq.GetRetryCount(ctx)
		q.restore(&t)
		if err := handle(ctx, &t); err != nil {
			q.record(&t, err)
			return err
		}
		finish()
		return nil
	})

	if err := srv.Start(mux.Mux()); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	defer srv.Shutdown()

	for i := 0; i < expected; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
	}
	errMu.Lock()
	defer errMu.Unlock()
	return failedErr
}

func (q *AsynqQueue) owns(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.owned[id]
	return ok
}

// record keeps the attempt's error and loaded URL for later attempts and the
// failed handler.
func (q *AsynqQueue) record(t *Task, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.owned[t.ID]
	if !ok {
		return
	}
	st.failures = append(st.failures, err.Error())
	if t.LoadedURL != "" {
		st.loadedURL = t.LoadedURL
	}
}

// restore copies recorded attempt state onto a freshly decoded task.
func (q *AsynqQueue) restore(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.owned[t.ID]
	if !ok {
		return
	}
	t.ErrorMessages = append([]string(nil), st.failures...)
	if st.loadedURL != "" {
		t.LoadedURL = st.loadedURL
	}
}

func (q *AsynqQueue) Close() error { return q.client.Close() }

// asynqLogger routes asynq's own logs through our logger.
type asynqLogger struct{ l *logger.Logger }

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
