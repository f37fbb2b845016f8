package worker

import (
	"context"
	"time"

	"qsrankings/internal/logger"

	"github.com/hibiken/asynq"
)

// Mux routes asynq tasks by type and logs each attempt.
type Mux struct {
	mux *asynq.ServeMux
	log *logger.Logger
}

func NewMux() *Mux {
	m := &Mux{mux: asynq.NewServeMux(), log: logger.New("Worker")}
	m.mux.Use(m.logAttempts)
	return m
}

func (m *Mux) HandleFunc(t string, h func(ctx context.Context, task *asynq.Task) error) {
	m.mux.HandleFunc(t, h)
}

func (m *Mux) Mux() *asynq.ServeMux { return m.mux }

func (m *Mux) logAttempts(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		start := time.Now()
		retried, _ := asynq.GetRetryCount(ctx)
		err := next.ProcessTask(ctx, task)
		if err != nil {
			m.log.LogDebugf("%s attempt %d failed after %v: %v", task.Type(), retried+1, time.Since(start), err)
			return err
		}
		m.log.LogDebugf("%s attempt %d done in %v", task.Type(), retried+1, time.Since(start))
		return nil
	})
}
