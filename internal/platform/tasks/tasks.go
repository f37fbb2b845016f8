package tasks

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	TaskTypeScrape = "scrape:task"

	DefaultMaxRetries          = 3
	DefaultMaxRequestsPerCrawl = 1
)

// ErrDuplicate is returned by AddTask when the unique key was already queued.
var ErrDuplicate = errors.New("tasks: duplicate unique key")

// Task is one unit of crawl work. URL never changes; RetryCount and
// ErrorMessages are owned by the queue.
type Task struct {
	ID            string   `json:"id"`
	UniqueKey     string   `json:"unique_key"`
	URL           string   `json:"url"`
	Method        string   `json:"method"`
	RetryCount    int      `json:"retry_count"`
	ErrorMessages []string `json:"error_messages,omitempty"`
	// LoadedURL is the final URL after redirects, set by the handler.
	LoadedURL string `json:"loaded_url,omitempty"`
}

// NewTask builds a GET task keyed by its URL.
func NewTask(url string) Task {
	return Task{ID: uuid.NewString(), UniqueKey: url, URL: url, Method: "GET"}
}

// Handler processes one attempt. A non-nil error fails the attempt.
type Handler func(ctx context.Context, t *Task) error

// FailedHandler runs once after a task has used up its retries.
type FailedHandler func(ctx context.Context, t *Task) error

// Queue schedules tasks and owns retry accounting.
type Queue interface {
	AddTask(ctx context.Context, t Task) error
	// Run processes tasks until the queue is drained or the request limit is
	// reached. Every task ends in exactly one of handle succeeding or failed
	// being called.
	Run(ctx context.Context, handle Handler, failed FailedHandler) error
	Close() error
}

// Options shared by queue implementations.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// MaxRequestsPerCrawl caps finished tasks per Run.
	MaxRequestsPerCrawl int
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.MaxRequestsPerCrawl <= 0 {
		o.MaxRequestsPerCrawl = DefaultMaxRequestsPerCrawl
	}
	return o
}
