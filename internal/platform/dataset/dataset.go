// Package dataset holds append-only output sinks. Items are written in the
// order they are pushed and are never read back, updated or deleted.
package dataset

import (
	"context"
	"sync"
)

type Sink interface {
	Push(ctx context.Context, items ...interface{}) error
	Close() error
}

// Memory keeps items in process. Used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	items []interface{}
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Push(_ context.Context, items ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

// Items returns a copy of everything pushed so far.
func (m *Memory) Items() []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interface{}(nil), m.items...)
}

func (m *Memory) Close() error { return nil }
