package browser

import (
	"context"
	"errors"
	"time"

	"qsrankings/internal/platform/dom"
)

var (
	// ErrTimeout is returned when a wait or navigation exceeds its deadline.
	ErrTimeout = errors.New("browser: timeout")
)

// Browser hands out pages. One page per attempt.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. Every blocking call honours the context deadline.
type Page interface {
	// Goto navigates and waits for DOM content, not network idle.
	Goto(ctx context.Context, url string) error
	// WaitForSelector waits until selector is attached to the DOM.
	WaitForSelector(ctx context.Context, selector string) error
	// SelectOption sets a <select> to value.
	SelectOption(ctx context.Context, selector, value string) error
	// Count returns how many elements match selector right now.
	Count(ctx context.Context, selector string) (int, error)
	// Document snapshots the rendered DOM.
	Document(ctx context.Context) (dom.Document, error)
	// URL is the current (possibly redirected) URL.
	URL() string
	Close() error
}

// timeoutFrom converts the context deadline into the millisecond budget
// playwright expects. def is used when ctx has no deadline.
func timeoutFrom(ctx context.Context, def time.Duration) float64 {
	d := def
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
		if d <= 0 {
			d = time.Millisecond
		}
	}
	return float64(d.Milliseconds())
}
