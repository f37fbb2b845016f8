package rankings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qsrankings/internal/logger"
	"qsrankings/internal/platform/browser"
	"qsrankings/internal/platform/tasks"
)

type NavigatorOptions struct {
	NavigationTimeout time.Duration
	// ReadyTimeout bounds the wait for the first ranking row. The table is
	// filled by a request that fires after load, so load events are not enough.
	ReadyTimeout time.Duration
	// SettleTimeout bounds the wait for the table to re-render after "show all".
	SettleTimeout time.Duration
	PollInterval  time.Duration

	ReadySelector   string
	ControlSelector string
	ShowAllValue    string
}

func DefaultNavigatorOptions() NavigatorOptions {
	return NavigatorOptions{
		NavigationTimeout: 60 * time.Second,
		ReadyTimeout:      30 * time.Second,
		SettleTimeout:     10 * time.Second,
		PollInterval:      250 * time.Millisecond,
		ReadySelector:     RowSelector,
		ControlSelector:   LengthControlSelector,
		ShowAllValue:      ShowAllValue,
	}
}

// Navigator runs one page attempt. It never retries; failures go back to the
// queue.
type Navigator struct {
	log       *logger.Logger
	browser   browser.Browser
	harvester Harvester
	opts      NavigatorOptions
}

func NewNavigator(b browser.Browser, opts NavigatorOptions) *Navigator {
	def := DefaultNavigatorOptions()
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = def.NavigationTimeout
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = def.ReadyTimeout
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = def.SettleTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.ReadySelector == "" {
		opts.ReadySelector = def.ReadySelector
	}
	if opts.ControlSelector == "" {
		opts.ControlSelector = def.ControlSelector
	}
	if opts.ShowAllValue == "" {
		opts.ShowAllValue = def.ShowAllValue
	}
	return &Navigator{
		log:       logger.New("Navigator"),
		browser:   b,
		harvester: DefaultHarvester(),
		opts:      opts,
	}
}

// Run loads task.URL, shows every row and harvests the table.
func (n *Navigator) Run(ctx context.Context, task *tasks.Task) ([]Record, error) {
	page, err := n.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			n.log.LogWarnf("close page: %v", cerr)
		}
	}()

	if err := n.load(ctx, page, task.URL); err != nil {
		return nil, err
	}
	task.LoadedURL = page.URL()

	if err := n.showAll(ctx, page, task.URL); err != nil {
		return nil, err
	}

	doc, err := page.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", task.URL, err)
	}
	records, err := n.harvester.Harvest(doc)
	if err != nil {
		return nil, fmt.Errorf("harvest %s: %w", task.URL, err)
	}
	n.log.LogDebugf("harvested %d rows from %s", len(records), task.URL)
	return records, nil
}

func (n *Navigator) load(ctx context.Context, page browser.Page, url string) error {
	gotoCtx, cancel := context.WithTimeout(ctx, n.opts.NavigationTimeout)
	defer cancel()
	if err := page.Goto(gotoCtx, url); err != nil {
		return n.classify(ctx, url, "goto", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, n.opts.ReadyTimeout)
	defer cancel()
	if err := page.WaitForSelector(readyCtx, n.opts.ReadySelector); err != nil {
		return n.classify(ctx, url, "ready", err)
	}
	return nil
}

func (n *Navigator) showAll(ctx context.Context, page browser.Page, url string) error {
	controls, err := page.Count(ctx, n.opts.ControlSelector)
	if err != nil {
		return fmt.Errorf("look up %s: %w", n.opts.ControlSelector, err)
	}
	if controls == 0 {
		return &ControlNotFoundError{URL: url, Selector: n.opts.ControlSelector}
	}

	before, err := page.Count(ctx, n.harvester.RowSelector)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	if err := page.SelectOption(ctx, n.opts.ControlSelector, n.opts.ShowAllValue); err != nil {
		return n.classify(ctx, url, "select", err)
	}
	return n.settle(ctx, page, url, before)
}

// settle polls the row count until it has moved away from before and then
// held still for two polls at a non-zero count. If it never moves within
// SettleTimeout the table already showed every row, which is fine as long as
// there are rows. A table that empties out never settles.
func (n *Navigator) settle(ctx context.Context, page browser.Page, url string, before int) error {
	settleCtx, cancel := context.WithTimeout(ctx, n.opts.SettleTimeout)
	defer cancel()

	ticker := time.NewTicker(n.opts.PollInterval)
	defer ticker.Stop()

	last, stable, changed := before, 0, false
	for {
		select {
		case <-settleCtx.Done():
			if err := ctx.Err(); err != nil {
				return &NavigationTimeoutError{URL: url, Stage: "settle", Err: err}
			}
			if last > 0 {
				n.log.LogDebugf("row count stayed at %d after show-all on %s", last, url)
				return nil
			}
			return &NavigationTimeoutError{URL: url, Stage: "settle", Err: settleCtx.Err()}
		case <-ticker.C:
		}

		count, err := page.Count(ctx, n.harvester.RowSelector)
		if err != nil {
			return fmt.Errorf("count rows: %w", err)
		}
		if count != before {
			changed = true
		}
		if count == last {
			stable++
		} else {
			last, stable = count, 0
		}
		if changed && stable >= 2 && last > 0 {
			n.log.LogDebugf("table settled at %d rows (was %d) on %s", count, before, url)
			return nil
		}
	}
}

// classify turns deadline failures into NavigationTimeoutError.
func (n *Navigator) classify(ctx context.Context, url, stage string, err error) error {
	if errors.Is(err, browser.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return &NavigationTimeoutError{URL: url, Stage: stage, Err: err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &NavigationTimeoutError{URL: url, Stage: stage, Err: ctxErr}
	}
	return fmt.Errorf("%s %s: %w", stage, url, err)
}
