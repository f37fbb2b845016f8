package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qsrankings/internal/logger"
	"qsrankings/internal/platform/dom"

	"github.com/playwright-community/playwright-go"
)

const defaultWait = 30 * time.Second

type Options struct {
	Headless  bool
	UserAgent string
}

// Playwright is a headless Chromium driven through playwright-go.
type Playwright struct {
	log     *logger.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
}

func NewPlaywright(opts Options) (*Playwright, error) {
	log := logger.New("Browser")

	pw, err := playwright.Run()
	if err != nil {
		log.LogErrorf("Failed to start Playwright: %v", err)
		return nil, fmt.Errorf("playwright initialization failed: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--disable-blink-features=AutomationControlled",
			"--no-first-run",
			"--disable-extensions",
		},
	})
	if err != nil {
		_ = pw.Stop()
		log.LogErrorf("Failed to launch browser: %v", err)
		return nil, fmt.Errorf("browser launch failed: %w", err)
	}
	return &Playwright{log: log, pw: pw, browser: b, opts: opts}, nil
}

// NewPage opens a page in a fresh browser context so retries start clean.
func (p *Playwright) NewPage(_ context.Context) (Page, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	}
	if p.opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(p.opts.UserAgent)
	}
	bctx, err := p.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("browser context creation failed: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("page creation failed: %w", err)
	}
	return &playwrightPage{log: p.log, bctx: bctx, page: page}, nil
}

func (p *Playwright) Close() error {
	var errs []error
	if err := p.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type playwrightPage struct {
	log  *logger.Logger
	bctx playwright.BrowserContext
	page playwright.Page
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	p.log.LogDebugf("Navigating to URL: %s", url)
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeoutFrom(ctx, defaultWait)),
	})
	if err != nil {
		return wrap("goto", err)
	}
	return nil
}

func (p *playwrightPage) WaitForSelector(ctx context.Context, selector string) error {
	p.log.LogDebugf("Waiting for selector: %s", selector)
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(timeoutFrom(ctx, defaultWait)),
	})
	if err != nil {
		return wrap("wait for "+selector, err)
	}
	return nil
}

func (p *playwrightPage) SelectOption(ctx context.Context, selector, value string) error {
	_, err := p.page.Locator(selector).First().SelectOption(
		playwright.SelectOptionValues{Values: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(timeoutFrom(ctx, defaultWait))},
	)
	if err != nil {
		return wrap("select "+selector, err)
	}
	return nil
}

func (p *playwrightPage) Count(_ context.Context, selector string) (int, error) {
	n, err := p.page.Locator(selector).Count()
	if err != nil {
		return 0, wrap("count "+selector, err)
	}
	return n, nil
}

func (p *playwrightPage) Document(_ context.Context) (dom.Document, error) {
	html, err := p.page.Content()
	if err != nil {
		return nil, wrap("content", err)
	}
	return dom.FromHTML(html)
}

func (p *playwrightPage) URL() string { return p.page.URL() }

func (p *playwrightPage) Close() error {
	return errors.Join(p.page.Close(), p.bctx.Close())
}

// wrap maps playwright timeouts onto ErrTimeout.
func wrap(op string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
