// Package browsertest provides a scripted browser for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"qsrankings/internal/platform/browser"
	"qsrankings/internal/platform/dom"
)

// Page is one scripted tab.
type Page struct {
	GotoErr   error
	ReadyErr  error
	SelectErr error
	// Counts maps a selector to its element count.
	Counts map[string]int
	// CountsAfterSelect overrides Counts once SelectOption succeeded.
	CountsAfterSelect map[string]int
	HTML              string
	FinalURL          string

	mu       sync.Mutex
	selected bool
	Visited  []string
	// Waited lists the selectors passed to WaitForSelector.
	Waited []string
	Closed bool
}

func (p *Page) Goto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Visited = append(p.Visited, url)
	return p.GotoErr
}

func (p *Page) WaitForSelector(ctx context.Context, selector string) error {
	p.mu.Lock()
	p.Waited = append(p.Waited, selector)
	p.mu.Unlock()
	if p.ReadyErr != nil {
		return p.ReadyErr
	}
	return ctx.Err()
}

func (p *Page) SelectOption(_ context.Context, _, _ string) error {
	if p.SelectErr != nil {
		return p.SelectErr
	}
	p.mu.Lock()
	p.selected = true
	p.mu.Unlock()
	return nil
}

func (p *Page) Count(_ context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected {
		if n, ok := p.CountsAfterSelect[selector]; ok {
			return n, nil
		}
	}
	return p.Counts[selector], nil
}

func (p *Page) Document(_ context.Context) (dom.Document, error) {
	return dom.FromHTML(p.HTML)
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FinalURL != "" {
		return p.FinalURL
	}
	if len(p.Visited) == 0 {
		return ""
	}
	return p.Visited[len(p.Visited)-1]
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Browser hands out Pages in order, repeating the last one.
type Browser struct {
	Pages      []*Page
	NewPageErr error

	mu     sync.Mutex
	opened int
}

func (b *Browser) NewPage(_ context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	if len(b.Pages) == 0 {
		return nil, errors.New("browsertest: no pages scripted")
	}
	i := b.opened
	if i >= len(b.Pages) {
		i = len(b.Pages) - 1
	}
	b.opened++
	return b.Pages[i], nil
}

// Opened is the number of NewPage calls so far.
func (b *Browser) Opened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

func (b *Browser) Close() error { return nil }

// Row is one university row of the fixture table.
type Row struct {
	Title   string
	Rank    string
	Country string
}

// RankingPage renders a page shaped like the live ranking table, with the
// "results per page" control when withControl is set.
func RankingPage(withControl bool, rows ...Row) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	if withControl {
		sb.WriteString(`<div id="qs-rankings_length"><label>Results per page <select>` +
			`<option value="10">10</option><option value="-1">All</option></select></label></div>`)
	}
	sb.WriteString(`<table id="qs-rankings"><thead><tr><th>Rank</th><th>University</th><th>Location</th></tr></thead><tbody>`)
	for _, r := range rows {
		fmt.Fprintf(&sb, `<tr><td class="rank"><div class="rank">%s</div></td>`+
			`<td class="uni"><div class="td-wrap"><a class="title" href="#">%s</a></div></td>`+
			`<td class="country"><div>%s</div></td></tr>`,
			html.EscapeString(r.Rank), html.EscapeString(r.Title), html.EscapeString(r.Country))
	}
	sb.WriteString("</tbody></table></body></html>")
	return sb.String()
}

// Ready builds a page that loads, shows rows and has the control.
func Ready(rowSelector, controlSelector string, rows ...Row) *Page {
	return &Page{
		Counts:            map[string]int{rowSelector: min(len(rows), 10), controlSelector: 1},
		CountsAfterSelect: map[string]int{rowSelector: len(rows)},
		HTML:              RankingPage(true, rows...),
	}
}
