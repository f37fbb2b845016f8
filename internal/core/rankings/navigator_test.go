package rankings_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"qsrankings/internal/core/rankings"
	"qsrankings/internal/platform/browser"
	"qsrankings/internal/platform/browser/browsertest"
	"qsrankings/internal/platform/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() rankings.NavigatorOptions {
	opts := rankings.DefaultNavigatorOptions()
	opts.NavigationTimeout = time.Second
	opts.ReadyTimeout = time.Second
	opts.SettleTimeout = 100 * time.Millisecond
	opts.PollInterval = 5 * time.Millisecond
	return opts
}

func manyRows(n int) []browsertest.Row {
	rows := make([]browsertest.Row, n)
	for i := range rows {
		rows[i] = browsertest.Row{Title: fmt.Sprintf("University %d", i+1), Rank: fmt.Sprint(i + 1), Country: "US"}
	}
	return rows
}

func TestNavigatorShowsAllRows(t *testing.T) {
	page := browsertest.Ready(rankings.RowSelector, rankings.LengthControlSelector, manyRows(25)...)
	page.FinalURL = "https://www.topuniversities.com/university-rankings/world-university-rankings/2020?tab=indicators"
	b := &browsertest.Browser{Pages: []*browsertest.Page{page}}
	nav := rankings.NewNavigator(b, fastOptions())

	task := tasks.NewTask(rankings.URLForYear(2020))
	got, err := nav.Run(context.Background(), &task)
	require.NoError(t, err)

	require.Len(t, got, 25)
	assert.Equal(t, "University 1", got[0].Title)
	assert.Equal(t, "25", got[24].Rank)
	assert.Equal(t, page.FinalURL, task.LoadedURL)
	assert.Equal(t, []string{rankings.URLForYear(2020)}, page.Visited)
	assert.Equal(t, []string{"#qs-rankings > tbody > tr .uni .title"}, page.Waited)
	assert.True(t, page.Closed)
}

func TestNavigatorAcceptsTableThatDoesNotGrow(t *testing.T) {
	rows := []browsertest.Row{
		{Title: "MIT", Rank: "1", Country: "US"},
		{Title: "Stanford", Rank: "2", Country: "US"},
		{Title: "Harvard", Rank: "3", Country: "US"},
	}
	page := browsertest.Ready(rankings.RowSelector, rankings.LengthControlSelector, rows...)
	nav := rankings.NewNavigator(&browsertest.Browser{Pages: []*browsertest.Page{page}}, fastOptions())

	task := tasks.NewTask(rankings.URLForYear(2019))
	got, err := nav.Run(context.Background(), &task)
	require.NoError(t, err)
	assert.Equal(t, []rankings.Record{
		{Title: "MIT", Rank: "1", Country: "US"},
		{Title: "Stanford", Rank: "2", Country: "US"},
		{Title: "Harvard", Rank: "3", Country: "US"},
	}, got)
}

func TestNavigatorMissingControl(t *testing.T) {
	page := browsertest.Ready(rankings.RowSelector, rankings.LengthControlSelector, manyRows(3)...)
	page.Counts[rankings.LengthControlSelector] = 0
	nav := rankings.NewNavigator(&browsertest.Browser{Pages: []*browsertest.Page{page}}, fastOptions())

	task := tasks.NewTask(rankings.URLForYear(2020))
	got, err := nav.Run(context.Background(), &task)
	assert.Nil(t, got)
	var notFound *rankings.ControlNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Equal(t, rankings.LengthControlSelector, notFound.Selector)
	assert.True(t, page.Closed)
}

func TestNavigatorTimeouts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *browsertest.Page)
		stage string
	}{
		{
			name:  "goto",
			setup: func(p *browsertest.Page) { p.GotoErr = fmt.Errorf("goto: %w", browser.ErrTimeout) },
			stage: "goto",
		},
		{
			name:  "readiness",
			setup: func(p *browsertest.Page) { p.ReadyErr = fmt.Errorf("wait: %w", browser.ErrTimeout) },
			stage: "ready",
		},
		{
			name: "empty table after show all",
			setup: func(p *browsertest.Page) {
				p.Counts[rankings.RowSelector] = 0
				p.CountsAfterSelect[rankings.RowSelector] = 0
			},
			stage: "settle",
		},
		{
			name: "table emptied after show all",
			setup: func(p *browsertest.Page) {
				p.Counts[rankings.RowSelector] = 10
				p.CountsAfterSelect[rankings.RowSelector] = 0
				p.HTML = browsertest.RankingPage(true)
			},
			stage: "settle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.Ready(rankings.RowSelector, rankings.LengthControlSelector, manyRows(3)...)
			tt.setup(page)
			nav := rankings.NewNavigator(&browsertest.Browser{Pages: []*browsertest.Page{page}}, fastOptions())

			task := tasks.NewTask(rankings.URLForYear(2020))
			_, err := nav.Run(context.Background(), &task)
			var timeout *rankings.NavigationTimeoutError
			require.True(t, errors.As(err, &timeout), "got %v", err)
			assert.Equal(t, tt.stage, timeout.Stage)
		})
	}
}

func TestNavigatorCancelledAttempt(t *testing.T) {
	page := browsertest.Ready(rankings.RowSelector, rankings.LengthControlSelector, manyRows(3)...)
	nav := rankings.NewNavigator(&browsertest.Browser{Pages: []*browsertest.Page{page}}, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task := tasks.NewTask(rankings.URLForYear(2020))
	got, err := nav.Run(ctx, &task)
	assert.Nil(t, got)
	require.Error(t, err)
}

func TestNavigatorPropagatesMissingField(t *testing.T) {
	page := browsertest.Ready(rankings.RowSelector, rankings.LengthControlSelector, manyRows(3)...)
	page.HTML = `<div id="qs-rankings_length"><select></select></div><table id="qs-rankings"><tbody><tr><td>changed layout</td></tr></tbody></table>`
	nav := rankings.NewNavigator(&browsertest.Browser{Pages: []*browsertest.Page{page}}, fastOptions())

	task := tasks.NewTask(rankings.URLForYear(2020))
	got, err := nav.Run(context.Background(), &task)
	assert.Nil(t, got)
	var missing *rankings.MissingFieldError
	require.True(t, errors.As(err, &missing), "got %v", err)
}

func TestNavigatorNewPageError(t *testing.T) {
	nav := rankings.NewNavigator(&browsertest.Browser{NewPageErr: errors.New("browser crashed")}, fastOptions())

	task := tasks.NewTask(rankings.URLForYear(2020))
	_, err := nav.Run(context.Background(), &task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser crashed")
}
