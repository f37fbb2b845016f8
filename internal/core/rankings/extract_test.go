package rankings_test

import (
	"errors"
	"testing"

	"qsrankings/internal/core/rankings"
	"qsrankings/internal/platform/browser/browsertest"
	"qsrankings/internal/platform/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(t *testing.T, html string) []dom.Node {
	t.Helper()
	doc, err := dom.FromHTML(html)
	require.NoError(t, err)
	return doc.Select(rankings.RowSelector)
}

func TestExtractReadsFieldsVerbatim(t *testing.T) {
	rows := rowsOf(t, browsertest.RankingPage(true,
		browsertest.Row{Title: "Massachusetts Institute of Technology (MIT) ", Rank: "=1", Country: " United States"},
	))
	require.Len(t, rows, 1)

	rec, err := rankings.Extract(rows[0])
	require.NoError(t, err)
	assert.Equal(t, rankings.Record{
		Title:   "Massachusetts Institute of Technology (MIT) ",
		Rank:    "=1",
		Country: " United States",
	}, rec)
}

func TestExtractMissingField(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{
			name:  "no title",
			row:   `<tr><td class="rank"><div class="rank">1</div></td><td class="country"><div>US</div></td></tr>`,
			field: "title",
		},
		{
			name:  "no rank",
			row:   `<tr><td class="uni"><a class="title">MIT</a></td><td class="country"><div>US</div></td></tr>`,
			field: "rank",
		},
		{
			name:  "no country",
			row:   `<tr><td class="rank"><div class="rank">1</div></td><td class="uni"><a class="title">MIT</a></td></tr>`,
			field: "country",
		},
		{
			name:  "country text not wrapped in div",
			row:   `<tr><td class="rank"><div class="rank">1</div></td><td class="uni"><a class="title">MIT</a></td><td class="country">US</td></tr>`,
			field: "country",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := rowsOf(t, `<table id="qs-rankings"><tbody>`+tt.row+`</tbody></table>`)
			require.Len(t, rows, 1)

			_, err := rankings.Extract(rows[0])
			var missing *rankings.MissingFieldError
			require.True(t, errors.As(err, &missing), "got %v", err)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestExtractNilRow(t *testing.T) {
	_, err := rankings.Extract(nil)
	require.Error(t, err)
}

func TestURLForYear(t *testing.T) {
	assert.Equal(t,
		"https://www.topuniversities.com/university-rankings/world-university-rankings/2020",
		rankings.URLForYear(2020))
}
