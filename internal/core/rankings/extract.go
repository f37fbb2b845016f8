package rankings

import (
	"fmt"

	"qsrankings/internal/platform/dom"
)

// Extractor maps one table row to a Record.
type Extractor struct {
	TitleSelector   string
	RankSelector    string
	CountrySelector string
}

// DefaultExtractor uses the live page selectors.
func DefaultExtractor() Extractor {
	return Extractor{
		TitleSelector:   TitleSelector,
		RankSelector:    RankSelector,
		CountrySelector: CountrySelector,
	}
}

// Extract reads the three fields of row verbatim.
func (e Extractor) Extract(row dom.Node) (Record, error) {
	title, err := field(row, "title", e.TitleSelector)
	if err != nil {
		return Record{}, err
	}
	rank, err := field(row, "rank", e.RankSelector)
	if err != nil {
		return Record{}, err
	}
	country, err := field(row, "country", e.CountrySelector)
	if err != nil {
		return Record{}, err
	}
	return Record{Title: title, Rank: rank, Country: country}, nil
}

// Extract applies DefaultExtractor to row.
func Extract(row dom.Node) (Record, error) {
	return DefaultExtractor().Extract(row)
}

func field(row dom.Node, name, selector string) (string, error) {
	if row == nil {
		return "", fmt.Errorf("extract %s: nil row", name)
	}
	n, ok := row.First(selector)
	if !ok {
		return "", &MissingFieldError{Field: name, Selector: selector}
	}
	return n.Text(), nil
}
