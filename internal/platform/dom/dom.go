// Package dom is a read-only view over a rendered HTML document. Extraction
// code depends on these interfaces only, so it runs the same against a
// browser snapshot or a test fixture.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is a single element.
type Node interface {
	// First returns the first descendant matching selector.
	First(selector string) (Node, bool)
	// Text returns the element text as rendered, untrimmed.
	Text() string
}

// Document is a rendered page.
type Document interface {
	// Select returns all elements matching selector in document order.
	Select(selector string) []Node
}

type selection struct{ s *goquery.Selection }

func (n selection) First(selector string) (Node, bool) {
	found := n.s.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selection{s: found}, true
}

func (n selection) Text() string { return n.s.Text() }

type document struct{ doc *goquery.Document }

func (d document) Select(selector string) []Node {
	matched := d.doc.Find(selector)
	nodes := make([]Node, 0, matched.Length())
	matched.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selection{s: s})
	})
	return nodes
}

// FromReader parses an HTML document.
func FromReader(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return document{doc: doc}, nil
}

// FromHTML parses an HTML string.
func FromHTML(html string) (Document, error) {
	return FromReader(strings.NewReader(html))
}
