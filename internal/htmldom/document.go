package htmldom

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is an immutable parsed HTML tree identified by its fetch URL.
type Document struct {
	url string
	gq  *goquery.Document
}

// Parse reads and parses an HTML document. The url is retained for
// identification and caching only; it is not fetched here.
func Parse(url string, r io.Reader) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", url, err)
	}
	return &Document{url: url, gq: gq}, nil
}

// URL returns the address the document was fetched from.
func (d *Document) URL() string {
	return d.url
}

// Root returns a cursor at the document's root element (the <html> node).
func (d *Document) Root() Cursor {
	for node := d.gq.Nodes[0].FirstChild; node != nil; node = node.NextSibling {
		if node.Type == html.ElementNode {
			return Cursor{doc: d, node: node}
		}
	}
	return Cursor{doc: d}
}
