package htmldom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Cursor references one element node within one document. The zero value is
// the empty cursor; every operation on an empty cursor yields an empty result.
type Cursor struct {
	doc  *Document
	node *html.Node
}

// IsEmpty reports whether the cursor references no node.
func (c Cursor) IsEmpty() bool {
	return c.node == nil
}

// Document returns the document the cursor points into, or nil when empty.
func (c Cursor) Document() *Document {
	return c.doc
}

func (c Cursor) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(c.node).Selection
}

// Select returns the descendants of the cursor matching m, in document order.
func (c Cursor) Select(m cascadia.Matcher) []Cursor {
	if c.IsEmpty() {
		return nil
	}
	nodes := cascadia.QueryAll(c.node, m)
	out := make([]Cursor, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, Cursor{doc: c.doc, node: node})
	}
	return out
}

// Parent walks n levels up the parent chain.
func (c Cursor) Parent(n int) (Cursor, error) {
	if c.IsEmpty() {
		return Cursor{}, nil
	}
	node := c.node
	for level := 0; level < n; level++ {
		parent := node.Parent
		if parent == nil || parent.Type != html.ElementNode {
			return Cursor{}, fmt.Errorf("parent(%d): only %d ancestors available", n, level)
		}
		node = parent
	}
	return Cursor{doc: c.doc, node: node}, nil
}

// Prev moves to the nth preceding element sibling (1 is the nearest).
func (c Cursor) Prev(n int) (Cursor, error) {
	if c.IsEmpty() {
		return Cursor{}, nil
	}
	seen := 0
	for node := c.node.PrevSibling; node != nil; node = node.PrevSibling {
		if node.Type != html.ElementNode {
			continue
		}
		seen++
		if seen == n {
			return Cursor{doc: c.doc, node: node}, nil
		}
	}
	return Cursor{}, fmt.Errorf("prev(%d): only %d preceding siblings available", n, seen)
}

// Nth moves to the nth following element sibling (1 is the nearest).
func (c Cursor) Nth(n int) (Cursor, error) {
	if c.IsEmpty() {
		return Cursor{}, nil
	}
	seen := 0
	for node := c.node.NextSibling; node != nil; node = node.NextSibling {
		if node.Type != html.ElementNode {
			continue
		}
		seen++
		if seen == n {
			return Cursor{doc: c.doc, node: node}, nil
		}
	}
	return Cursor{}, fmt.Errorf("nth(%d): only %d following siblings available", n, seen)
}

// Attr returns the value of the named attribute, or "" when absent.
func (c Cursor) Attr(name string) string {
	if c.IsEmpty() {
		return ""
	}
	for _, attr := range c.node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// Text returns the concatenated text content of the subtree.
func (c Cursor) Text() string {
	if c.IsEmpty() {
		return ""
	}
	return c.selection().Text()
}

// HTML returns the outer HTML of the element.
func (c Cursor) HTML() string {
	if c.IsEmpty() {
		return ""
	}
	rendered, err := goquery.OuterHtml(c.selection())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(rendered)
}
