// Package dom provides a small document object model over parsed HTML.  It is
// the page the form controller works on: element lookup by selector, class and
// attribute toggles, markup injection and event dispatch.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selector is a compiled CSS selector.
type Selector struct {
	src string
	sel cascadia.Selector
}

// Compile parses a CSS selector.  Selector groups ("input,select") are
// supported.
func Compile(sel string) (Selector, error) {
	s, err := cascadia.Compile(sel)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	return Selector{src: sel, sel: s}, nil
}

// MustCompile is like Compile but panics if the selector can't be parsed.
func MustCompile(sel string) Selector {
	s, err := Compile(sel)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string {
	return s.src
}

// Document is a parsed HTML page with its registered event listeners.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]*listener
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]*listener),
	}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(page string) (*Document, error) {
	return Parse(strings.NewReader(page))
}

// Find returns all elements in the document matching the selector, in
// document order.
func (d *Document) Find(sel Selector) []*Element {
	return d.find(d.root, sel)
}

// First returns the first element in the document matching the selector, or
// nil.
func (d *Document) First(sel Selector) *Element {
	return d.first(d.root, sel)
}

// ByID returns the element with the given id attribute, or nil.
func (d *Document) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return d.wrap(found)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	buf := new(bytes.Buffer)
	if err := d.Render(buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

func (d *Document) find(from *html.Node, sel Selector) []*Element {
	elems := make([]*Element, 0)
	walk(from, func(n *html.Node) bool {
		if n != from && n.Type == html.ElementNode && sel.sel.Match(n) {
			elems = append(elems, d.wrap(n))
		}
		return true
	})
	return elems
}

func (d *Document) first(from *html.Node, sel Selector) *Element {
	var found *html.Node
	walk(from, func(n *html.Node) bool {
		if n != from && n.Type == html.ElementNode && sel.sel.Match(n) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return d.wrap(found)
}

// forget drops the listeners of every node in the subtree rooted at n.
func (d *Document) forget(n *html.Node) {
	walk(n, func(c *html.Node) bool {
		delete(d.listeners, c)
		return true
	})
}

// walk visits n and its descendants depth first in document order until
// visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}
