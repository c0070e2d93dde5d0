package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle to an element node of a Document.  Handles stay valid
// only while the node is attached; see Attached.
type Element struct {
	doc  *Document
	node *html.Node
}

// Same reports whether both handles refer to the same node.
func (e *Element) Same(o *Element) bool {
	return o != nil && e.node == o.node
}

// Tag returns the lower case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return attr(e.node, "id")
}

// Name returns the name attribute.
func (e *Element) Name() string {
	return attr(e.node, "name")
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func (e *Element) SetAttr(key, val string) {
	for idx := range e.node.Attr {
		if e.node.Attr[idx].Key == key {
			e.node.Attr[idx].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Key != key {
			attrs = append(attrs, a)
		}
	}
	e.node.Attr = attrs
}

// ReadOnly reports whether the element carries the readonly attribute.
func (e *Element) ReadOnly() bool {
	return hasAttr(e.node, "readonly")
}

// Disabled reports whether the element carries the disabled attribute.
func (e *Element) Disabled() bool {
	return hasAttr(e.node, "disabled")
}

// Classes returns the entries of the class attribute.
func (e *Element) Classes() []string {
	return strings.Fields(attr(e.node, "class"))
}

// HasClass reports whether class is one of the element's classes.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class unless it is already set.
func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	e.SetAttr("class", strings.Join(append(e.Classes(), class), " "))
}

// RemoveClass removes every occurrence of class.
func (e *Element) RemoveClass(class string) {
	if _, ok := e.Attr("class"); !ok {
		return
	}
	kept := make([]string, 0)
	for _, c := range e.Classes() {
		if c != class {
			kept = append(kept, c)
		}
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// Hide sets an inline display:none.
func (e *Element) Hide() {
	decls := e.styleWithout("display")
	e.SetAttr("style", strings.Join(append(decls, "display: none"), "; "))
}

// Show removes any inline display declaration.
func (e *Element) Show() {
	decls := e.styleWithout("display")
	if len(decls) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", strings.Join(decls, "; "))
}

// Visible reports whether the element has no inline display:none.
func (e *Element) Visible() bool {
	for _, decl := range strings.Split(attr(e.node, "style"), ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(prop) == "display" && strings.TrimSpace(val) == "none" {
			return false
		}
	}
	return true
}

func (e *Element) styleWithout(prop string) []string {
	kept := make([]string, 0)
	for _, decl := range strings.Split(attr(e.node, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		if p, _, _ := strings.Cut(decl, ":"); strings.TrimSpace(p) == prop {
			continue
		}
		kept = append(kept, decl)
	}
	return kept
}

// Value returns the current value of a form control: the value attribute for
// inputs, the text for textareas, and the selected (or first) option for
// selects.
func (e *Element) Value() string {
	switch e.node.DataAtom {
	case atom.Textarea:
		return e.Text()
	case atom.Select:
		vals := selectValues(e.node)
		if len(vals) == 0 {
			return ""
		}
		return vals[0]
	}
	return attr(e.node, "value")
}

// SetValue updates the value of a form control.
func (e *Element) SetValue(val string) {
	switch e.node.DataAtom {
	case atom.Textarea:
		e.setChildren([]*html.Node{{Type: html.TextNode, Data: val}})
	case atom.Select:
		walk(e.node, func(n *html.Node) bool {
			if isElement(n, atom.Option) {
				setBoolAttr(n, "selected", optionValue(n) == val)
			}
			return true
		})
	default:
		e.SetAttr("value", val)
	}
}

// Checked reports whether a checkbox or radio input is checked.
func (e *Element) Checked() bool {
	return hasAttr(e.node, "checked")
}

// SetChecked checks or unchecks a checkbox or radio input.
func (e *Element) SetChecked(checked bool) {
	setBoolAttr(e.node, "checked", checked)
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var sb strings.Builder
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return true
	})
	return sb.String()
}

// HTML returns the inner HTML of the element.
func (e *Element) HTML() string {
	buf := new(bytes.Buffer)
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// SetInnerHTML replaces the children of the element with the parsed markup.
// Listeners registered on the replaced nodes are dropped.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.node)
	if err != nil {
		return err
	}
	e.setChildren(nodes)
	return nil
}

// AppendHTML parses the markup and appends it to the element's children.
func (e *Element) AppendHTML(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.node)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

// Remove detaches the element from the document.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	e.doc.forget(e.node)
}

// Attached reports whether the element is still part of its document.
func (e *Element) Attached() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// Find returns the descendants matching the selector in document order.
func (e *Element) Find(sel Selector) []*Element {
	return e.doc.find(e.node, sel)
}

// First returns the first descendant matching the selector, or nil.
func (e *Element) First(sel Selector) *Element {
	return e.doc.first(e.node, sel)
}

// Matches reports whether the element itself matches the selector.
func (e *Element) Matches(sel Selector) bool {
	return sel.sel.Match(e.node)
}

func (e *Element) setChildren(nodes []*html.Node) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		e.doc.forget(c)
		c = next
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
}

func setBoolAttr(n *html.Node, key string, on bool) {
	el := &Element{node: n}
	if on {
		el.SetAttr(key, key)
		return
	}
	el.RemoveAttr(key)
}
