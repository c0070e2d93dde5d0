package dom

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FormValues serializes the successful controls below form the way a browser
// submits them: named and enabled controls only, checkboxes and radios only
// when checked, selects with their selected options and textareas with their
// text.  Button-like inputs are never included.
func (d *Document) FormValues(form *Element) url.Values {
	values := make(url.Values)
	walk(form.node, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		name := attr(n, "name")
		if name == "" || hasAttr(n, "disabled") {
			return true
		}
		switch n.DataAtom {
		case atom.Input:
			switch strings.ToLower(attr(n, "type")) {
			case "submit", "button", "reset", "image", "file":
			case "checkbox", "radio":
				if hasAttr(n, "checked") {
					val, ok := (&Element{node: n}).Attr("value")
					if !ok {
						val = "on"
					}
					values.Add(name, val)
				}
			default:
				values.Add(name, attr(n, "value"))
			}
		case atom.Textarea:
			values.Add(name, (&Element{node: n}).Text())
		case atom.Select:
			for _, v := range selectValues(n) {
				values.Add(name, v)
			}
		}
		return true
	})
	return values
}

// selectValues returns the values of the selected options; a single select
// with no selected option yields its first option.
func selectValues(sel *html.Node) []string {
	var first *html.Node
	selected := make([]string, 0)
	walk(sel, func(n *html.Node) bool {
		if !isElement(n, atom.Option) || hasAttr(n, "disabled") {
			return true
		}
		if first == nil {
			first = n
		}
		if hasAttr(n, "selected") {
			selected = append(selected, optionValue(n))
		}
		return true
	})
	if len(selected) == 0 && first != nil && !hasAttr(sel, "multiple") {
		selected = append(selected, optionValue(first))
	}
	return selected
}

func optionValue(opt *html.Node) string {
	if val, ok := (&Element{node: opt}).Attr("value"); ok {
		return val
	}
	return strings.TrimSpace((&Element{node: opt}).Text())
}
