// Package form defines the server side of a form: its elements, their
// validation rules and the field error descriptors returned to the page.
package form

import (
	"fmt"
	"net/url"
)

const (
	CheckboxInput ElementType = "checkbox"
	ColorInput    ElementType = "color"
	DateInput     ElementType = "date"
	DateTimeInput ElementType = "datetime-local"
	EmailInput    ElementType = "email"
	FileInput     ElementType = "file"
	HiddenInput   ElementType = "hidden"
	ImageInput    ElementType = "image"
	MonthInput    ElementType = "month"
	NumberInput   ElementType = "number"
	PasswordInput ElementType = "password"
	RadioInput    ElementType = "radio"
	RangeInput    ElementType = "range"
	SearchInput   ElementType = "search"
	TelInput      ElementType = "tel"
	TextInput     ElementType = "text"
	TimeInput     ElementType = "time"
	URLInput      ElementType = "url"
	WeekInput     ElementType = "week"
	TextArea      ElementType = "textarea"
	Select        ElementType = "select"
)

// ElementType defines the type of a form input element:
// https://developer.mozilla.org/en-US/docs/Web/HTML/Element/input
type ElementType string

// Form is the top level type for defining the web form for user input.
type Form struct {
	// ID of the form element.  The submission and validation endpoints are
	// derived from it: /<ID>.html and /<ID>Validate.json.
	ID string
	// The Name appears at the top of the form and in the HTML title.
	Name string
	// The Description appears under the Name.
	Description string
	// Each Page creates a section of the form with the included elements.
	Pages []Page
}

// Page represents a section of the form.
type Page struct {
	// The Description appears under the form description.  Use it to provide
	// information about the elements of the specific page.
	Description string
	// Each element creates an input field on the form.
	Elements []Element
}

// Element represents a single form element (field).
type Element struct {
	// ID of the element.  Must be unique.  The error message slot of the
	// element has the ID <ID>_error.
	ID string
	// Name of the element.  Used as key to retrieve the value on submission.
	Name string
	// The Label of the field as it appears on the rendered form.
	Label string
	// If set, the field will be filled with the given value, or the
	// appropriate option will be selected, when rendered.
	Value string
	// Whether the element represents a required form field.
	Required bool
	// An optional description for the field.  If set will be displayed under
	// the input field.  Can be used to provide extra information such as input
	// constraints.
	Description string
	// Type is the HTML input element type.
	Type ElementType
	// ValueList should contain a set of values that represent the permissible
	// or recommended options available to the element.  For input type
	// elements, it represents suggested values (datalist).  For select
	// elements, it represents the values in the list.
	ValueList []string
	// Read only fields can't be edited and are not validated.
	ReadOnly bool
	// Rules are checked in order against non-empty values; the first failing
	// rule produces the field's error.
	Rules []Rule
}

// Elements returns the elements of all pages in order.
func (f *Form) Elements() []Element {
	elems := make([]Element, 0)
	for _, p := range f.Pages {
		elems = append(elems, p.Elements...)
	}
	return elems
}

// Element returns the element with the given name.
func (f *Form) Element(name string) (Element, bool) {
	for _, elem := range f.Elements() {
		if elem.Name == name {
			return elem, true
		}
	}
	return Element{}, false
}

// Validate checks the submitted values and returns one FieldError per
// invalid element, in element order.  If used is not empty, only the named
// elements are checked.
func (f *Form) Validate(values url.Values, used []string) []FieldError {
	var usedSet map[string]bool
	if len(used) > 0 {
		usedSet = make(map[string]bool, len(used))
		for _, name := range used {
			usedSet[name] = true
		}
	}

	errs := make([]FieldError, 0)
	for _, elem := range f.Elements() {
		if elem.Name == "" || elem.ReadOnly {
			continue
		}
		if usedSet != nil && !usedSet[elem.Name] {
			continue
		}
		if msg := elem.check(values.Get(elem.Name)); msg != "" {
			errs = append(errs, FieldError{Name: elem.Name, Msg: msg})
		}
	}
	return errs
}

func (elem *Element) check(value string) string {
	if value == "" {
		if elem.Required {
			return fmt.Sprintf("%s is required", elem.label())
		}
		return ""
	}
	for _, rule := range elem.Rules {
		if msg := rule.Check(value); msg != "" {
			return fmt.Sprintf("%s %s", elem.label(), msg)
		}
	}
	return ""
}

func (elem *Element) label() string {
	if elem.Label != "" {
		return elem.Label
	}
	return elem.Name
}
