package main

import (
	"fmt"

	"github.com/G-Node/reform/reform/form"
)

// demoTypes are the element types shown on the demo page of the example form.
var demoTypes = []form.ElementType{form.CheckboxInput, form.ColorInput, form.DateInput, form.EmailInput, form.NumberInput, form.RadioInput, form.TelInput, form.TextInput, form.URLInput, form.TextArea, form.Select}

// exampleForm is served when the configuration defines no form.
func exampleForm() form.Form {
	account := form.Page{
		Description: "Account",
		Elements: []form.Element{
			{
				ID:       "signup_email",
				Name:     "email",
				Label:    "Email",
				Type:     form.EmailInput,
				Required: true,
				Rules:    []form.Rule{form.Email()},
			},
			{
				ID:          "signup_password",
				Name:        "password",
				Label:       "Password",
				Description: "At least 8 characters.",
				Type:        form.PasswordInput,
				Required:    true,
				Rules:       []form.Rule{form.MinLength(8), form.MaxLength(64)},
			},
			{
				ID:          "signup_age",
				Name:        "age",
				Label:       "Age",
				Description: "Leave empty if you prefer not to say.",
				Type:        form.NumberInput,
				Rules:       []form.Rule{form.Integer(13, 130)},
			},
		},
	}

	demoElements := make([]form.Element, len(demoTypes))
	for idx, elemType := range demoTypes {
		demoElements[idx] = form.Element{
			ID:          fmt.Sprintf("demo_%s", elemType),
			Name:        fmt.Sprintf("demo_%s", elemType),
			Label:       fmt.Sprintf("Element type %s", elemType),
			Description: fmt.Sprintf("An element of type %s", elemType),
			ValueList: []string{ // will only have effect on the types where it's valid
				fmt.Sprintf("%s option one", elemType),
				fmt.Sprintf("%s option two", elemType),
				fmt.Sprintf("%s option three", elemType),
			},
			Type: elemType,
		}
	}

	return form.Form{
		ID:          "signup",
		Name:        "Example form",
		Description: "Fields are validated when they lose focus and again on submission.",
		Pages: []form.Page{
			account,
			{Description: "One of each element type", Elements: demoElements},
		},
	}
}
