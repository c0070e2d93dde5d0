package reform

import (
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options configures a Controller.  Start from DefaultOptions or LoadOptions
// and override what is needed.  Empty strings fall back to the defaults but
// booleans can't: a struct literal leaves ValidationURLAppend and
// ActivateOnAjaxSubmitSuccess false although both default to true.
type Options struct {
	// Validation endpoint.  If empty it is built from the form's action and
	// ValidationURLSuffix.
	ValidationURL string `yaml:"validationUrl"`
	// Suffix of the derived validation endpoint.
	ValidationURLSuffix string `yaml:"validationUrlSuffix"`
	// Append the suffix to the action; otherwise the action's extension is
	// replaced.
	ValidationURLAppend bool `yaml:"validationUrlAppend"`
	// Validate on every field blur.
	LiveValidation bool `yaml:"liveValidation"`
	// Validate via ajax before allowing a submit.
	AjaxValidationOnSubmit bool `yaml:"ajaxValidationOnSubmit"`
	// Submit via ajax instead of navigating.
	AjaxPost bool `yaml:"ajaxPost"`
	// Replace the form div with the returned content and re-activate the form
	// after a successful ajax submit.
	ActivateOnAjaxSubmitSuccess bool `yaml:"activateOnAjaxSubmitSuccess"`
	// Invoked with the raw response after a successful ajax submit, after the
	// form was re-activated.
	OnAjaxSubmitSuccess func(body string) `yaml:"-"`
	// Region replaced with returned content.  Selectors containing '#' are
	// resolved in the whole document, others inside the form.
	FormDivSelector string `yaml:"formDivSelector"`
	// Class of the submit buttons and links.
	SubmitClass string `yaml:"submitClass"`
	// Request parameter carrying the used field names.
	UsedFieldsParamName string `yaml:"usedFieldsParamName"`
	// Class added to fields with errors.
	ErrorClass string `yaml:"errorClass"`
	// Class of the error message elements.
	ErrorMsgClass string `yaml:"errorMsgClass"`
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		ValidationURLSuffix:         "Validate.json",
		ValidationURLAppend:         true,
		LiveValidation:              false,
		AjaxValidationOnSubmit:      false,
		AjaxPost:                    false,
		ActivateOnAjaxSubmitSuccess: true,
		FormDivSelector:             "div.form",
		SubmitClass:                 "submit",
		UsedFieldsParamName:         "usedFieldNames",
		ErrorClass:                  "error",
		ErrorMsgClass:               "error_msg",
	}
}

// LoadOptions reads YAML options over the defaults.  Keys missing from the
// document keep their default value.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && err != io.EOF {
		return Options{}, err
	}
	return opts.withDefaults(), nil
}

func (opts Options) withDefaults() Options {
	def := DefaultOptions()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&opts.ValidationURLSuffix, def.ValidationURLSuffix)
	fill(&opts.FormDivSelector, def.FormDivSelector)
	fill(&opts.SubmitClass, def.SubmitClass)
	fill(&opts.UsedFieldsParamName, def.UsedFieldsParamName)
	fill(&opts.ErrorClass, def.ErrorClass)
	fill(&opts.ErrorMsgClass, def.ErrorMsgClass)
	return opts
}

// validationURL derives the validation endpoint from the form action.
func (opts Options) validationURL(action string) string {
	if opts.ValidationURL != "" {
		return opts.ValidationURL
	}
	url := action
	if !opts.ValidationURLAppend {
		if ndx := strings.LastIndexByte(url, '.'); ndx != -1 {
			url = url[:ndx]
		}
	}
	return url + opts.ValidationURLSuffix
}
