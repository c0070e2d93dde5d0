package reform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationURLDerivation(t *testing.T) {
	tests := []struct {
		name   string
		opts   func(*Options)
		action string
		want   string
	}{
		{"append", func(*Options) {}, "/users/42.html", "/users/42.htmlValidate.json"},
		{"replace extension", func(o *Options) {
			o.ValidationURLSuffix = "Check.json"
			o.ValidationURLAppend = false
		}, "/users/42.html", "/users/42Check.json"},
		{"replace without extension", func(o *Options) { o.ValidationURLAppend = false }, "/users/42", "/users/42Validate.json"},
		{"explicit", func(o *Options) { o.ValidationURL = "/check" }, "/users/42.html", "/check"},
		{"empty action", func(*Options) {}, "", "Validate.json"},
		{"struct literal", func(o *Options) { *o = Options{AjaxPost: true}.withDefaults() }, "/users/42.html", "/users/42Validate.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.opts(&opts)
			require.Equal(t, tt.want, opts.validationURL(tt.action))
		})
	}
}

func TestLoadOptions(t *testing.T) {
	doc := `
liveValidation: true
ajaxPost: true
validationUrlAppend: false
errorClass: ""
submitClass: go
`
	opts, err := LoadOptions(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, opts.LiveValidation)
	require.True(t, opts.AjaxPost)
	require.False(t, opts.ValidationURLAppend)
	require.True(t, opts.ActivateOnAjaxSubmitSuccess)
	require.Equal(t, "go", opts.SubmitClass)
	require.Equal(t, "error", opts.ErrorClass, "empty strings fall back to the default")
	require.Equal(t, "usedFieldNames", opts.UsedFieldsParamName)

	lit := Options{AjaxPost: true}.withDefaults()
	require.False(t, lit.ValidationURLAppend, "booleans of a struct literal keep their zero value")
	require.False(t, lit.ActivateOnAjaxSubmitSuccess)
	require.Equal(t, "error", lit.ErrorClass)
	opts, err = LoadOptions(strings.NewReader("ajaxPost: true"))
	require.NoError(t, err)
	require.True(t, opts.ValidationURLAppend)
	require.True(t, opts.ActivateOnAjaxSubmitSuccess)

	opts, err = LoadOptions(strings.NewReader(""))
	require.NoError(t, err)
	def := DefaultOptions()
	require.Equal(t, def.FormDivSelector, opts.FormDivSelector)
	require.Equal(t, def.ValidationURLAppend, opts.ValidationURLAppend)

	_, err = LoadOptions(strings.NewReader("ajaxPost: [1, 2]"))
	require.Error(t, err)
}

func TestStateNames(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "reactivated-with-errors", ReactivatedWithErrors.String())
	require.Equal(t, "unknown", State(42).String())
}
