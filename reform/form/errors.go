package form

import (
	"strings"

	json "github.com/goccy/go-json"
)

// FieldError describes a validation error of a single field.  A list of these
// is the body of validation responses and of rejected submissions.
type FieldError struct {
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

// EncodeErrors returns the JSON list for errs; an empty or nil list encodes
// as [].
func EncodeErrors(errs []FieldError) ([]byte, error) {
	if errs == nil {
		errs = []FieldError{}
	}
	return json.Marshal(errs)
}

// DecodeErrors parses a response body into field errors.  An empty body, an
// empty list and null all mean no errors.
func DecodeErrors(body string) ([]FieldError, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	var errs []FieldError
	if err := json.Unmarshal([]byte(body), &errs); err != nil {
		return nil, err
	}
	return errs, nil
}

// LooksLikeErrorList reports whether a submission response is an error list
// rather than markup.  Only the opening of a list of objects is checked.
func LooksLikeErrorList(body string) bool {
	return strings.HasPrefix(body, "[{")
}
