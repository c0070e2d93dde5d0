package reform

import (
	"fmt"
	"net/url"

	"github.com/G-Node/reform/reform/form"
)

type optionView struct {
	ID      string
	Value   string
	Checked bool
}

type fieldView struct {
	Element form.Element
	Options []optionView
	// ID of the message slot; for radio groups it belongs to the last
	// option, the element a controller keeps for the group's name.
	ErrorID string
	Error   string
}

type pageView struct {
	Description string
	Fields      []fieldView
}

// formData builds the template data of the form.  Submitted values, if
// given, replace the elements' default values.
func (srv *Service) formData(values url.Values, errs []form.FieldError, notice string) map[string]interface{} {
	errMsgs := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, ok := errMsgs[fe.Name]; !ok {
			errMsgs[fe.Name] = fe.Msg
		}
	}

	pages := make([]pageView, 0, len(srv.form.Pages))
	for _, page := range srv.form.Pages {
		pv := pageView{Description: page.Description}
		for _, elem := range page.Elements {
			if values != nil {
				elem.Value = values.Get(elem.Name)
			}
			fv := fieldView{
				Element: elem,
				ErrorID: elem.ID + "_error",
				Error:   errMsgs[elem.Name],
			}
			for idx, val := range elem.ValueList {
				opt := optionView{Value: val, Checked: val == elem.Value}
				if elem.Type == form.RadioInput {
					opt.ID = fmt.Sprintf("%s_%d", elem.ID, idx)
					fv.ErrorID = opt.ID + "_error"
				}
				fv.Options = append(fv.Options, opt)
			}
			pv.Fields = append(pv.Fields, fv)
		}
		pages = append(pages, pv)
	}

	return map[string]interface{}{
		"form":   srv.form,
		"pages":  pages,
		"notice": notice,
	}
}
