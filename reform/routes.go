// Form page, exchange endpoints and submission log
package reform

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/G-Node/reform/reform/db"
	"github.com/G-Node/reform/reform/form"
	"github.com/G-Node/reform/reform/transport"
	"github.com/G-Node/reform/templates"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// sessionHandler is a handler that runs within a visitor session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *db.Session)

// reqSessionHandler acts as middleware to attach a visitor session, creating
// a new one (and its cookie) if the request has no valid session.  Expired
// sessions are deleted.
func (srv *Service) reqSessionHandler(handler sessionHandler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(srv.Config.CookieName); err == nil && cookie.Value != "" {
			if sess, err := srv.db.GetSession(cookie.Value); err == nil {
				if !sess.Expired(srv.Config.SessionMaxAge) {
					handler(w, r, sess)
					return
				}
				// replaced below
				if err := srv.db.DeleteSession(sess.ID); err != nil {
					srv.log.Warn("Failed to delete expired session", zap.Error(err))
				}
			}
		}

		sess := db.NewSession()
		if err := srv.db.InsertSession(sess); err != nil {
			srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error creating session")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     srv.Config.CookieName,
			Value:    sess.ID,
			Path:     "/",
			Expires:  sess.Created.Add(srv.Config.SessionMaxAge),
			HttpOnly: true,
		})
		handler(w, r, sess)
	}
}

// setupWebRoutes sets up the form page, the submission and validation
// endpoints of the form, and the submission log.
func (srv *Service) setupWebRoutes() {
	router := srv.web.Router
	router.StrictSlash(true)

	router.HandleFunc("/", srv.reqSessionHandler(srv.renderForm)).Methods("GET")
	// controllers append the suffix to the action unless told to replace
	// the extension; both endpoints are served
	router.HandleFunc("/{form}.htmlValidate.json", srv.reqSessionHandler(srv.validateForm)).Methods("POST")
	router.HandleFunc("/{form}Validate.json", srv.reqSessionHandler(srv.validateForm)).Methods("POST")
	router.HandleFunc("/{form}.html", srv.reqSessionHandler(srv.renderForm)).Methods("GET")
	router.HandleFunc("/{form}.html", srv.reqSessionHandler(srv.processForm)).Methods("POST")
	router.HandleFunc("/log", srv.reqSessionHandler(srv.renderLog)).Methods("GET")
	router.HandleFunc("/log/{id:[0-9]+}", srv.reqSessionHandler(srv.showSubmission)).Methods("GET")

	router.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.Dir(srv.Config.AssetsDir))))
}

func parseTemplates(parts ...string) (*template.Template, error) {
	tmpl := template.New("layout")
	for _, part := range parts {
		var err error
		if tmpl, err = tmpl.Parse(part); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

// knownForm checks the {form} route variable, if any, against the service's
// form.
func (srv *Service) knownForm(w http.ResponseWriter, r *http.Request) bool {
	if id, ok := mux.Vars(r)["form"]; ok && id != srv.form.ID {
		srv.web.ErrorResponse(w, http.StatusNotFound, fmt.Sprintf("No such form: %s", id))
		return false
	}
	return true
}

func isAjax(r *http.Request) bool {
	return r.Header.Get(transport.RequestedWithHeader) == "XMLHttpRequest"
}

func (srv *Service) usedFields(values url.Values) []string {
	used := make([]string, 0)
	for _, name := range strings.Split(values.Get(srv.Config.UsedFieldsParamName), ",") {
		if name = strings.TrimSpace(name); name != "" {
			used = append(used, name)
		}
	}
	return used
}

func (srv *Service) renderForm(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	if !srv.knownForm(w, r) {
		return
	}
	srv.renderFormPage(w, nil, nil, "")
}

func (srv *Service) renderFormPage(w http.ResponseWriter, values url.Values, errs []form.FieldError, notice string) {
	tmpl, err := parseTemplates(templates.Layout, templates.Form, templates.Fields)
	if err != nil {
		srv.log.Error("Failed to parse form templates", zap.Error(err))
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error rendering form")
		return
	}
	data := srv.formData(values, errs, notice)
	data["title"] = srv.form.Name
	if err := tmpl.Execute(w, data); err != nil {
		srv.log.Error("Failed to render form", zap.Error(err))
	}
}

// renderFields writes only the inner part of the form, the content that
// replaces the form div after an accepted ajax submission.
func (srv *Service) renderFields(w http.ResponseWriter, notice string) {
	tmpl, err := parseTemplates(templates.Fields)
	if err != nil {
		srv.log.Error("Failed to parse fields template", zap.Error(err))
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error rendering form")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "fields", srv.formData(nil, nil, notice)); err != nil {
		srv.log.Error("Failed to render fields", zap.Error(err))
	}
}

func (srv *Service) writeErrors(w http.ResponseWriter, errs []form.FieldError) {
	body, err := form.EncodeErrors(errs)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error encoding validation errors")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (srv *Service) validateForm(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	if !srv.knownForm(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	errs := srv.form.Validate(r.PostForm, srv.usedFields(r.PostForm))
	srv.log.Debug("Validated form", zap.String("session", sess.ID), zap.Int("errors", len(errs)))
	srv.writeErrors(w, errs)
}

func (srv *Service) processForm(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	if !srv.knownForm(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	postValues := r.PostForm
	used := srv.usedFields(postValues)

	if errs := srv.form.Validate(postValues, used); len(errs) > 0 {
		srv.log.Info("Submission rejected", zap.String("session", sess.ID), zap.Int("errors", len(errs)))
		if isAjax(r) {
			srv.writeErrors(w, errs)
			return
		}
		srv.renderFormPage(w, postValues, errs, "")
		return
	}

	names := used
	if len(names) == 0 {
		for _, elem := range srv.form.Elements() {
			names = append(names, elem.Name)
		}
	}
	valueMap := make(map[string]string, len(names))
	for _, name := range names {
		valueMap[name] = strings.Join(postValues[name], ",")
	}

	sub := &db.Submission{
		SessionID:  sess.ID,
		FormID:     srv.form.ID,
		ValueMap:   valueMap,
		UsedFields: used,
		SubmitTime: time.Now(),
	}
	if err := srv.db.InsertSubmission(sub); err != nil {
		srv.log.Error("Failed to store submission", zap.Error(err))
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error storing submission")
		return
	}
	srv.log.Info("Submission accepted", zap.String("session", sess.ID), zap.Int64("id", sub.ID))

	if isAjax(r) {
		srv.renderFields(w, fmt.Sprintf("Submission S%d saved.", sub.ID))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/log/%d", sub.ID), http.StatusSeeOther)
}

func (srv *Service) renderLog(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	tmpl, err := parseTemplates(templates.Layout, templates.LogView)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing submission listing")
		return
	}

	subs, err := srv.db.SessionSubmissions(sess.ID)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error reading submissions from DB")
		return
	}
	data := map[string]interface{}{
		"title":       "Submissions",
		"submissions": subs,
	}
	if err := tmpl.Execute(w, data); err != nil {
		srv.log.Error("Failed to render log", zap.Error(err))
	}
}

func (srv *Service) showSubmission(w http.ResponseWriter, r *http.Request, sess *db.Session) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	sub, err := srv.db.GetSubmission(id)
	if err != nil || sub.SessionID != sess.ID {
		srv.web.ErrorResponse(w, http.StatusNotFound, "No such submission")
		return
	}

	tmpl, err := parseTemplates(templates.Layout, templates.SubmissionView)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing submission")
		return
	}

	names := sub.UsedFields
	if len(names) == 0 {
		for name := range sub.ValueMap {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	data := map[string]interface{}{
		"title":      fmt.Sprintf("Submission S%d", sub.ID),
		"submission": sub,
		"names":      names,
	}
	if err := tmpl.Execute(w, data); err != nil {
		srv.log.Error("Failed to render submission", zap.Error(err))
	}
}
