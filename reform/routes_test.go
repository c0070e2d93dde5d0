package reform

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/G-Node/reform/reform/db"
	"github.com/G-Node/reform/reform/dom"
	"github.com/G-Node/reform/reform/form"
	"github.com/G-Node/reform/reform/transport"
)

func signupForm() form.Form {
	return form.Form{
		ID:   "signup",
		Name: "Sign up",
		Pages: []form.Page{{
			Elements: []form.Element{
				{ID: "signup_email", Name: "email", Label: "Email", Required: true, Type: form.EmailInput, Rules: []form.Rule{form.Email()}},
				{ID: "signup_password", Name: "password", Label: "Password", Required: true, Type: form.PasswordInput, Rules: []form.Rule{form.MinLength(8)}},
				{ID: "signup_color", Name: "color", Label: "Color", Type: form.RadioInput, ValueList: []string{"red", "blue"}},
				{ID: "signup_ref", Name: "ref", Label: "Reference", ReadOnly: true, Value: "R-1"},
			},
		}},
	}
}

func newTestService(t *testing.T) *Service {
	cfg := Config{
		CookieName: "test-cookie",
		DBPath:     filepath.Join(t.TempDir(), "test.db"),
	}
	srv, err := NewService(signupForm(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to initialise form service: %s", err.Error())
	}
	t.Cleanup(func() { srv.db.Close() })
	return srv
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  string
}

func (tc *testClient) do(method, route string, values url.Values, ajax bool) *httptest.ResponseRecorder {
	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequest(method, route, body)
	if err != nil {
		tc.t.Fatalf("failed to create request: %s %s", method, route)
	}
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if ajax {
		req.Header.Set(transport.RequestedWithHeader, "XMLHttpRequest")
	}
	if tc.cookie != "" {
		req.Header.Add("Cookie", fmt.Sprintf("test-cookie=%s", tc.cookie))
	}
	rr := httptest.NewRecorder()
	tc.handler.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == "test-cookie" {
			tc.cookie = c.Value
		}
	}
	return rr
}

func checkStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if status := rr.Code; status != expected {
		t.Fatalf("handler returned wrong status code: got %v expected %v", status, expected)
	}
}

func TestSessionCookie(t *testing.T) {
	srv := newTestService(t)
	client := &testClient{t: t, handler: srv.Handler()}

	checkStatus(t, client.do("GET", "/", nil, false), http.StatusOK)
	if client.cookie == "" {
		t.Fatal("No session cookie set for new visitor")
	}
	first := client.cookie

	rr := client.do("GET", "/signup.html", nil, false)
	checkStatus(t, rr, http.StatusOK)
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("Valid session was replaced")
	}

	client.cookie = "bad"
	checkStatus(t, client.do("GET", "/", nil, false), http.StatusOK)
	if client.cookie == "bad" || client.cookie == first {
		t.Fatalf("Bad cookie was not replaced: %q", client.cookie)
	}

	expired := db.NewSession()
	expired.Created = time.Now().Add(-2 * srv.Config.SessionMaxAge)
	if err := srv.db.InsertSession(expired); err != nil {
		t.Fatalf("Failed to insert session: %s", err.Error())
	}
	client.cookie = expired.ID
	checkStatus(t, client.do("GET", "/", nil, false), http.StatusOK)
	if client.cookie == expired.ID {
		t.Fatal("Expired session was not replaced")
	}
	if _, err := srv.db.GetSession(expired.ID); err == nil {
		t.Fatal("Expired session was not deleted")
	}
	if _, err := srv.db.GetSession(client.cookie); err != nil {
		t.Fatalf("Replacement session not stored: %s", err.Error())
	}
}

func TestFormPage(t *testing.T) {
	srv := newTestService(t)
	client := &testClient{t: t, handler: srv.Handler()}

	rr := client.do("GET", "/signup.html", nil, false)
	checkStatus(t, rr, http.StatusOK)

	doc, err := dom.Parse(rr.Body)
	if err != nil {
		t.Fatalf("Failed to parse form page: %s", err.Error())
	}
	f := doc.ByID("signup")
	if f == nil || f.Tag() != "form" {
		t.Fatal("Form element missing from page")
	}
	if action, _ := f.Attr("action"); action != "/signup.html" {
		t.Fatalf("Unexpected form action %q", action)
	}
	for _, id := range []string{"signup_email_error", "signup_password_error", "signup_color_1_error"} {
		msg := doc.ByID(id)
		if msg == nil {
			t.Fatalf("Error message slot %q missing", id)
		}
		if msg.Visible() {
			t.Fatalf("Error message slot %q visible without errors", id)
		}
	}
	if n := len(doc.Find(dom.MustCompile("div.form input[type=radio][name=color]"))); n != 2 {
		t.Fatalf("Expected 2 radio options, got %d", n)
	}
	if doc.First(dom.MustCompile("button.submit")) == nil {
		t.Fatal("Submit button missing")
	}

	checkStatus(t, client.do("GET", "/other.html", nil, false), http.StatusNotFound)
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestService(t)
	client := &testClient{t: t, handler: srv.Handler()}

	valid := url.Values{"email": {"jane@example.org"}, "password": {"long enough"}}
	rr := client.do("POST", "/signupValidate.json", valid, true)
	checkStatus(t, rr, http.StatusOK)
	if body := rr.Body.String(); body != "[]" {
		t.Fatalf("Unexpected validation response for valid values: %s", body)
	}

	invalid := url.Values{"email": {"nope"}, "password": {"short"}, "usedFieldNames": {"password,email"}}
	rr = client.do("POST", "/signupValidate.json", invalid, true)
	checkStatus(t, rr, http.StatusOK)
	errs, err := form.DecodeErrors(rr.Body.String())
	if err != nil {
		t.Fatalf("Failed to decode validation response: %s", err.Error())
	}
	if len(errs) != 2 || errs[0].Name != "email" || errs[1].Name != "password" {
		t.Fatalf("Unexpected validation errors: %+v", errs)
	}

	// only used fields are checked
	partial := url.Values{"usedFieldNames": {"email"}, "email": {"jane@example.org"}}
	rr = client.do("POST", "/signupValidate.json", partial, true)
	if body := rr.Body.String(); body != "[]" {
		t.Fatalf("Unused fields were validated: %s", body)
	}

	checkStatus(t, client.do("POST", "/otherValidate.json", valid, true), http.StatusNotFound)
}

func TestProcessForm(t *testing.T) {
	srv := newTestService(t)
	client := &testClient{t: t, handler: srv.Handler()}
	checkStatus(t, client.do("GET", "/", nil, false), http.StatusOK)

	// rejected regular submission re-renders the page with errors
	rr := client.do("POST", "/signup.html", url.Values{"email": {"jane@example.org"}}, false)
	checkStatus(t, rr, http.StatusOK)
	doc, err := dom.Parse(rr.Body)
	if err != nil {
		t.Fatalf("Failed to parse form page: %s", err.Error())
	}
	if !doc.ByID("signup_password").HasClass("error") {
		t.Fatal("Missing error class on rejected field")
	}
	if msg := doc.ByID("signup_password_error"); !msg.Visible() || msg.Text() != "Password is required" {
		t.Fatalf("Unexpected error message %q", msg.Text())
	}
	if value := doc.ByID("signup_email").Value(); value != "jane@example.org" {
		t.Fatalf("Submitted value not kept: %q", value)
	}

	// rejected ajax submission returns the error list
	rr = client.do("POST", "/signup.html", url.Values{"email": {"jane"}}, true)
	checkStatus(t, rr, http.StatusOK)
	if !form.LooksLikeErrorList(rr.Body.String()) {
		t.Fatalf("Rejected ajax submission returned markup: %s", rr.Body.String())
	}

	subs, err := srv.db.SessionSubmissions(client.cookie)
	if err != nil {
		t.Fatalf("Failed to read submissions: %s", err.Error())
	}
	if len(subs) != 0 {
		t.Fatalf("Rejected submissions were stored: %d", len(subs))
	}

	values := url.Values{
		"email":          {"jane@example.org"},
		"password":       {"long enough"},
		"color":          {"blue"},
		"usedFieldNames": {"email,password,color"},
	}
	rr = client.do("POST", "/signup.html", values, false)
	checkStatus(t, rr, http.StatusSeeOther)
	if loc := rr.Header().Get("Location"); loc != "/log/1" {
		t.Fatalf("Unexpected redirect location %q", loc)
	}

	rr = client.do("POST", "/signup.html", values, true)
	checkStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	if !strings.Contains(body, "Submission S2 saved.") {
		t.Fatalf("Accepted ajax submission returned no notice: %s", body)
	}
	if strings.Contains(body, "<html") || !strings.Contains(body, `id="signup_email"`) {
		t.Fatalf("Accepted ajax submission did not return the fields only: %s", body)
	}

	sub, err := srv.db.GetSubmission(1)
	if err != nil {
		t.Fatalf("Failed to read submission: %s", err.Error())
	}
	if sub.ValueMap["color"] != "blue" || sub.UsedFieldNames() != "email,password,color" {
		t.Fatalf("Unexpected submission: %+v", sub)
	}
}

func TestLogRoutes(t *testing.T) {
	srv := newTestService(t)
	client := &testClient{t: t, handler: srv.Handler()}
	checkStatus(t, client.do("GET", "/", nil, false), http.StatusOK)

	checkLogCount := func(nexpected int) {
		rr := client.do("GET", "/log", nil, false)
		checkStatus(t, rr, http.StatusOK)
		content, err := io.ReadAll(rr.Body)
		if err != nil {
			t.Errorf("failed to read response body: %s", err.Error())
		}
		if nsubs := bytes.Count(content, []byte(`href="/log/`)); nsubs != nexpected {
			t.Errorf("Submission log returned %d, expected %d", nsubs, nexpected)
		}
	}

	values := url.Values{"email": {"jane@example.org"}, "password": {"long enough"}}

	checkLogCount(0)
	checkStatus(t, client.do("POST", "/signup.html", values, false), http.StatusSeeOther)
	checkLogCount(1)
	checkStatus(t, client.do("POST", "/signup.html", values, false), http.StatusSeeOther)
	checkLogCount(2)

	rr := client.do("GET", "/log/1", nil, false)
	checkStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "jane@example.org") {
		t.Fatal("Submission page does not show the submitted values")
	}

	// other visitor
	other := &testClient{t: t, handler: srv.Handler()}
	checkStatus(t, other.do("GET", "/log/1", nil, false), http.StatusNotFound)
	checkStatus(t, other.do("POST", "/signup.html", values, false), http.StatusSeeOther)
	checkLogCount(2)
	checkStatus(t, client.do("GET", "/log/1337", nil, false), http.StatusNotFound)
}
