package dom

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testPage = `<html><body>
<form id="signup" action="/users/42.html">
	<div class="form">
		<input id="signup_email" name="email" value="a@b.c" class="wide">
		<span id="signup_email_error" class="error_msg" style="display: none"></span>
		<input id="signup_password" name="password" type="password" value="secret">
		<input name="nickname" value="ro" readonly>
		<input value="no name">
		<input name="newsletter" type="checkbox">
		<input name="terms" type="checkbox" checked>
		<input name="color" type="radio" value="red">
		<input name="color" type="radio" value="blue" checked>
		<input name="off" value="x" disabled>
		<select name="country"><option value="de">Germany</option><option value="fr" selected>France</option></select>
		<select name="lang"><option>en</option><option>de</option></select>
		<textarea name="bio">hello
world</textarea>
	</div>
	<button class="submit" name="go">Go</button>
	<input type="submit" name="send" value="Send">
</form>
</body></html>`

func parseTestPage(t *testing.T) *Document {
	doc, err := ParseString(testPage)
	if err != nil {
		t.Fatalf("Failed to parse test page: %v", err)
	}
	return doc
}

func TestFindInDocumentOrder(t *testing.T) {
	doc := parseTestPage(t)
	form := doc.First(MustCompile("form#signup"))
	if form == nil {
		t.Fatal("Form not found")
	}

	names := make([]string, 0)
	for _, el := range form.Find(MustCompile("input,select,textarea")) {
		names = append(names, el.Name())
	}
	expected := []string{"email", "password", "nickname", "", "newsletter", "terms", "color", "color", "off", "country", "lang", "bio", "send"}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Fatalf("Unexpected element order (-want +got):\n%s", diff)
	}

	if doc.First(MustCompile("form#nope")) != nil {
		t.Fatal("Found form that does not exist")
	}
}

func TestFindExcludesContext(t *testing.T) {
	doc := parseTestPage(t)
	div := doc.First(MustCompile("div.form"))
	if len(div.Find(MustCompile("div"))) != 0 {
		t.Fatal("Find matched the context element itself")
	}
}

func TestCompileInvalid(t *testing.T) {
	if _, err := Compile("div[["); err == nil {
		t.Fatal("Compiling an invalid selector succeeded")
	}
}

func TestClasses(t *testing.T) {
	doc := parseTestPage(t)
	el := doc.ByID("signup_email")
	el.AddClass("error")
	el.AddClass("error")
	if diff := cmp.Diff([]string{"wide", "error"}, el.Classes()); diff != "" {
		t.Fatalf("Unexpected classes (-want +got):\n%s", diff)
	}
	el.RemoveClass("error")
	if el.HasClass("error") || !el.HasClass("wide") {
		t.Fatalf("Unexpected classes after removal: %v", el.Classes())
	}
}

func TestShowHide(t *testing.T) {
	doc := parseTestPage(t)
	msg := doc.ByID("signup_email_error")
	if msg.Visible() {
		t.Fatal("Hidden element reported as visible")
	}
	msg.Show()
	if !msg.Visible() {
		t.Fatal("Shown element reported as hidden")
	}
	if _, ok := msg.Attr("style"); ok {
		t.Fatal("Empty style attribute left behind")
	}
	msg.SetAttr("style", "color: red")
	msg.Hide()
	if msg.Visible() {
		t.Fatal("Element still visible after Hide")
	}
	if style, _ := msg.Attr("style"); !strings.Contains(style, "color: red") {
		t.Fatalf("Hide dropped unrelated style declarations: %q", style)
	}
}

func TestFormValues(t *testing.T) {
	doc := parseTestPage(t)
	form := doc.First(MustCompile("form"))
	values := doc.FormValues(form)
	expected := url.Values{
		"email":    {"a@b.c"},
		"password": {"secret"},
		"nickname": {"ro"},
		"terms":    {"on"},
		"color":    {"blue"},
		"country":  {"fr"},
		"lang":     {"en"},
		"bio":      {"hello\nworld"},
	}
	if diff := cmp.Diff(expected, values); diff != "" {
		t.Fatalf("Unexpected form values (-want +got):\n%s", diff)
	}
}

func TestSetValue(t *testing.T) {
	doc := parseTestPage(t)
	form := doc.First(MustCompile("form"))
	first := func(sel string) *Element { return form.First(MustCompile(sel)) }

	first("select[name=country]").SetValue("de")
	first("textarea").SetValue("bye")
	first("input[name=email]").SetValue("x@y.z")
	first("input[name=newsletter]").SetChecked(true)

	values := doc.FormValues(form)
	if values.Get("country") != "de" || values.Get("bio") != "bye" || values.Get("email") != "x@y.z" || values.Get("newsletter") != "on" {
		t.Fatalf("Unexpected values after update: %v", values)
	}
}

func TestInnerHTMLDropsListeners(t *testing.T) {
	doc := parseTestPage(t)
	div := doc.First(MustCompile("div.form"))
	email := doc.ByID("signup_email")

	fired := 0
	email.On(Blur, func(ev *Event) { fired++ })
	email.Blur()
	if fired != 1 {
		t.Fatalf("Listener fired %d times; expected 1", fired)
	}

	if err := div.SetInnerHTML(`<input id="signup_email" name="email" value="new">`); err != nil {
		t.Fatalf("Failed to replace content: %v", err)
	}
	if email.Attached() {
		t.Fatal("Replaced element still attached")
	}
	email.Blur()
	if fired != 1 {
		t.Fatal("Listener on detached element fired")
	}
	if doc.listenerCount() != 0 {
		t.Fatalf("Listeners of detached nodes retained: %d", doc.listenerCount())
	}

	fresh := doc.ByID("signup_email")
	if fresh == nil || fresh.Value() != "new" {
		t.Fatalf("Injected content not found: %+v", fresh)
	}
}

func TestDispatchPreventDefault(t *testing.T) {
	doc := parseTestPage(t)
	btn := doc.First(MustCompile(".submit"))
	if !btn.Click() {
		t.Fatal("Click without listeners reported prevented default")
	}
	btn.On(Click, func(ev *Event) { ev.PreventDefault() })
	if btn.Click() {
		t.Fatal("Click with preventing listener reported default allowed")
	}
	if btn.Listeners(Click) != 1 {
		t.Fatalf("Unexpected listener count: %d", btn.Listeners(Click))
	}
}

func TestAppendAndRemove(t *testing.T) {
	doc := parseTestPage(t)
	form := doc.First(MustCompile("form"))
	if err := form.AppendHTML(`<input type="hidden" name="usedFieldNames">`); err != nil {
		t.Fatalf("Failed to append hidden input: %v", err)
	}
	hidden := form.First(MustCompile("input[name=usedFieldNames]"))
	if hidden == nil {
		t.Fatal("Appended input not found")
	}
	hidden.SetValue("a,b")
	if doc.FormValues(form).Get("usedFieldNames") != "a,b" {
		t.Fatal("Hidden value not serialized")
	}
	hidden.Remove()
	if form.First(MustCompile("input[name=usedFieldNames]")) != nil {
		t.Fatal("Removed input still found")
	}
}

func TestRemoveListener(t *testing.T) {
	doc := parseTestPage(t)
	email := doc.ByID("signup_email")

	fired := make([]string, 0)
	removeA := email.On(Blur, func(ev *Event) { fired = append(fired, "a") })
	email.On(Blur, func(ev *Event) { fired = append(fired, "b:"+ev.Target.Name()) })
	removeA()
	removeA()
	email.Blur()
	if diff := cmp.Diff([]string{"b:email"}, fired); diff != "" {
		t.Fatalf("Unexpected listeners fired (-want +got):\n%s", diff)
	}
}
