package reform

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/G-Node/reform/reform/dom"
	"github.com/G-Node/reform/reform/form"
	"github.com/G-Node/reform/reform/notify"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Transport sends ajax style exchanges and returns the response body.
type Transport interface {
	Post(ctx context.Context, endpoint string, values url.Values) (string, error)
}

// Navigator performs regular form submissions that replace the page.
type Navigator interface {
	Navigate(ctx context.Context, method, action string, values url.Values) (string, error)
}

// Scheduler runs callbacks on the event loop the controller lives on.
type Scheduler interface {
	Post(fn func())
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(msg string)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	// Required.
	Transport Transport
	// Optional if Transport also implements Navigator.
	Navigator Navigator
	// Required.
	Scheduler Scheduler
	// Defaults to a notify.Service on Logger.
	Notifier Notifier
	Logger   *zap.Logger
	// Called on the event loop on every state change.
	OnState func(State)
	// Called on the event loop with the new page after a regular submission.
	OnNavigate func(page string)
}

// ConfigError reports a controller that can't be bound to its page.
type ConfigError struct {
	FormID string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("form %q: %s", e.FormID, e.Reason)
}

const (
	exchangeValidation = "validation"
	exchangeSubmission = "submission"
	exchangeNavigation = "navigation"
)

var (
	msgPolicyOnce sync.Once
	msgPolicy     *bluemonday.Policy
)

func messageSanitizer() *bluemonday.Policy {
	msgPolicyOnce.Do(func() {
		msgPolicy = bluemonday.UGCPolicy()
	})
	return msgPolicy
}

// Controller binds to a form of a page, tracks the fields the user visited,
// validates them through the validation endpoint and submits the form either
// by navigation or via ajax.
//
// All methods must be called on the Scheduler's event loop; exchanges resume
// the controller there.
type Controller struct {
	formID string
	opts   Options
	doc    *dom.Document
	form   *dom.Element
	// nil if the selector matched nothing
	formDiv *dom.Element

	inputs   dom.Selector
	triggers dom.Selector
	errMsgs  dom.Selector

	fields  map[string]*dom.Element
	order   []string
	visited map[string]bool
	unbind  []func()
	enabled bool
	state   State
	// a submit arrived while another exchange was in flight
	submitPending bool

	action        string
	method        string
	validationURL string

	inflight  *semaphore.Weighted
	transport Transport
	navigator Navigator
	scheduler Scheduler
	notifier  Notifier
	onState   func(State)
	onNav     func(string)
	log       *zap.Logger
}

// New binds a Controller to form#formID of doc, registers the submit
// triggers and activates the fields.  A missing form is reported to the user
// and returned as a *ConfigError.
func New(doc *dom.Document, formID string, opts Options, deps Deps) (*Controller, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.New(deps.Logger)
	}
	if deps.Transport == nil || deps.Scheduler == nil {
		return nil, &ConfigError{FormID: formID, Reason: "transport and scheduler are required"}
	}
	if deps.Navigator == nil {
		if nav, ok := deps.Transport.(Navigator); ok {
			deps.Navigator = nav
		}
	}
	opts = opts.withDefaults()

	c := &Controller{
		formID:    formID,
		opts:      opts,
		doc:       doc,
		visited:   make(map[string]bool),
		enabled:   true,
		state:     Idle,
		inflight:  semaphore.NewWeighted(1),
		transport: deps.Transport,
		navigator: deps.Navigator,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		onState:   deps.OnState,
		onNav:     deps.OnNavigate,
		log:       deps.Logger.With(zap.String("form", formID)),
	}

	if el := doc.ByID(formID); el != nil && el.Tag() == "form" {
		c.form = el
	}
	if c.form == nil {
		c.notifier.Notify(fmt.Sprintf("ERROR: Form '%s' does not exist.", formID))
		return nil, &ConfigError{FormID: formID, Reason: "form does not exist"}
	}

	var err error
	if c.inputs, err = dom.Compile("input,select,textarea"); err != nil {
		return nil, &ConfigError{FormID: formID, Reason: err.Error()}
	}
	if c.triggers, err = dom.Compile("." + opts.SubmitClass); err != nil {
		return nil, &ConfigError{FormID: formID, Reason: fmt.Sprintf("submit class: %v", err)}
	}
	if c.errMsgs, err = dom.Compile("." + opts.ErrorMsgClass); err != nil {
		return nil, &ConfigError{FormID: formID, Reason: fmt.Sprintf("error message class: %v", err)}
	}
	divSel, err := dom.Compile(opts.FormDivSelector)
	if err != nil {
		return nil, &ConfigError{FormID: formID, Reason: fmt.Sprintf("form div selector: %v", err)}
	}
	if strings.Contains(opts.FormDivSelector, "#") {
		c.formDiv = doc.First(divSel)
	} else {
		c.formDiv = c.form.First(divSel)
	}

	c.action, _ = c.form.Attr("action")
	c.method, _ = c.form.Attr("method")
	c.validationURL = opts.validationURL(c.action)

	for _, trigger := range c.form.Find(c.triggers) {
		trigger.On(dom.Click, func(ev *dom.Event) {
			ev.PreventDefault()
			c.Submit()
		})
	}

	c.Activate()
	c.log.Debug("Form bound", zap.String("action", c.action), zap.String("validation", c.validationURL))
	return c, nil
}

func (c *Controller) String() string {
	return "re:form#" + c.formID
}

// ValidationURL returns the resolved validation endpoint.
func (c *Controller) ValidationURL() string {
	return c.validationURL
}

// Activate collects the form fields: every input, select and textarea that
// is not read-only and has a name other than the used fields parameter.
// Later elements with the same name replace earlier ones.  Called again whenever the form content is replaced.
func (c *Controller) Activate() {
	for _, unbind := range c.unbind {
		unbind()
	}
	c.unbind = nil

	c.fields = make(map[string]*dom.Element)
	c.order = make([]string, 0)
	c.visited = make(map[string]bool)
	for _, el := range c.form.Find(c.inputs) {
		if el.ReadOnly() {
			continue
		}
		name := el.Name()
		if name == "" || name == c.opts.UsedFieldsParamName {
			continue
		}
		if _, seen := c.fields[name]; !seen {
			c.order = append(c.order, name)
		}
		c.fields[name] = el
	}

	if c.opts.LiveValidation {
		for _, name := range c.order {
			c.unbind = append(c.unbind, c.fields[name].On(dom.Blur, c.fieldBlurred))
		}
	}
	c.log.Debug("Form activated", zap.Strings("fields", c.order))
}

func (c *Controller) fieldBlurred(ev *dom.Event) {
	name := ev.Target.Name()
	if _, ok := c.fields[name]; !ok {
		return
	}
	c.visited[name] = true
	c.Validate(true, nil)
}

// ActivateErrors removes previous errors and applies errs: the error class
// is added to each field and its message slot (#<field id>_error) is shown
// and filled with the message, if any.  With onlyVisited set, errors of
// fields the user hasn't visited are skipped.  It returns true if any error
// was applied.
func (c *Controller) ActivateErrors(errs []form.FieldError, onlyVisited bool) bool {
	c.RemoveAllValidationErrors()
	hasErrors := false
	for _, fe := range errs {
		if onlyVisited && !c.visited[fe.Name] {
			continue
		}
		field, ok := c.fields[fe.Name]
		if !ok {
			continue
		}
		if field.HasClass(c.opts.ErrorClass) {
			continue
		}
		hasErrors = true
		field.AddClass(c.opts.ErrorClass)
		if field.ID() == "" {
			continue
		}
		if msgField := c.doc.ByID(field.ID() + "_error"); msgField != nil {
			msgField.Show()
			if fe.Msg != "" {
				if err := msgField.SetInnerHTML(messageSanitizer().Sanitize(fe.Msg)); err != nil {
					c.log.Warn("Failed to set error message", zap.String("field", fe.Name), zap.Error(err))
				}
			}
		}
	}
	return hasErrors
}

// RemoveAllValidationErrors hides all error messages of the form and removes
// the error class from all fields.
func (c *Controller) RemoveAllValidationErrors() {
	for _, msg := range c.form.Find(c.errMsgs) {
		msg.Hide()
	}
	for _, name := range c.order {
		c.fields[name].RemoveClass(c.opts.ErrorClass)
	}
}

// Validate sends the form to the validation endpoint and applies the
// returned errors.  If no error was applied, onValid is called.  It returns
// false if the exchange could not start because another one is in flight.
func (c *Controller) Validate(onlyVisited bool, onValid func()) bool {
	id, ok := c.begin(exchangeValidation)
	if !ok {
		return false
	}
	c.setState(Validating)
	c.send(id, exchangeValidation, c.validationURL, c.payload(), func(body string) {
		errs, err := form.DecodeErrors(body)
		if err != nil {
			c.log.Warn("Malformed validation response", zap.String("exchange", id), zap.Error(err))
			c.notifier.Notify("ERROR: Invalid validation response.")
			c.setState(Idle)
			return
		}
		if c.ActivateErrors(errs, onlyVisited) {
			c.setState(ReactivatedWithErrors)
			c.setState(Idle)
			return
		}
		if onValid != nil {
			onValid()
		}
		// onValid may have moved on to Submitting
		if c.state == Validating {
			c.setState(Idle)
		}
	})
	return true
}

// Submit submits the form, validating it first if configured.  It does
// nothing while the form is disabled.  A submit during another exchange is
// deferred until that exchange completes; it is dropped if the exchange
// fails.
func (c *Controller) Submit() {
	if !c.enabled {
		return
	}
	if c.busy() {
		c.log.Info("Exchange in flight, deferring submit")
		c.submitPending = true
		return
	}
	if c.opts.AjaxValidationOnSubmit {
		// ajax validation before submit; the whole form is validated
		c.VisitAllFields()
		c.Validate(true, c.submitNow)
		return
	}
	c.submitNow()
}

func (c *Controller) submitNow() {
	kind := exchangeSubmission
	if !c.opts.AjaxPost {
		kind = exchangeNavigation
	}
	id, ok := c.begin(kind)
	if !ok {
		return
	}
	c.DisableForm()
	c.setState(Submitting)

	if !c.opts.AjaxPost {
		c.SetFormParameter(c.opts.UsedFieldsParamName, c.usedFieldNames())
		c.navigate(id, c.doc.FormValues(c.form))
		return
	}

	c.visited = make(map[string]bool)
	c.send(id, exchangeSubmission, c.action, c.payload(), func(body string) {
		if form.LooksLikeErrorList(body) {
			c.VisitAllFields()
			errs, err := form.DecodeErrors(body)
			if err != nil {
				c.log.Warn("Malformed error list", zap.String("exchange", id), zap.Error(err))
			}
			c.ActivateErrors(errs, false)
			c.setState(ReactivatedWithErrors)
		} else {
			if c.opts.ActivateOnAjaxSubmitSuccess {
				if c.formDiv != nil {
					if err := c.formDiv.SetInnerHTML(body); err != nil {
						c.log.Warn("Failed to replace form content", zap.String("exchange", id), zap.Error(err))
					}
				}
				c.Activate()
			}
			if c.opts.OnAjaxSubmitSuccess != nil {
				c.opts.OnAjaxSubmitSuccess(body)
			}
			c.setState(ReactivatedWithContent)
		}
		c.EnableForm()
		c.setState(Idle)
	})
}

// SetFormParameter sets the value of the form's input with the given name.
// A hidden input is added if none exists.
func (c *Controller) SetFormParameter(name, value string) {
	field := c.formInput(name)
	if field == nil {
		markup := fmt.Sprintf(`<input type="hidden" name="%s">`, html.EscapeString(name))
		if err := c.form.AppendHTML(markup); err != nil {
			c.log.Warn("Failed to add form parameter", zap.String("name", name), zap.Error(err))
			return
		}
		field = c.formInput(name)
	}
	if field != nil {
		field.SetValue(value)
	}
}

// RemoveFormParameter removes the form's inputs with the given name.
func (c *Controller) RemoveFormParameter(name string) {
	for _, el := range c.form.Find(c.inputs) {
		if el.Tag() == "input" && el.Name() == name {
			el.Remove()
		}
	}
}

func (c *Controller) formInput(name string) *dom.Element {
	for _, el := range c.form.Find(c.inputs) {
		if el.Tag() == "input" && el.Name() == name {
			return el
		}
	}
	return nil
}

// DisableForm disables all submit triggers.
func (c *Controller) DisableForm() {
	c.enabled = false
	for _, trigger := range c.form.Find(c.triggers) {
		trigger.SetAttr("disabled", "disabled")
	}
}

// EnableForm enables all submit triggers.
func (c *Controller) EnableForm() {
	c.enabled = true
	for _, trigger := range c.form.Find(c.triggers) {
		trigger.RemoveAttr("disabled")
	}
}

// VisitAllFields marks every field as visited.
func (c *Controller) VisitAllFields() {
	c.visited = make(map[string]bool, len(c.order))
	for _, name := range c.order {
		c.visited[name] = true
	}
}

// Fields returns the field handles by name.
func (c *Controller) Fields() map[string]*dom.Element {
	fields := make(map[string]*dom.Element, len(c.fields))
	for name, el := range c.fields {
		fields[name] = el
	}
	return fields
}

// FieldOrder returns the field names in document order.
func (c *Controller) FieldOrder() []string {
	order := make([]string, len(c.order))
	copy(order, c.order)
	return order
}

// Visited returns the names of the visited fields in document order.
func (c *Controller) Visited() []string {
	visited := make([]string, 0, len(c.visited))
	for _, name := range c.order {
		if c.visited[name] {
			visited = append(visited, name)
		}
	}
	return visited
}

// Enabled reports whether the form accepts a submit.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) usedFieldNames() string {
	return strings.Join(c.order, ",")
}

// payload returns the form values plus the used field names.
func (c *Controller) payload() url.Values {
	values := c.doc.FormValues(c.form)
	values.Set(c.opts.UsedFieldsParamName, c.usedFieldNames())
	return values
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("State change", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// busy reports whether an exchange is in flight.
func (c *Controller) busy() bool {
	if !c.inflight.TryAcquire(1) {
		return true
	}
	c.inflight.Release(1)
	return false
}

// resumeSubmit runs a deferred submit once the exchange slot is free.  If
// the completed exchange already started a submission, the deferred one is
// covered by it.
func (c *Controller) resumeSubmit() {
	if !c.submitPending {
		return
	}
	c.submitPending = false
	if c.busy() {
		return
	}
	c.Submit()
}

// begin claims the single exchange slot.
func (c *Controller) begin(kind string) (string, bool) {
	if !c.inflight.TryAcquire(1) {
		c.log.Info("Exchange in flight, dropping request", zap.String("kind", kind))
		return "", false
	}
	return uuid.NewString(), true
}

// send runs the exchange off the loop and resumes on it with the response.
func (c *Controller) send(id, kind, endpoint string, values url.Values, handle func(body string)) {
	c.log.Debug("Exchange started", zap.String("exchange", id), zap.String("kind", kind), zap.String("url", endpoint))
	go func() {
		body, err := c.transport.Post(context.Background(), endpoint, values)
		c.scheduler.Post(func() {
			c.inflight.Release(1)
			if err != nil {
				c.fail(id, kind, err)
				return
			}
			handle(body)
			c.resumeSubmit()
		})
	}()
}

func (c *Controller) navigate(id string, values url.Values) {
	if c.navigator == nil {
		c.inflight.Release(1)
		c.fail(id, exchangeNavigation, fmt.Errorf("no navigator"))
		return
	}
	method := c.method
	if method == "" {
		method = "get"
	}
	c.log.Debug("Navigating", zap.String("exchange", id), zap.String("method", method), zap.String("url", c.action))
	go func() {
		page, err := c.navigator.Navigate(context.Background(), method, c.action, values)
		c.scheduler.Post(func() {
			c.inflight.Release(1)
			if err != nil {
				c.fail(id, exchangeNavigation, err)
				return
			}
			c.setState(Navigated)
			c.submitPending = false
			if c.onNav != nil {
				c.onNav(page)
			}
		})
	}()
}

// fail reports an exchange without a response.  The form is re-enabled so it
// never stays stuck in the disabled state.
func (c *Controller) fail(id, kind string, err error) {
	c.log.Error("Exchange failed", zap.String("exchange", id), zap.String("kind", kind), zap.Error(err))
	if c.submitPending {
		c.log.Info("Dropping deferred submit")
		c.submitPending = false
	}
	c.notifier.Notify(fmt.Sprintf("ERROR: The %s request failed. Please try again.", kind))
	c.setState(Failed)
	c.EnableForm()
	c.setState(Idle)
}
