package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/G-Node/reform/reform"
	"github.com/G-Node/reform/reform/dom"
	"github.com/G-Node/reform/reform/loop"
	"github.com/G-Node/reform/reform/notify"
	"github.com/G-Node/reform/reform/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkFormID       string
	checkValues       []string
	checkAjax         bool
	checkValidate     bool
	checkValidateOnly bool
	checkTimeout      time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check URL",
	Short: "Fill in and submit a form page",
	Long: `Loads the page at URL, binds a form controller to the form with the given
ID, sets the field values and submits the form.  Field errors, the state the
controller ends in and all notifications are printed.

Controller options are read from the controller section of the
configuration file; the flags override them.`,
	Example: `  reform check http://localhost:3000/signup.html --form signup \
    --set email=jane@example.org --set password=secret --ajax --validate`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormID, "form", "f", "signup", "ID of the form element")
	checkCmd.Flags().StringArrayVarP(&checkValues, "set", "s", nil, "field value as name=value (repeatable)")
	checkCmd.Flags().BoolVar(&checkAjax, "ajax", false, "submit via ajax instead of navigating")
	checkCmd.Flags().BoolVar(&checkValidate, "validate", false, "validate via ajax before submitting")
	checkCmd.Flags().BoolVar(&checkValidateOnly, "validate-only", false, "only validate all fields, don't submit")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "time limit for the whole check")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}
	opts, err := cfg.controllerOptions()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ajax") {
		opts.AjaxPost = checkAjax
	}
	if cmd.Flags().Changed("validate") {
		opts.AjaxValidationOnSubmit = checkValidate
	}

	values, err := parseValues(checkValues)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	client, err := transport.New(args[0], transport.WithCookieJar(), transport.WithTimeout(checkTimeout), transport.WithLogger(logger))
	if err != nil {
		return err
	}
	page, err := client.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("loading page: %w", err)
	}
	doc, err := dom.ParseString(page)
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	out := cmd.OutOrStdout()
	r := &checkRun{
		doc:        doc,
		errorClass: opts.ErrorClass,
		loop:       loop.New(0, logger),
		notes:      notify.NewWriter(cmd.ErrOrStderr(), logger),
		outcome:    make(chan reform.State, 1),
	}
	r.loop.Start()
	defer r.loop.Stop()

	var ctl *reform.Controller
	r.loop.Sync(func() {
		ctl, err = reform.New(doc, checkFormID, opts, reform.Deps{
			Transport:  client,
			Scheduler:  r.loop,
			Notifier:   r.notes,
			Logger:     logger,
			OnState:    r.stateChanged,
			OnNavigate: func(p string) { r.page = p },
		})
		if err != nil {
			return
		}
		err = setValues(doc, ctl, values)
		if err != nil {
			return
		}
		if checkValidateOnly {
			ctl.VisitAllFields()
			ctl.Validate(true, func() { r.finish(reform.Idle) })
			return
		}
		ctl.Submit()
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s bound, validation endpoint %s\n", ctl, ctl.ValidationURL())

	var final reform.State
	select {
	case final = <-r.outcome:
	case <-ctx.Done():
		return fmt.Errorf("no outcome: %w", ctx.Err())
	}

	var failed bool
	r.loop.Sync(func() {
		failed = r.report(out, ctl, final)
	})
	if failed {
		return fmt.Errorf("check failed: %s", final)
	}
	return nil
}

// checkRun collects the outcome of a check.  Its fields are only touched on
// the loop, except outcome.
type checkRun struct {
	doc        *dom.Document
	errorClass string
	loop       *loop.Loop
	notes      *notify.Service
	outcome    chan reform.State
	last       reform.State
	page       string
}

func (r *checkRun) stateChanged(s reform.State) {
	switch s {
	case reform.ReactivatedWithErrors, reform.ReactivatedWithContent, reform.Navigated, reform.Failed:
		r.finish(s)
	case reform.Idle:
		// an exchange ended without a result, e.g. after a malformed
		// validation response
		if r.last == reform.Validating && r.notes.Count() > 0 {
			r.finish(reform.Failed)
		}
	}
	r.last = s
}

func (r *checkRun) finish(s reform.State) {
	select {
	case r.outcome <- s:
	default:
	}
}

// report prints the outcome and returns true if the check failed.
func (r *checkRun) report(out io.Writer, ctl *reform.Controller, final reform.State) bool {
	switch final {
	case reform.Idle:
		fmt.Fprintln(out, "valid")
	case reform.ReactivatedWithErrors:
		fmt.Fprintln(out, "rejected")
		for _, name := range ctl.FieldOrder() {
			field := ctl.Fields()[name]
			if !field.HasClass(r.errorClass) {
				continue
			}
			msg := ""
			if field.ID() != "" {
				if slot := r.doc.ByID(field.ID() + "_error"); slot != nil {
					msg = strings.TrimSpace(slot.Text())
				}
			}
			fmt.Fprintf(out, "  %s: %s\n", name, msg)
		}
		return true
	case reform.ReactivatedWithContent:
		fmt.Fprintln(out, "accepted")
		if notice := r.doc.First(dom.MustCompile(".notice")); notice != nil {
			fmt.Fprintf(out, "  %s\n", strings.TrimSpace(notice.Text()))
		}
	case reform.Navigated:
		fmt.Fprintf(out, "navigated, %d bytes\n", len(r.page))
		if next, err := dom.ParseString(r.page); err == nil {
			if title := next.First(dom.MustCompile("title")); title != nil {
				fmt.Fprintf(out, "  %s\n", strings.TrimSpace(title.Text()))
			}
		}
	default:
		fmt.Fprintln(out, final)
		return true
	}
	if n := r.notes.Count(); n > 0 {
		logger.Warn("Notifications during check", zap.Int("count", n))
	}
	return false
}

// parseValues splits name=value arguments.
func parseValues(args []string) ([][2]string, error) {
	values := make([][2]string, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field value %q, expected name=value", arg)
		}
		values = append(values, [2]string{name, value})
	}
	return values, nil
}

// setValues fills in the form.  Checkboxes are checked by any value other
// than the empty string; radio groups select the option with the value.
func setValues(doc *dom.Document, ctl *reform.Controller, values [][2]string) error {
	fields := ctl.Fields()
	for _, nv := range values {
		name, value := nv[0], nv[1]
		field, ok := fields[name]
		if !ok {
			return fmt.Errorf("form has no field %q; fields: %s", name, strings.Join(ctl.FieldOrder(), ", "))
		}
		typ, _ := field.Attr("type")
		switch {
		case field.Tag() == "input" && typ == "checkbox":
			field.SetChecked(value != "")
		case field.Tag() == "input" && typ == "radio":
			found := false
			sel, err := dom.Compile(fmt.Sprintf("input[type=radio][name=%q]", name))
			if err != nil {
				return err
			}
			for _, opt := range doc.Find(sel) {
				match := opt.Value() == value
				opt.SetChecked(match)
				found = found || match
			}
			if !found {
				return fmt.Errorf("field %q has no option %q", name, value)
			}
		default:
			field.SetValue(value)
		}
	}
	return nil
}
