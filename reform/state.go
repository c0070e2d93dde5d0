package reform

// State of a Controller within a validation or submission cycle.
type State int

const (
	// Idle: no exchange in flight.
	Idle State = iota
	// Validating: a validation exchange is in flight.
	Validating
	// Submitting: a submission exchange or navigation is in flight.
	Submitting
	// ReactivatedWithErrors: field errors were applied.
	ReactivatedWithErrors
	// ReactivatedWithContent: an ajax submission was accepted.
	ReactivatedWithContent
	// Navigated: a regular submission loaded a new page.  Terminal.
	Navigated
	// Failed: an exchange failed without a response.
	Failed
)

var stateNames = [...]string{
	Idle:                   "idle",
	Validating:             "validating",
	Submitting:             "submitting",
	ReactivatedWithErrors:  "reactivated-with-errors",
	ReactivatedWithContent: "reactivated-with-content",
	Navigated:              "navigated",
	Failed:                 "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
