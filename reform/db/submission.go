package db

import (
	"fmt"
	"strings"
	"time"
)

// Submission holds an accepted form submission.
type Submission struct {
	// Submission ID (auto)
	ID int64 `xorm:"pk autoincr"`
	// ID of the visitor session that submitted the form
	SessionID string `xorm:"index"`
	// ID of the submitted form
	FormID string
	// Submitted values of the used fields
	ValueMap map[string]string
	// Names of the fields present on the page, in page order
	UsedFields []string
	// Time when the submission was accepted
	SubmitTime time.Time
}

// UsedFieldNames returns the used field names as they were submitted.
func (s Submission) UsedFieldNames() string {
	return strings.Join(s.UsedFields, ",")
}

// InsertSubmission inserts a new Submission into the database.  Upon
// successful return, the Submission has a new unique ID.
func (conn *Connection) InsertSubmission(sub *Submission) error {
	_, err := conn.engine.Insert(sub) // ID is assigned on insertion
	return err
}

// GetSubmission retrieves a Submission from the database given its ID.
func (conn *Connection) GetSubmission(id int64) (*Submission, error) {
	sub := new(Submission)
	sub.ID = id
	if has, err := conn.engine.Get(sub); err != nil {
		return nil, err
	} else if !has {
		return nil, fmt.Errorf("not found")
	}
	return sub, nil
}

// SessionSubmissions retrieves all the Submissions made in a given session.
func (conn *Connection) SessionSubmissions(sessionID string) ([]Submission, error) {
	subs := make([]Submission, 0)
	condition := Submission{SessionID: sessionID}
	if err := conn.engine.Asc("id").Find(&subs, condition); err != nil {
		return nil, err
	}
	return subs, nil
}
