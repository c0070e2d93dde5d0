package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session identifies a visitor of the form server.  Its ID is stored in the
// session cookie.
type Session struct {
	// Session ID (stored in the cookie)
	ID string `xorm:"pk"`
	// Time when the session was created (for expiration)
	Created time.Time
}

// NewSession creates a new session with a new unique ID.
func NewSession() *Session {
	sess := new(Session)
	sess.ID = uuid.New().String()
	sess.Created = time.Now()
	return sess
}

// Expired reports whether the session is older than maxAge.
func (sess *Session) Expired(maxAge time.Duration) bool {
	return time.Since(sess.Created) > maxAge
}

// InsertSession inserts a new Session into the database.
func (conn *Connection) InsertSession(sess *Session) error {
	_, err := conn.engine.Insert(sess)
	return err
}

// GetSession retrieves a session from the database given its ID.
func (conn *Connection) GetSession(id string) (*Session, error) {
	sess := new(Session)
	sess.ID = id
	if has, err := conn.engine.Get(sess); err != nil {
		return nil, err
	} else if !has {
		return nil, fmt.Errorf("not found")
	}
	return sess, nil
}

// DeleteSession removes a session from the database.
func (conn *Connection) DeleteSession(id string) error {
	_, err := conn.engine.ID(id).Delete(new(Session))
	return err
}
