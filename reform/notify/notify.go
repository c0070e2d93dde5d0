// Package notify provides the user-visible notification service shared by
// all forms of a page.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Service counts and records notifications.  It is safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	messages []string
	out      io.Writer
	log      *zap.Logger
}

// New returns a Service that logs every notification.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{log: logger}
}

// NewWriter returns a Service that additionally prints every notification as
// a line to out.
func NewWriter(out io.Writer, logger *zap.Logger) *Service {
	srv := New(logger)
	srv.out = out
	return srv
}

// Notify records a message for the user.
func (srv *Service) Notify(msg string) {
	srv.mu.Lock()
	srv.messages = append(srv.messages, msg)
	count := len(srv.messages)
	srv.mu.Unlock()

	srv.log.Warn("Notification", zap.Int("count", count), zap.String("message", msg))
	if srv.out != nil {
		fmt.Fprintln(srv.out, msg)
	}
}

// Count returns the number of notifications so far.
func (srv *Service) Count() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.messages)
}

// Messages returns a copy of all recorded messages in order.
func (srv *Service) Messages() []string {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	msgs := make([]string, len(srv.messages))
	copy(msgs, srv.messages)
	return msgs
}

// Last returns the most recent message, or the empty string.
func (srv *Service) Last() string {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.messages) == 0 {
		return ""
	}
	return srv.messages[len(srv.messages)-1]
}
