// Package loop implements the single threaded event loop the form controller
// runs on.  Callbacks are queued and executed one at a time, each to
// completion, on a dedicated goroutine.
package loop

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultQueueSize is the queue length used when New is given zero.
const DefaultQueueSize = 100

// Loop is a queue of callbacks run in posting order.
type Loop struct {
	queue   chan func()
	stop    chan struct{}
	done    chan struct{}
	log     *zap.Logger
	startMu sync.Once
	stopMu  sync.Once
}

// New creates a loop with room for size pending callbacks.  Start must be
// called before posted callbacks run.
func New(size int, logger *zap.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		queue: make(chan func(), size),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   logger,
	}
}

// Post queues fn to run on the loop.  It blocks while the queue is full and
// drops fn once the loop has been stopped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.stop:
		l.log.Debug("Loop stopped, dropping callback")
	case l.queue <- fn:
	}
}

// Sync runs fn on the loop and waits for it to return.  It must not be called
// from a callback running on the same loop.
func (l *Loop) Sync(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

// Start launches the loop goroutine and returns.
func (l *Loop) Start() {
	l.startMu.Do(func() {
		go l.run()
		l.log.Debug("Loop started")
	})
}

// Stop ends the loop after the running callback returns and waits for the
// goroutine to exit.  Pending callbacks are discarded.
func (l *Loop) Stop() {
	l.stopMu.Do(func() {
		close(l.stop)
	})
	// a loop that never started has no goroutine to wait for
	l.startMu.Do(func() {
		close(l.done)
	})
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.queue:
			l.call(fn)
		case <-l.stop:
			return
		}
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Callback panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}
