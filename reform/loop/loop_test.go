package loop

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLoopOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(0, nil)
	l.Start()
	defer l.Stop()

	got := make([]int, 0)
	for idx := 0; idx < 50; idx++ {
		l.Post(func() { got = append(got, idx) })
	}
	l.Sync(func() {})

	if len(got) != 50 {
		t.Fatalf("Unexpected number of callbacks run: %d (expected 50)", len(got))
	}
	for idx := range got {
		if got[idx] != idx {
			t.Fatalf("Callback %d ran out of order: %v", idx, got)
		}
	}
}

func TestLoopPostFromGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(4, nil)
	l.Start()
	defer l.Stop()

	// counter is only touched on the loop goroutine
	counter := 0
	var wg sync.WaitGroup
	for idx := 0; idx < 20; idx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() { counter++ })
		}()
	}
	wg.Wait()
	l.Sync(func() {})
	if counter != 20 {
		t.Fatalf("Unexpected counter value: %d (expected 20)", counter)
	}
}

func TestLoopRecoversPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(0, nil)
	l.Start()
	defer l.Stop()

	l.Post(func() { panic("boom") })
	ran := false
	l.Sync(func() { ran = true })
	if !ran {
		t.Fatal("Loop did not survive a panicking callback")
	}
}

func TestLoopStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(0, nil)
	l.Start()
	l.Stop()
	l.Stop()

	ran := make(chan struct{}, 1)
	l.Post(func() { ran <- struct{}{} })
	select {
	case <-ran:
		t.Fatal("Callback ran after Stop")
	case <-time.After(10 * time.Millisecond):
	}
	l.Sync(func() {})
}

func TestLoopStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(0, nil)
	l.Stop()
	l.Start()
}
