package notify

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotify(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	srv := New(zap.New(core))

	if srv.Last() != "" || srv.Count() != 0 {
		t.Fatalf("New service not empty: %v", srv.Messages())
	}

	srv.Notify("first")
	srv.Notify("second")

	if srv.Count() != 2 {
		t.Fatalf("Unexpected count: %d (expected 2)", srv.Count())
	}
	if srv.Last() != "second" {
		t.Fatalf("Unexpected last message: %q", srv.Last())
	}
	if diff := cmp.Diff([]string{"first", "second"}, srv.Messages()); diff != "" {
		t.Fatalf("Unexpected messages (-want +got):\n%s", diff)
	}
	if logs.Len() != 2 {
		t.Fatalf("Unexpected number of log entries: %d (expected 2)", logs.Len())
	}
}

func TestNotifyWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	srv := NewWriter(buf, nil)
	srv.Notify("network failure")
	if buf.String() != "network failure\n" {
		t.Fatalf("Unexpected output: %q", buf.String())
	}
}
