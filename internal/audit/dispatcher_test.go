package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d.Emit(ctx, Event{EventType: "login_success", SessionID: string(rune('a' + i))})
	}
	d.Close()

	for i := 0; i < 3; i++ {
		select {
		case got := <-sink.Events():
			if got.SessionID != string(rune('a'+i)) {
				t.Fatalf("event %d out of order: %q", i, got.SessionID)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled config should produce a nil dispatcher")
	}
	// Nil receivers must be safe.
	d.Emit(context.Background(), Event{EventType: "noop"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	blocker := make(chan struct{})
	sink := sinkFunc(func(context.Context, Event) { <-blocker })
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// One event occupies the worker, one fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(ctx, Event{EventType: "login_failure"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}
	close(blocker)
	d.Close()
}

func TestJSONWriterSinkEmitsOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{EventType: "login_success", PrincipalID: "u-1", Success: true})
	sink.Emit(context.Background(), Event{EventType: "login_failure", PrincipalID: "u-2"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first Event
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.EventType != "login_success" || first.PrincipalID != "u-1" || !first.Success {
		t.Fatalf("unexpected event: %+v", first)
	}
}

type sinkFunc func(context.Context, Event)

func (f sinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }
