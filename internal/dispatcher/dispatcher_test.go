package dispatcher

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("truck.speed", func(e Event) error {
		got = e
		return nil
	})

	err := d.Dispatch(Event{Name: "truck.speed", Payload: 12.5})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got.Name != "truck.speed" {
		t.Errorf("handler was not called, got %+v", got)
	}
	if got.Payload != 12.5 {
		t.Errorf("expected payload 12.5, got %v", got.Payload)
	}
}

func TestDispatcher_RunsOnCallerInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var order []string
	d.Register("a", func(e Event) error { order = append(order, "a"); return nil })
	d.Register("b", func(e Event) error { order = append(order, "b"); return nil })

	for _, name := range []string{"a", "b", "a", "a", "b"} {
		if err := d.Dispatch(Event{Name: name}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if strings.Join(order, "") != "abaab" {
		t.Errorf("expected delivery order abaab, got %v", order)
	}
}

func TestDispatcher_UnknownEvent(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Dispatch(Event{Name: "unknown"})

	if err == nil {
		t.Error("expected error for unknown event")
	}
}

func TestDispatcher_HandlerErrorIsReturned(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("frame_end", func(e Event) error {
		return fmt.Errorf("disk full")
	})

	err := d.Dispatch(Event{Name: "frame_end"})
	if err == nil || err.Error() != "disk full" {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("paused", func(e Event) error {
		return nil
	}, Logged())

	d.Dispatch(Event{Name: "paused"})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("configuration", func(e Event) error {
		return fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(Event{Name: "configuration"})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if strings.HasPrefix(msg, "ERROR") {
			hasError = true
			break
		}
	}

	if !hasError {
		t.Error("expected error log message")
	}
}

func TestDispatcher_UnloggedHandlerIsSilent(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("truck.engine.rpm", func(e Event) error { return nil })
	d.Dispatch(Event{Name: "truck.engine.rpm"})

	if len(logger.messages) != 0 {
		t.Errorf("expected no log messages, got %v", logger.messages)
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("started", func(e Event) error { return nil })

	if !d.HasHandler("started") {
		t.Error("expected handler to exist")
	}

	if d.HasHandler("gameplay") {
		t.Error("expected handler to not exist")
	}
}

func TestDispatcher_ReRegisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)

	calls := ""
	d.Register("x", func(e Event) error { calls += "old"; return nil })
	d.Register("x", func(e Event) error { calls += "new"; return nil })

	d.Dispatch(Event{Name: "x"})

	if calls != "new" {
		t.Errorf("expected replacement handler, got %q", calls)
	}
}

func TestDispatcher_Names(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("truck.speed", func(e Event) error { return nil })
	d.Register("frame_end", func(e Event) error { return nil })

	names := d.Names()
	if len(names) != 2 || names[0] != "frame_end" || names[1] != "truck.speed" {
		t.Errorf("unexpected names %v", names)
	}
}
