package events

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestBus(t *testing.T) (*Bus, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	bus := NewBus("engine")
	bus.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return bus, &buf
}

func TestBus_RegistrationOrder(t *testing.T) {
	bus, _ := newTestBus(t)
	var calls []string

	bus.On("a", "load", func(Event) { calls = append(calls, "A") })
	bus.On("a", "load", func(Event) { calls = append(calls, "B") })

	bus.Emit("a", "load")

	if strings.Join(calls, ",") != "A,B" {
		t.Errorf("calls = %v, want [A B]", calls)
	}
}

func TestBus_MultipleEventNames(t *testing.T) {
	bus, _ := newTestBus(t)
	var calls []string

	bus.On("a", "load  error", func(ev Event) { calls = append(calls, "both:"+ev.Name) })
	bus.On("a", "error", func(ev Event) { calls = append(calls, "error:"+ev.Name) })

	bus.Emit("a", "error load")
	want := "both:error,error:error,both:load"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}

	calls = nil
	bus.Emit("a", []string{"load", "error"})
	want = "both:load,both:error,error:error"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("slice dispatch = %s, want %s", got, want)
	}
}

func TestBus_ForwardsArgsAndContext(t *testing.T) {
	bus, _ := newTestBus(t)
	var got Event

	bus.On("img", "load", func(ev Event) { got = ev })
	bus.Emit("img", "load", "element", 42)

	if got.Key != "img" || got.Name != "load" {
		t.Errorf("event = %+v", got)
	}
	if got.Context != "engine" {
		t.Errorf("Context = %v, want engine", got.Context)
	}
	if got.Arg(0) != "element" || got.Arg(1) != 42 || got.Arg(2) != nil || got.Arg(-1) != nil {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBus_NilHandlerIgnored(t *testing.T) {
	bus, _ := newTestBus(t)
	bus.On("a", "load", nil)
	if n := bus.Count("a", "load"); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
	bus.Emit("a", "load") // must not panic
}

func TestBus_KeyValidation(t *testing.T) {
	bus, buf := newTestBus(t)
	called := false
	bus.On("1", "load", func(Event) { called = true })

	bus.Emit(nil, "load")
	if buf.Len() != 0 {
		t.Errorf("nil key should be silent, got log %q", buf.String())
	}

	bus.Emit(1, "load")
	if called {
		t.Error("non-string key must not dispatch")
	}
	if !strings.Contains(buf.String(), "E002") {
		t.Errorf("expected E002 diagnostic, got %q", buf.String())
	}
}

func TestBus_EventsValidation(t *testing.T) {
	bus, buf := newTestBus(t)
	called := false
	bus.On("a", "load", func(Event) { called = true })

	bus.Emit("a", 7)
	if called {
		t.Error("malformed events must not dispatch")
	}
	if !strings.Contains(buf.String(), "E003") {
		t.Errorf("expected E003 diagnostic, got %q", buf.String())
	}
}

func TestBus_UnknownKeyIsSilent(t *testing.T) {
	bus, buf := newTestBus(t)
	bus.Emit("nobody", "load")
	if buf.Len() != 0 {
		t.Errorf("unexpected log: %q", buf.String())
	}
}

func TestBus_SnapshotDuringDispatch(t *testing.T) {
	bus, _ := newTestBus(t)
	late := 0

	bus.On("a", "load", func(Event) {
		bus.On("a", "load", func(Event) { late++ })
	})

	bus.Emit("a", "load")
	if late != 0 {
		t.Errorf("callback registered during dispatch ran in the same pass (%d)", late)
	}
	if n := bus.Count("a", "load"); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	bus.Emit("a", "load")
	if late != 1 {
		t.Errorf("late = %d, want 1 on the next emit", late)
	}
}

func TestBus_KeysAreIsolated(t *testing.T) {
	bus, _ := newTestBus(t)
	var got []string
	bus.On("a", "load", func(ev Event) { got = append(got, ev.Key) })
	bus.On("b", "load", func(ev Event) { got = append(got, ev.Key) })

	bus.Emit("b", "load")
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("got %v, want [b]", got)
	}
}
