package emitter

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestEmitter_OrderAndDuplicates(t *testing.T) {
	e := New[string]()
	var calls []string

	a := NewListener(func(v string) { calls = append(calls, "a:"+v) })
	b := NewListener(func(v string) { calls = append(calls, "b:"+v) })

	e.On("drop", a).On("drop", b).AddEventListener("drop", a)
	e.Emit("drop", "x")

	want := []string{"a:x", "b:x", "a:x"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestEmitter_Once(t *testing.T) {
	e := New[int]()
	count := 0
	e.Once("dragstart", NewListener(func(int) { count++ }))

	e.Emit("dragstart", 1)
	e.Emit("dragstart", 2)

	if count != 1 {
		t.Errorf("once listener called %d times, want 1", count)
	}
	if n := e.ListenerCount("dragstart"); n != 0 {
		t.Errorf("ListenerCount = %d, want 0", n)
	}
}

func TestEmitter_OnceReentrant(t *testing.T) {
	e := New[int]()
	count := 0

	// The first listener re-emits before the once listener is reached in
	// the outer emit.
	e.On("drag", NewListener(func(depth int) {
		if depth == 0 {
			e.Emit("drag", 1)
		}
	}))
	e.Once("drag", NewListener(func(int) { count++ }))

	e.Emit("drag", 0)

	if count != 1 {
		t.Errorf("once listener called %d times, want 1", count)
	}
}

func TestEmitter_Off(t *testing.T) {
	t.Run("event only clears channel", func(t *testing.T) {
		e := New[int]()
		called := false
		e.OnFunc("dragover", func(int) { called = true })
		e.OnFunc("dragover", func(int) { called = true })

		e.Off("dragover", nil)
		e.Emit("dragover", 0)

		if called {
			t.Error("listener invoked after Off(event)")
		}
	})

	t.Run("event and listener", func(t *testing.T) {
		e := New[int]()
		var calls []string
		a := NewListener(func(int) { calls = append(calls, "a") })
		b := NewListener(func(int) { calls = append(calls, "b") })
		e.On("drop", a).On("drop", b).On("drop", a)

		e.RemoveEventListener("drop", a)
		e.Emit("drop", 0)

		if !reflect.DeepEqual(calls, []string{"b"}) {
			t.Errorf("calls = %v, want [b]", calls)
		}
	})

	t.Run("listener on every channel", func(t *testing.T) {
		e := New[int]()
		count := 0
		l := NewListener(func(int) { count++ })
		other := e.OnFunc("dragleave", func(int) {})
		e.On("dragenter", l).On("dragleave", l).On("drop", l)

		e.Off("", l)
		e.Emit("dragenter", 0).Emit("dragleave", 0).Emit("drop", 0)

		if count != 0 {
			t.Errorf("listener called %d times after global Off", count)
		}
		if n := e.ListenerCount("dragleave"); n != 1 {
			t.Errorf("ListenerCount(dragleave) = %d, want 1", n)
		}
		e.Off("dragleave", other)
		if names := e.EventNames(); len(names) != 0 {
			t.Errorf("EventNames = %v, want none", names)
		}
	})

	t.Run("unknown channel is a no-op", func(t *testing.T) {
		e := New[int]()
		e.Off("missing", nil)
		e.Off("missing", NewListener(func(int) {}))
		e.Emit("missing", 0)
	})
}

func TestEmitter_RemovalDuringEmit(t *testing.T) {
	e := New[int]()
	var calls []string

	var second *Listener[int]
	first := NewListener(func(int) {
		calls = append(calls, "first")
		e.Off("drop", second)
		e.OnFunc("drop", func(int) { calls = append(calls, "late") })
	})
	second = NewListener(func(int) { calls = append(calls, "second") })
	e.On("drop", first).On("drop", second)

	e.Emit("drop", 0)
	if !reflect.DeepEqual(calls, []string{"first"}) {
		t.Fatalf("calls = %v, want [first]", calls)
	}

	calls = nil
	e.Off("drop", first)
	e.Emit("drop", 0)
	if !reflect.DeepEqual(calls, []string{"late"}) {
		t.Errorf("calls = %v, want [late]", calls)
	}
}

func TestEmitter_RemoveAllListenersIdempotent(t *testing.T) {
	e := New[int]()
	e.OnFunc("a", func(int) {})
	e.OnFunc("b", func(int) {})

	e.RemoveAllListeners()
	first := e.EventNames()
	e.RemoveAllListeners()
	second := e.EventNames()

	if len(first) != 0 || len(second) != 0 {
		t.Errorf("EventNames = %v then %v, want empty both times", first, second)
	}
	if e.ListenerCount("a") != 0 {
		t.Error("expected channel a to be empty")
	}
}

func TestEmitter_PanicIsolation(t *testing.T) {
	var buf bytes.Buffer
	e := New[int]()
	e.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	reached := false
	e.OnFunc("drag", func(int) { panic("boom") })
	e.OnFunc("drag", func(int) { reached = true })

	e.Emit("drag", 0)

	if !reached {
		t.Error("listener after a panicking one was not invoked")
	}
	if !strings.Contains(buf.String(), "listener panicked") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestEmitter_EventNamesOrder(t *testing.T) {
	var e Emitter[int]
	e.OnFunc("drop", func(int) {})
	e.OnFunc("dragenter", func(int) {})
	e.OnFunc("drop", func(int) {})

	want := []string{"drop", "dragenter"}
	if got := e.EventNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("EventNames = %v, want %v", got, want)
	}
}

func TestEmitter_Concurrent(t *testing.T) {
	e := New[int]()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := e.OnFunc("tick", func(v int) {
				mu.Lock()
				total += v
				mu.Unlock()
			})
			e.Emit("tick", 1)
			e.Off("tick", l)
		}()
	}
	wg.Wait()

	if e.ListenerCount("tick") != 0 {
		t.Errorf("ListenerCount = %d, want 0", e.ListenerCount("tick"))
	}
	if total < 8 {
		t.Errorf("total = %d, want at least 8", total)
	}
}
