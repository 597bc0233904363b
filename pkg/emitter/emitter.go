package emitter

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Listener is a subscription handle. Go func values cannot be compared, so
// removal matches listeners by handle identity; register the same handle
// twice and it is invoked twice.
type Listener[T any] struct {
	fn func(T)
}

// NewListener wraps fn in a handle.
func NewListener[T any](fn func(T)) *Listener[T] {
	return &Listener[T]{fn: fn}
}

// entry is one registration of a listener on a channel.
type entry[T any] struct {
	listener *Listener[T]
	once     bool

	// removed is set when the entry leaves its channel, so an emit that
	// snapshotted it skips it.
	removed atomic.Bool
}

// Emitter is a named-channel publish/subscribe hub. The zero value is
// ready to use. All methods are safe for concurrent use; listeners run
// outside the internal lock.
type Emitter[T any] struct {
	mu       sync.Mutex
	channels map[string][]*entry[T]
	names    []string // channel names in first-registration order
	logger   *slog.Logger
}

// New creates an empty Emitter.
func New[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// SetLogger sets the logger used to report listener panics.
func (e *Emitter[T]) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	e.logger = logger
	e.mu.Unlock()
}

// On appends l to the channel for name.
func (e *Emitter[T]) On(name string, l *Listener[T]) *Emitter[T] {
	e.add(name, l, false)
	return e
}

// AddEventListener is a synonym for On.
func (e *Emitter[T]) AddEventListener(name string, l *Listener[T]) *Emitter[T] {
	return e.On(name, l)
}

// OnFunc registers fn on name and returns its handle for later removal.
func (e *Emitter[T]) OnFunc(name string, fn func(T)) *Listener[T] {
	l := NewListener(fn)
	e.add(name, l, false)
	return l
}

// Once registers l for at most one invocation. The registration is
// dropped before l runs, so re-entrant emits cannot reach it again.
func (e *Emitter[T]) Once(name string, l *Listener[T]) *Emitter[T] {
	e.add(name, l, true)
	return e
}

func (e *Emitter[T]) add(name string, l *Listener[T], once bool) {
	if l == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.channels == nil {
		e.channels = make(map[string][]*entry[T])
	}
	if _, ok := e.channels[name]; !ok {
		e.names = append(e.names, name)
	}
	e.channels[name] = append(e.channels[name], &entry[T]{listener: l, once: once})
}

// Off removes listeners.
//
//   - Off(name, nil) clears the whole channel.
//   - Off(name, l) removes every registration of l on that channel.
//   - Off("", l) removes every registration of l on every channel.
//
// Unknown channels are ignored.
func (e *Emitter[T]) Off(name string, l *Listener[T]) *Emitter[T] {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case name != "" && l == nil:
		e.clearLocked(name)
	case name != "":
		e.removeLocked(name, func(ent *entry[T]) bool { return ent.listener == l })
	case l != nil:
		for _, n := range slices.Clone(e.names) {
			e.removeLocked(n, func(ent *entry[T]) bool { return ent.listener == l })
		}
	}
	return e
}

// RemoveEventListener is a synonym for Off.
func (e *Emitter[T]) RemoveEventListener(name string, l *Listener[T]) *Emitter[T] {
	return e.Off(name, l)
}

// RemoveAllListeners clears every channel.
func (e *Emitter[T]) RemoveAllListeners() *Emitter[T] {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entries := range e.channels {
		for _, ent := range entries {
			ent.removed.Store(true)
		}
	}
	e.channels = nil
	e.names = nil
	return e
}

func (e *Emitter[T]) clearLocked(name string) {
	entries, ok := e.channels[name]
	if !ok {
		return
	}
	for _, ent := range entries {
		ent.removed.Store(true)
	}
	delete(e.channels, name)
	e.names = slices.DeleteFunc(e.names, func(n string) bool { return n == name })
}

func (e *Emitter[T]) removeLocked(name string, match func(*entry[T]) bool) {
	entries, ok := e.channels[name]
	if !ok {
		return
	}
	kept := make([]*entry[T], 0, len(entries))
	for _, ent := range entries {
		if match(ent) {
			ent.removed.Store(true)
			continue
		}
		kept = append(kept, ent)
	}
	if len(kept) == 0 {
		e.clearLocked(name)
		return
	}
	e.channels[name] = kept
}

// Emit invokes the listeners registered on name when the emit starts, in
// registration order. Listeners removed by an earlier listener of the same
// emit are skipped; listeners added during it are not invoked. A panicking
// listener is logged and does not stop the remaining ones.
func (e *Emitter[T]) Emit(name string, payload T) *Emitter[T] {
	e.mu.Lock()
	snapshot := slices.Clone(e.channels[name])
	e.mu.Unlock()

	for _, ent := range snapshot {
		if ent.once {
			if !ent.removed.CompareAndSwap(false, true) {
				continue
			}
			e.mu.Lock()
			e.removeLocked(name, func(other *entry[T]) bool { return other == ent })
			e.mu.Unlock()
		} else if ent.removed.Load() {
			continue
		}
		e.invoke(name, ent.listener, payload)
	}
	return e
}

func (e *Emitter[T]) invoke(name string, l *Listener[T], payload T) {
	defer func() {
		if r := recover(); r != nil {
			e.log().Error("listener panicked", "event", name, "panic", r)
		}
	}()
	if l.fn != nil {
		l.fn(payload)
	}
}

func (e *Emitter[T]) log() *slog.Logger {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.logger == nil {
		return slog.Default().With("component", "emitter")
	}
	return e.logger
}

// ListenerCount returns the number of registrations on name.
func (e *Emitter[T]) ListenerCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.channels[name])
}

// EventNames returns the names of non-empty channels in the order they
// were first registered.
func (e *Emitter[T]) EventNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.names)
}
