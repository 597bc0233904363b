package dndtest

import (
	"sync"

	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/dom/memdom"
	"github.com/vango-dev/dnd/pkg/emitter"
)

// DragEnter dispatches a dragenter on el and returns the event.
func DragEnter(el *memdom.Element) *memdom.Event {
	return dispatch(el, dom.EventDragEnter, nil)
}

// DragOver dispatches one dragover tick on el.
func DragOver(el *memdom.Element) *memdom.Event {
	return dispatch(el, dom.EventDragOver, nil)
}

// DragLeave dispatches a dragleave on el.
func DragLeave(el *memdom.Element) *memdom.Event {
	return dispatch(el, dom.EventDragLeave, nil)
}

// DropFiles dispatches a drop carrying files on el.
func DropFiles(el *memdom.Element, files ...dom.File) *memdom.Event {
	return dispatch(el, dom.EventDrop, memdom.NewDataTransfer(files...))
}

// DragStart dispatches a dragstart on el with a fresh transfer and
// returns the event; the transfer holds whatever the source wrote.
func DragStart(el *memdom.Element) *memdom.Event {
	return dispatch(el, dom.EventDragStart, nil)
}

// Drag dispatches one drag tick on el.
func Drag(el *memdom.Element) *memdom.Event {
	return dispatch(el, dom.EventDrag, nil)
}

// DragEnd dispatches a dragend on el.
func DragEnd(el *memdom.Element) *memdom.Event {
	return dispatch(el, dom.EventDragEnd, nil)
}

// DragTo plays a complete gesture from src onto dst the way a browser
// delivers it: dragstart and one drag tick on src, dragenter and one
// dragover on dst, then drop on dst and dragend on src. All events share
// one transfer, which is returned.
func DragTo(src, dst *memdom.Element) *memdom.DataTransfer {
	dt := memdom.NewDataTransfer()
	dispatch(src, dom.EventDragStart, dt)
	dispatch(src, dom.EventDrag, dt)
	dispatch(dst, dom.EventDragEnter, dt)
	dispatch(dst, dom.EventDragOver, dt)
	dispatch(dst, dom.EventDrop, dt)
	dispatch(src, dom.EventDragEnd, dt)
	return dt
}

func dispatch(el *memdom.Element, eventType string, dt *memdom.DataTransfer) *memdom.Event {
	ev := memdom.NewDragEvent(eventType, dt)
	el.Dispatch(ev)
	return ev
}

// TextFile builds an in-memory text/plain file.
func TextFile(name, content string) dom.File {
	return dom.BytesFile(name, "text/plain", []byte(content))
}

// Recorder captures emitted payloads in order.
type Recorder[T any] struct {
	mu     sync.Mutex
	names  []string
	events []T
}

// Record subscribes a recorder to the given channels of em.
func Record[T any](em *emitter.Emitter[T], names ...string) *Recorder[T] {
	r := &Recorder[T]{}
	for _, name := range names {
		name := name
		em.OnFunc(name, func(v T) {
			r.mu.Lock()
			r.names = append(r.names, name)
			r.events = append(r.events, v)
			r.mu.Unlock()
		})
	}
	return r
}

// Names returns the recorded channel names in emit order.
func (r *Recorder[T]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// Events returns the recorded payloads in emit order.
func (r *Recorder[T]) Events() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.events...)
}

// Len returns the number of recorded emits.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards everything recorded so far.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.names = nil
	r.events = nil
	r.mu.Unlock()
}
