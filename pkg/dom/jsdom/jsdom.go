//go:build js && wasm

package jsdom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall/js"
	"time"

	"github.com/vango-dev/dnd/pkg/dom"
)

// Document wraps a browser document.
type Document struct {
	v js.Value

	mu    sync.Mutex
	funcs []js.Func
}

// New wraps the global document.
func New() *Document {
	return Wrap(js.Global().Get("document"))
}

// Wrap wraps a document value, such as an iframe's contentDocument.
func Wrap(v js.Value) *Document {
	return &Document{v: v}
}

// QuerySelectorAll implements dom.Document. Selectors the browser rejects
// match nothing.
func (d *Document) QuerySelectorAll(selector string) (els []dom.Element) {
	defer func() {
		if r := recover(); r != nil {
			els = nil
		}
	}()

	list := d.v.Call("querySelectorAll", selector)
	n := list.Length()
	els = make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		els = append(els, &Element{v: list.Index(i), doc: d})
	}
	return els
}

// GetElementByID returns the element with the given id, or nil.
func (d *Document) GetElementByID(id string) *Element {
	v := d.v.Call("getElementById", id)
	if v.IsNull() {
		return nil
	}
	return &Element{v: v, doc: d}
}

// CreateFileInput implements dom.Document. The input is appended to body
// hidden, since some browsers ignore click() on detached inputs.
func (d *Document) CreateFileInput() dom.FileInput {
	v := d.v.Call("createElement", "input")
	v.Set("type", "file")
	v.Set("multiple", true)
	v.Set("hidden", true)
	if body := d.v.Get("body"); body.Truthy() {
		body.Call("appendChild", v)
	}
	return &FileInput{Element: &Element{v: v, doc: d}}
}

// Release frees every callback registered through this document's
// elements. Events delivered afterwards raise errors in the browser
// console.
func (d *Document) Release() {
	d.mu.Lock()
	funcs := d.funcs
	d.funcs = nil
	d.mu.Unlock()

	for _, fn := range funcs {
		fn.Release()
	}
}

func (d *Document) retain(fn js.Func) {
	d.mu.Lock()
	d.funcs = append(d.funcs, fn)
	d.mu.Unlock()
}

// Element wraps a browser element.
type Element struct {
	v   js.Value
	doc *Document
}

// Value returns the underlying js.Value.
func (e *Element) Value() js.Value { return e.v }

// ID implements dom.Element.
func (e *Element) ID() string { return e.v.Get("id").String() }

// AddClass implements dom.Element.
func (e *Element) AddClass(name string) { e.v.Get("classList").Call("add", name) }

// RemoveClass implements dom.Element.
func (e *Element) RemoveClass(name string) { e.v.Get("classList").Call("remove", name) }

// HasClass implements dom.Element.
func (e *Element) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

// SetAttribute implements dom.Element.
func (e *Element) SetAttribute(name, value string) { e.v.Call("setAttribute", name, value) }

// Click implements dom.Element.
func (e *Element) Click() { e.v.Call("click") }

// AddEventListener implements dom.Element.
func (e *Element) AddEventListener(eventType string, h dom.Handler) {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			h(&Event{v: args[0]})
		}
		return nil
	})
	e.doc.retain(fn)
	e.v.Call("addEventListener", eventType, fn)
}

// FileInput wraps an input[type=file].
type FileInput struct {
	*Element
}

// Files implements dom.FileInput.
func (f *FileInput) Files() []dom.File {
	return files(f.v.Get("files"))
}

// Event wraps a browser event.
type Event struct {
	v js.Value
}

// Type implements dom.Event.
func (e *Event) Type() string { return e.v.Get("type").String() }

// PreventDefault implements dom.Event.
func (e *Event) PreventDefault() { e.v.Call("preventDefault") }

// DefaultPrevented implements dom.Event.
func (e *Event) DefaultPrevented() bool { return e.v.Get("defaultPrevented").Bool() }

// DataTransfer implements dom.Event.
func (e *Event) DataTransfer() dom.DataTransfer {
	dt := e.v.Get("dataTransfer")
	if !dt.Truthy() {
		return nil
	}
	return &DataTransfer{v: dt}
}

// DataTransfer wraps a browser DataTransfer.
type DataTransfer struct {
	v js.Value
}

// SetDropEffect implements dom.DataTransfer.
func (t *DataTransfer) SetDropEffect(effect string) { t.v.Set("dropEffect", effect) }

// SetEffectAllowed implements dom.DataTransfer.
func (t *DataTransfer) SetEffectAllowed(effect string) { t.v.Set("effectAllowed", effect) }

// SetData implements dom.DataTransfer.
func (t *DataTransfer) SetData(format, data string) { t.v.Call("setData", format, data) }

// GetData returns the data stored for format. Browsers only expose it
// during drop.
func (t *DataTransfer) GetData(format string) string {
	return t.v.Call("getData", format).String()
}

// Files implements dom.DataTransfer.
func (t *DataTransfer) Files() []dom.File {
	return files(t.v.Get("files"))
}

func files(list js.Value) []dom.File {
	if !list.Truthy() {
		return nil
	}
	n := list.Length()
	out := make([]dom.File, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, file(list.Index(i)))
	}
	return out
}

func file(v js.Value) dom.File {
	return dom.File{
		Name:         v.Get("name").String(),
		Type:         v.Get("type").String(),
		Size:         int64(v.Get("size").Float()),
		LastModified: time.UnixMilli(int64(v.Get("lastModified").Float())),
		Open: func() (io.ReadCloser, error) {
			data, err := readBlob(v)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// readBlob waits for blob.arrayBuffer(). It blocks until the browser
// resolves the promise, so it must not run on the goroutine delivering an
// event.
func readBlob(blob js.Value) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	var onResolve, onReject js.Func
	onResolve = js.FuncOf(func(this js.Value, args []js.Value) any {
		arr := js.Global().Get("Uint8Array").New(args[0])
		data := make([]byte, arr.Length())
		js.CopyBytesToGo(data, arr)
		done <- result{data: data}
		return nil
	})
	onReject = js.FuncOf(func(this js.Value, args []js.Value) any {
		msg := "unknown error"
		if len(args) > 0 {
			msg = args[0].Call("toString").String()
		}
		done <- result{err: fmt.Errorf("jsdom: read %s: %s", blob.Get("name").String(), msg)}
		return nil
	})
	defer onResolve.Release()
	defer onReject.Release()

	if !blob.Get("arrayBuffer").Truthy() {
		return nil, errors.New("jsdom: blob.arrayBuffer is not supported")
	}
	blob.Call("arrayBuffer").Call("then", onResolve, onReject)

	r := <-done
	return r.data, r.err
}

var (
	_ dom.Document     = (*Document)(nil)
	_ dom.FileInput    = (*FileInput)(nil)
	_ dom.Event        = (*Event)(nil)
	_ dom.DataTransfer = (*DataTransfer)(nil)
)
