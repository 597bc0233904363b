package memdom

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/dnd/pkg/dom"
)

// Element is an in-memory element. It also satisfies dom.FileInput so the
// document can hand out file choosers.
type Element struct {
	doc      *Document
	tag      string
	detached atomic.Bool

	mu        sync.Mutex
	attrs     map[string]string
	listeners map[string][]dom.Handler
	files     []dom.File
	clicks    int
}

var _ dom.FileInput = (*Element)(nil)

func newElement(doc *Document, tag string) *Element {
	return &Element{
		doc:       doc,
		tag:       strings.ToLower(tag),
		attrs:     make(map[string]string),
		listeners: make(map[string][]dom.Handler),
	}
}

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string { return e.tag }

// Detached reports whether the element is outside the document.
func (e *Element) Detached() bool { return e.detached.Load() }

// ID implements dom.Element.
func (e *Element) ID() string {
	v, _ := e.Attribute("id")
	return v
}

// ClassName returns the class attribute.
func (e *Element) ClassName() string {
	v, _ := e.Attribute("class")
	return v
}

// Attribute returns an attribute value and whether it is set.
func (e *Element) Attribute(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (e *Element) Attributes() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.attrs)
}

// SetAttribute implements dom.Element.
func (e *Element) SetAttribute(name, value string) {
	e.mu.Lock()
	old, had := e.attrs[name]
	e.attrs[name] = value
	e.mu.Unlock()

	if !had || old != value {
		e.doc.notify(Mutation{Element: e, Attribute: name, Value: value})
	}
}

// RemoveAttribute deletes an attribute.
func (e *Element) RemoveAttribute(name string) {
	e.mu.Lock()
	_, had := e.attrs[name]
	delete(e.attrs, name)
	e.mu.Unlock()

	if had {
		e.doc.notify(Mutation{Element: e, Attribute: name, Removed: true})
	}
}

// AddClass implements dom.Element.
func (e *Element) AddClass(name string) {
	e.SetAttribute("class", dom.AddClassName(e.ClassName(), name))
}

// RemoveClass implements dom.Element.
func (e *Element) RemoveClass(name string) {
	e.SetAttribute("class", dom.RemoveClassName(e.ClassName(), name))
}

// HasClass implements dom.Element.
func (e *Element) HasClass(name string) bool {
	return dom.HasClassName(e.ClassName(), name)
}

// Classes returns the class tokens in order.
func (e *Element) Classes() []string {
	return strings.Fields(e.ClassName())
}

// AddEventListener implements dom.Element.
func (e *Element) AddEventListener(eventType string, h dom.Handler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	e.listeners[eventType] = append(e.listeners[eventType], h)
	e.mu.Unlock()
}

// ListenerCount returns the number of native listeners for eventType.
func (e *Element) ListenerCount(eventType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[eventType])
}

// Dispatch delivers ev to the element's listeners in registration order
// and reports whether the default action was not prevented.
func (e *Element) Dispatch(ev *Event) bool {
	ev.target = e

	e.mu.Lock()
	handlers := slices.Clone(e.listeners[ev.Type()])
	e.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return !ev.DefaultPrevented()
}

// Click implements dom.Element.
func (e *Element) Click() {
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	e.Dispatch(NewEvent(dom.EventClick))
}

// Clicks returns how many times Click was called.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Files implements dom.FileInput.
func (e *Element) Files() []dom.File {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.files)
}

// SelectFiles simulates a chooser selection: it stores files and
// dispatches a change event.
func (e *Element) SelectFiles(files ...dom.File) {
	e.mu.Lock()
	e.files = slices.Clone(files)
	e.mu.Unlock()
	e.Dispatch(NewEvent(dom.EventChange))
}
