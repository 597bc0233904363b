package memdom

import (
	"slices"
	"sync"

	"github.com/vango-dev/dnd/pkg/dom"
)

// Mutation describes an attribute change on an attached element.
type Mutation struct {
	Element   *Element
	Attribute string
	Value     string
	Removed   bool
}

// Document is a flat, in-memory document. Elements live in document order;
// file inputs created for choosers are detached and never match selectors.
type Document struct {
	mu        sync.Mutex
	elements  []*Element
	observers []func(Mutation)
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// CreateElement appends a new element to the document. Classes are added
// to its class attribute in order.
func (d *Document) CreateElement(tag, id string, classes ...string) *Element {
	el := newElement(d, tag)
	if id != "" {
		el.attrs["id"] = id
	}
	for _, c := range classes {
		el.attrs["class"] = dom.AddClassName(el.attrs["class"], c)
	}

	d.mu.Lock()
	d.elements = append(d.elements, el)
	d.mu.Unlock()
	return el
}

// CreateFileInput implements dom.Document.
func (d *Document) CreateFileInput() dom.FileInput {
	el := newElement(d, "input")
	el.detached.Store(true)
	el.attrs["type"] = "file"
	el.attrs["hidden"] = ""
	el.attrs["multiple"] = ""
	return el
}

// QuerySelectorAll implements dom.Document.
func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	sel, ok := parseSelector(selector)
	if !ok {
		return nil
	}

	var out []dom.Element
	for _, el := range d.Elements() {
		if sel.matches(el) {
			out = append(out, el)
		}
	}
	return out
}

// GetElementByID returns the first attached element with the given id.
func (d *Document) GetElementByID(id string) *Element {
	for _, el := range d.Elements() {
		if el.ID() == id {
			return el
		}
	}
	return nil
}

// Elements returns the attached elements in document order.
func (d *Document) Elements() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.elements)
}

// Remove detaches el from the document.
func (d *Document) Remove(el *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements = slices.DeleteFunc(d.elements, func(e *Element) bool { return e == el })
	el.detached.Store(true)
}

// Observe registers fn for attribute mutations on attached elements.
func (d *Document) Observe(fn func(Mutation)) {
	d.mu.Lock()
	d.observers = append(d.observers, fn)
	d.mu.Unlock()
}

func (d *Document) notify(m Mutation) {
	if m.Element.Detached() {
		return
	}
	d.mu.Lock()
	observers := slices.Clone(d.observers)
	d.mu.Unlock()
	for _, fn := range observers {
		fn(m)
	}
}
