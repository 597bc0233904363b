package dom

import (
	"bytes"
	"io"
	"time"
)

// Native event types consumed by the drag and drop controllers.
const (
	EventClick     = "click"
	EventChange    = "change"
	EventDragStart = "dragstart"
	EventDrag      = "drag"
	EventDragEnd   = "dragend"
	EventDragEnter = "dragenter"
	EventDragOver  = "dragover"
	EventDragLeave = "dragleave"
	EventDrop      = "drop"
)

// Document resolves selectors into elements and creates the helper
// elements the controllers need.
type Document interface {
	// QuerySelectorAll returns the attached elements matching selector in
	// document order. An invalid selector matches nothing.
	QuerySelectorAll(selector string) []Element

	// CreateFileInput creates a hidden, detached input[type=file].
	CreateFileInput() FileInput
}

// Element is a handle to a platform element.
type Element interface {
	// ID returns the element's id attribute, or "" when it has none.
	ID() string

	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool
	SetAttribute(name, value string)

	// AddEventListener registers h for native events of the given type.
	// Handlers run in registration order.
	AddEventListener(eventType string, h Handler)

	// Click dispatches a synthetic click, as HTMLElement.click() does.
	Click()
}

// FileInput is an input[type=file] element.
type FileInput interface {
	Element

	// Files returns the files of the latest chooser selection.
	Files() []File
}

// Handler receives native events.
type Handler func(Event)

// Event is a native event delivered by the platform.
type Event interface {
	Type() string
	PreventDefault()
	DefaultPrevented() bool

	// DataTransfer returns the drag payload, or nil for events that do not
	// carry one.
	DataTransfer() DataTransfer
}

// DataTransfer is the platform's drag payload.
type DataTransfer interface {
	SetDropEffect(effect string)
	SetEffectAllowed(effect string)
	SetData(format, data string)
	Files() []File
}

// File describes a file delivered by a drop or a chooser selection.
type File struct {
	Name         string
	Type         string
	Size         int64
	LastModified time.Time

	// Open returns the file contents. A nil Open means the contents are
	// not available on this platform.
	Open func() (io.ReadCloser, error)
}

// Contents opens the file, or returns an empty reader when the platform
// did not provide one.
func (f File) Contents() (io.ReadCloser, error) {
	if f.Open == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return f.Open()
}

// BytesFile builds a File backed by an in-memory buffer.
func BytesFile(name, contentType string, data []byte) File {
	return File{
		Name:         name,
		Type:         contentType,
		Size:         int64(len(data)),
		LastModified: time.Now(),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
