package memdom

import (
	"slices"

	"github.com/vango-dev/dnd/pkg/dom"
)

// Event is an in-memory native event.
type Event struct {
	kind      string
	prevented bool
	transfer  *DataTransfer
	target    *Element
}

// NewEvent creates an event without a data transfer.
func NewEvent(eventType string) *Event {
	return &Event{kind: eventType}
}

// NewDragEvent creates an event carrying dt. A nil dt gets a fresh,
// empty transfer.
func NewDragEvent(eventType string, dt *DataTransfer) *Event {
	if dt == nil {
		dt = NewDataTransfer()
	}
	return &Event{kind: eventType, transfer: dt}
}

// Type implements dom.Event.
func (e *Event) Type() string { return e.kind }

// PreventDefault implements dom.Event.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented implements dom.Event.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// DataTransfer implements dom.Event.
func (e *Event) DataTransfer() dom.DataTransfer {
	if e.transfer == nil {
		return nil
	}
	return e.transfer
}

// Transfer returns the concrete transfer, or nil.
func (e *Event) Transfer() *DataTransfer { return e.transfer }

// Target returns the element the event was dispatched on.
func (e *Event) Target() *Element { return e.target }

// Item is one entry of a data transfer.
type Item struct {
	Format string
	Data   string
}

// DataTransfer is an in-memory drag payload.
type DataTransfer struct {
	DropEffect    string
	EffectAllowed string

	items []Item
	files []dom.File
}

// NewDataTransfer creates a transfer carrying files.
func NewDataTransfer(files ...dom.File) *DataTransfer {
	return &DataTransfer{
		DropEffect:    "none",
		EffectAllowed: "uninitialized",
		files:         slices.Clone(files),
	}
}

// SetDropEffect implements dom.DataTransfer.
func (t *DataTransfer) SetDropEffect(effect string) { t.DropEffect = effect }

// SetEffectAllowed implements dom.DataTransfer.
func (t *DataTransfer) SetEffectAllowed(effect string) { t.EffectAllowed = effect }

// SetData implements dom.DataTransfer. Setting an existing format replaces
// its data in place.
func (t *DataTransfer) SetData(format, data string) {
	for i := range t.items {
		if t.items[i].Format == format {
			t.items[i].Data = data
			return
		}
	}
	t.items = append(t.items, Item{Format: format, Data: data})
}

// GetData returns the data stored for format.
func (t *DataTransfer) GetData(format string) string {
	for _, it := range t.items {
		if it.Format == format {
			return it.Data
		}
	}
	return ""
}

// Types returns the stored formats in insertion order.
func (t *DataTransfer) Types() []string {
	types := make([]string, len(t.items))
	for i, it := range t.items {
		types[i] = it.Format
	}
	return types
}

// Items returns a copy of the stored entries.
func (t *DataTransfer) Items() []Item {
	return slices.Clone(t.items)
}

// Files implements dom.DataTransfer.
func (t *DataTransfer) Files() []dom.File {
	return slices.Clone(t.files)
}
