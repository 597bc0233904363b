// Package dnd turns platform elements into drag sources and drop targets
// from a small declarative configuration, and reports the native drag and
// drop lifecycle through a uniform event channel.
//
// # Drop Targets
//
//	zone := dnd.Drop(doc, dnd.Select(".upload"), options.DropOptions{
//	    Click:      true,
//	    DropEffect: "copy",
//	})
//	zone.OnFunc(dnd.EventDrop, func(e *dnd.Event) {
//	    for _, f := range e.Files {
//	        fmt.Println(f.Name)
//	    }
//	})
//
// # Drag Sources
//
//	card := dnd.Drag(doc, dnd.Elements(el), options.DragOptions{
//	    EffectAllowed: "move",
//	    Data:          []string{"text/plain", "card-7"},
//	})
//	card.OnFunc(dnd.EventDragEnd, func(e *dnd.Event) { ... })
//
// # Marker Classes
//
// Governed elements carry classes external stylesheets can target:
//
//	dd-drop      every drop target
//	dd-click     drop targets with the file chooser fallback
//	dd-dragover  a drop target while something hovers it
//	dd-drag      every drag source
//	dd-dragging  a drag source while it is being dragged
package dnd

import (
	"log/slog"

	"github.com/vango-dev/dnd/pkg/dom"
)

// Controller events.
const (
	EventClick     = dom.EventClick
	EventDragEnter = dom.EventDragEnter
	EventDragOver  = dom.EventDragOver
	EventDragLeave = dom.EventDragLeave
	EventDrop      = dom.EventDrop
	EventDragStart = dom.EventDragStart
	EventDrag      = dom.EventDrag
	EventDragEnd   = dom.EventDragEnd
)

// Marker classes.
const (
	ClassDrop     = "dd-drop"
	ClassClick    = "dd-click"
	ClassDragOver = "dd-dragover"
	ClassDrag     = "dd-drag"
	ClassDragging = "dd-dragging"
)

// Event is the payload of every controller event.
type Event struct {
	// Type is the controller event name.
	Type string

	// Native is the platform event that triggered the emit.
	Native dom.Event

	// Element is the governed element the native event fired on. It is nil
	// for chooser selections.
	Element dom.Element

	// Files holds the files delivered with a drop or a chooser selection.
	Files []dom.File
}

// Targets describes the elements a controller governs.
type Targets interface {
	Resolve(doc dom.Document) []dom.Element
}

type selector string

func (s selector) Resolve(doc dom.Document) []dom.Element {
	if doc == nil {
		return nil
	}
	return doc.QuerySelectorAll(string(s))
}

type elementList []dom.Element

func (l elementList) Resolve(dom.Document) []dom.Element {
	out := make([]dom.Element, 0, len(l))
	for _, el := range l {
		if el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Select targets every element matching a CSS selector.
func Select(sel string) Targets { return selector(sel) }

// Elements targets the given elements. A single element is a list of one.
func Elements(els ...dom.Element) Targets { return elementList(els) }

func resolve(doc dom.Document, targets Targets) []dom.Element {
	if targets == nil {
		return nil
	}
	return targets.Resolve(doc)
}

// Option configures a controller.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.Default().With("component", "dnd")}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
