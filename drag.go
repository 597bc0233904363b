package dnd

import (
	"log/slog"
	"slices"

	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/emitter"
	"github.com/vango-dev/dnd/pkg/options"
)

// DragController governs a set of drag sources. It emits dragstart, drag
// and dragend.
type DragController struct {
	emitter.Emitter[*Event]

	elements []dom.Element
	options  options.DragConfig
	logger   *slog.Logger
}

// Drag makes the targets draggable.
func Drag(doc dom.Document, targets Targets, opts options.DragOptions, o ...Option) *DragController {
	s := newSettings(o)
	dc := &DragController{
		elements: resolve(doc, targets),
		options:  options.NormalizeDrag(opts),
		logger:   s.logger.With("controller", "drag"),
	}
	dc.SetLogger(dc.logger)

	for _, el := range dc.elements {
		dc.bind(el)
	}

	dc.logger.Debug("drag sources ready",
		"elements", len(dc.elements),
		"effect_allowed", string(dc.options.EffectAllowed),
		"data", dc.options.Data.Kind().String())
	return dc
}

func (dc *DragController) bind(el dom.Element) {
	el.SetAttribute("draggable", "true")
	el.AddClass(ClassDrag)

	el.AddEventListener(dom.EventDragStart, func(ev dom.Event) {
		if dt := ev.DataTransfer(); dt != nil {
			if dc.options.EffectAllowed != options.EffectUnset {
				dt.SetEffectAllowed(string(dc.options.EffectAllowed))
			}
			for _, e := range dc.options.Data.Resolve(el, ev) {
				dt.SetData(e.MimeType, e.Payload)
			}
		}
		dc.Emit(EventDragStart, &Event{Type: EventDragStart, Native: ev, Element: el})
		el.AddClass(ClassDragging)
	})

	el.AddEventListener(dom.EventDrag, func(ev dom.Event) {
		dc.Emit(EventDrag, &Event{Type: EventDrag, Native: ev, Element: el})
	})

	el.AddEventListener(dom.EventDragEnd, func(ev dom.Event) {
		dc.Emit(EventDragEnd, &Event{Type: EventDragEnd, Native: ev, Element: el})
		el.RemoveClass(ClassDragging)
	})
}

// Elements returns the governed elements.
func (dc *DragController) Elements() []dom.Element {
	return slices.Clone(dc.elements)
}

// Options returns the canonical configuration.
func (dc *DragController) Options() options.DragConfig {
	return dc.options
}

// On registers l for name and returns the controller for chaining.
func (dc *DragController) On(name string, l *emitter.Listener[*Event]) *DragController {
	dc.Emitter.On(name, l)
	return dc
}

// AddEventListener is a synonym for On.
func (dc *DragController) AddEventListener(name string, l *emitter.Listener[*Event]) *DragController {
	return dc.On(name, l)
}

// Once registers l for the next name event only.
func (dc *DragController) Once(name string, l *emitter.Listener[*Event]) *DragController {
	dc.Emitter.Once(name, l)
	return dc
}

// Off removes l from name. See emitter.Emitter.Off for the empty name and
// nil listener forms.
func (dc *DragController) Off(name string, l *emitter.Listener[*Event]) *DragController {
	dc.Emitter.Off(name, l)
	return dc
}

// RemoveEventListener is a synonym for Off.
func (dc *DragController) RemoveEventListener(name string, l *emitter.Listener[*Event]) *DragController {
	return dc.Off(name, l)
}

// RemoveAllListeners clears every channel.
func (dc *DragController) RemoveAllListeners() *DragController {
	dc.Emitter.RemoveAllListeners()
	return dc
}
