package dnd

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/emitter"
	"github.com/vango-dev/dnd/pkg/options"
)

// DropController governs a set of drop targets. It emits click,
// dragenter, dragover, dragleave and drop.
type DropController struct {
	emitter.Emitter[*Event]

	elements []dom.Element
	options  options.DropConfig
	chooser  dom.FileInput
	logger   *slog.Logger

	mu    sync.RWMutex
	files []dom.File
}

// Drop makes the targets valid drop targets.
func Drop(doc dom.Document, targets Targets, opts options.DropOptions, o ...Option) *DropController {
	s := newSettings(o)
	dc := &DropController{
		elements: resolve(doc, targets),
		options:  options.NormalizeDrop(opts),
		logger:   s.logger.With("controller", "drop"),
	}
	dc.SetLogger(dc.logger)

	if dc.options.Click && doc != nil {
		dc.chooser = doc.CreateFileInput()
		dc.chooser.AddEventListener(dom.EventChange, dc.handleSelection)
	}

	for _, el := range dc.elements {
		dc.bind(el)
	}

	dc.logger.Debug("drop targets ready",
		"elements", len(dc.elements),
		"click", dc.options.Click,
		"drop_effect", string(dc.options.DropEffect))
	return dc
}

// bind wires one element; handlers close over el, never a loop variable
// shared between elements.
func (dc *DropController) bind(el dom.Element) {
	el.AddClass(ClassDrop)

	if dc.options.Click {
		el.AddClass(ClassClick)
		el.AddEventListener(dom.EventClick, func(ev dom.Event) {
			dc.Emit(EventClick, &Event{Type: EventClick, Native: ev, Element: el})
			if dc.chooser != nil {
				dc.chooser.Click()
			}
		})
	}

	el.AddEventListener(dom.EventDragEnter, func(ev dom.Event) {
		if dc.options.DropEffect != options.EffectUnset {
			if dt := ev.DataTransfer(); dt != nil {
				dt.SetDropEffect(string(dc.options.DropEffect))
			}
		}
		dc.Emit(EventDragEnter, &Event{Type: EventDragEnter, Native: ev, Element: el})
		el.AddClass(ClassDragOver)
	})

	el.AddEventListener(dom.EventDragOver, func(ev dom.Event) {
		ev.PreventDefault()
		dc.Emit(EventDragOver, &Event{Type: EventDragOver, Native: ev, Element: el})
	})

	el.AddEventListener(dom.EventDragLeave, func(ev dom.Event) {
		dc.Emit(EventDragLeave, &Event{Type: EventDragLeave, Native: ev, Element: el})
		el.RemoveClass(ClassDragOver)
	})

	el.AddEventListener(dom.EventDrop, func(ev dom.Event) {
		ev.PreventDefault()
		var files []dom.File
		if dt := ev.DataTransfer(); dt != nil {
			files = dt.Files()
		}
		if len(files) > 0 {
			dc.setFiles(files)
		}
		dc.Emit(EventDrop, &Event{Type: EventDrop, Native: ev, Element: el, Files: files})
		el.RemoveClass(ClassDragOver)
	})
}

func (dc *DropController) handleSelection(ev dom.Event) {
	files := dc.chooser.Files()
	dc.setFiles(files)
	dc.logger.Debug("chooser selection", "files", len(files))
	dc.Emit(EventClick, &Event{Type: EventClick, Native: ev, Files: files})
}

func (dc *DropController) setFiles(files []dom.File) {
	dc.mu.Lock()
	dc.files = slices.Clone(files)
	dc.mu.Unlock()
}

// Files returns the most recently received file list.
func (dc *DropController) Files() []dom.File {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return slices.Clone(dc.files)
}

// Elements returns the governed elements.
func (dc *DropController) Elements() []dom.Element {
	return slices.Clone(dc.elements)
}

// Options returns the canonical configuration.
func (dc *DropController) Options() options.DropConfig {
	return dc.options
}

// Chooser returns the hidden file input, or nil when click is disabled.
func (dc *DropController) Chooser() dom.FileInput {
	return dc.chooser
}

// On registers l for name and returns the controller for chaining.
func (dc *DropController) On(name string, l *emitter.Listener[*Event]) *DropController {
	dc.Emitter.On(name, l)
	return dc
}

// AddEventListener is a synonym for On.
func (dc *DropController) AddEventListener(name string, l *emitter.Listener[*Event]) *DropController {
	return dc.On(name, l)
}

// Once registers l for the next name event only.
func (dc *DropController) Once(name string, l *emitter.Listener[*Event]) *DropController {
	dc.Emitter.Once(name, l)
	return dc
}

// Off removes l from name. See emitter.Emitter.Off for the empty name and
// nil listener forms.
func (dc *DropController) Off(name string, l *emitter.Listener[*Event]) *DropController {
	dc.Emitter.Off(name, l)
	return dc
}

// RemoveEventListener is a synonym for Off.
func (dc *DropController) RemoveEventListener(name string, l *emitter.Listener[*Event]) *DropController {
	return dc.Off(name, l)
}

// RemoveAllListeners clears every channel.
func (dc *DropController) RemoveAllListeners() *DropController {
	dc.Emitter.RemoveAllListeners()
	return dc
}
