package scenario

import (
	"log/slog"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/pkg/dom"
)

// Binding holds the controllers created for one document.
type Binding struct {
	Drops map[string]*dnd.DropController
	Drags map[string]*dnd.DragController

	order []string
}

// Names returns controller names in declaration order.
func (b *Binding) Names() []string {
	return append([]string(nil), b.order...)
}

// Observe calls fn for every event emitted by any bound controller.
func (b *Binding) Observe(fn func(controller string, e *dnd.Event)) {
	for _, name := range b.order {
		name := name
		handler := func(e *dnd.Event) { fn(name, e) }
		if dc, ok := b.Drops[name]; ok {
			for _, ev := range []string{dnd.EventClick, dnd.EventDragEnter, dnd.EventDragOver, dnd.EventDragLeave, dnd.EventDrop} {
				dc.OnFunc(ev, handler)
			}
		}
		if dc, ok := b.Drags[name]; ok {
			for _, ev := range []string{dnd.EventDragStart, dnd.EventDrag, dnd.EventDragEnd} {
				dc.OnFunc(ev, handler)
			}
		}
	}
}

// Bind creates the declared controllers on doc.
func Bind(doc dom.Document, specs []ControllerSpec, logger *slog.Logger) *Binding {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Binding{
		Drops: make(map[string]*dnd.DropController),
		Drags: make(map[string]*dnd.DragController),
	}
	for _, spec := range specs {
		log := dnd.WithLogger(logger.With("name", spec.Name))
		switch spec.Kind {
		case KindDrop:
			dc := dnd.Drop(doc, dnd.Select(spec.Targets), spec.Drop, log)
			b.Drops[spec.Name] = dc
			logger.Debug("drop controller bound", "controller", spec.Name, "targets", spec.Targets, "elements", len(dc.Elements()))
		case KindDrag:
			dc := dnd.Drag(doc, dnd.Select(spec.Targets), spec.Drag, log)
			b.Drags[spec.Name] = dc
			logger.Debug("drag controller bound", "controller", spec.Name, "targets", spec.Targets, "elements", len(dc.Elements()))
		default:
			continue
		}
		b.order = append(b.order, spec.Name)
	}
	return b
}
