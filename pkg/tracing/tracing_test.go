package tracing

import (
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/pkg/dndtest"
	"github.com/vango-dev/dnd/pkg/dom/memdom"
	"github.com/vango-dev/dnd/pkg/options"
)

func TestTracer_DragSpan(t *testing.T) {
	tr := New(WithTracerProvider(noop.NewTracerProvider()))

	doc := memdom.New()
	card := doc.CreateElement("div", "card")
	dc := dnd.Drag(doc, dnd.Elements(card), options.DragOptions{})
	tr.ObserveDrag("cards", dc)

	dndtest.DragStart(card)
	dndtest.Drag(card)
	if got := tr.ActiveSpans(); got != 1 {
		t.Fatalf("ActiveSpans() = %d, want 1", got)
	}

	dndtest.DragEnd(card)
	if got := tr.ActiveSpans(); got != 0 {
		t.Errorf("ActiveSpans() after dragend = %d, want 0", got)
	}

	// dragend without a span is ignored
	dndtest.DragEnd(card)
	if got := tr.ActiveSpans(); got != 0 {
		t.Errorf("ActiveSpans() = %d, want 0", got)
	}
}

func TestTracer_HoverSpans(t *testing.T) {
	tr := New()

	doc := memdom.New()
	a := doc.CreateElement("div", "a", "zone")
	b := doc.CreateElement("div", "b", "zone")
	dc := dnd.Drop(doc, dnd.Select(".zone"), options.DropOptions{})
	tr.ObserveDrop("zones", dc)

	dndtest.DragEnter(a)
	dndtest.DragEnter(b)
	dndtest.DragOver(b)
	if got := tr.ActiveSpans(); got != 2 {
		t.Fatalf("ActiveSpans() = %d, want 2", got)
	}

	dndtest.DragLeave(a)
	dndtest.DropFiles(b, dndtest.TextFile("x.txt", "x"))
	if got := tr.ActiveSpans(); got != 0 {
		t.Errorf("ActiveSpans() = %d, want 0", got)
	}
}

func TestTracer_RepeatedStartReplaces(t *testing.T) {
	tr := New()

	doc := memdom.New()
	zone := doc.CreateElement("div", "zone")
	dc := dnd.Drop(doc, dnd.Elements(zone), options.DropOptions{})
	tr.ObserveDrop("zones", dc)

	dndtest.DragEnter(zone)
	dndtest.DragEnter(zone)
	if got := tr.ActiveSpans(); got != 1 {
		t.Errorf("ActiveSpans() = %d, want 1", got)
	}
}

func TestTracer_Forget(t *testing.T) {
	tr := New()

	doc := memdom.New()
	a := doc.CreateElement("div", "a", "zone")
	b := doc.CreateElement("div", "b", "zone")
	dc := dnd.Drop(doc, dnd.Select(".zone"), options.DropOptions{})
	tr.ObserveDrop("zones", dc)

	dndtest.DragEnter(a)
	dndtest.DragEnter(b)
	tr.Forget(a)
	if got := tr.ActiveSpans(); got != 1 {
		t.Errorf("ActiveSpans() = %d, want 1", got)
	}
	tr.Forget(a, b)
	if got := tr.ActiveSpans(); got != 0 {
		t.Errorf("ActiveSpans() = %d, want 0", got)
	}
}
