package dnd

import (
	"reflect"
	"testing"

	"github.com/vango-dev/dnd/pkg/dndtest"
	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/dom/memdom"
	"github.com/vango-dev/dnd/pkg/emitter"
	"github.com/vango-dev/dnd/pkg/options"
)

func TestDrag_SerializedData(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")

	Drag(doc, Elements(card), options.DragOptions{Data: map[string]any{"a": 1}})

	ev := dndtest.DragStart(card)
	items := ev.Transfer().Items()
	want := []memdom.Item{{Format: options.MIMEJSON, Data: `{"a":1}`}}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("transfer items = %v, want %v", items, want)
	}
}

func TestDrag_PairData(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")

	Drag(doc, Elements(card), options.DragOptions{
		Data: [][]string{{"text/plain", "a"}, {"text/html", "<b>a</b>"}},
	})

	dt := dndtest.DragStart(card).Transfer()
	if got := dt.Types(); !reflect.DeepEqual(got, []string{"text/plain", "text/html"}) {
		t.Errorf("Types = %v", got)
	}
	if dt.GetData("text/html") != "<b>a</b>" {
		t.Errorf("text/html = %q", dt.GetData("text/html"))
	}
}

func TestDrag_DeferredData(t *testing.T) {
	doc := memdom.New()
	a := doc.CreateElement("li", "a", "item")
	b := doc.CreateElement("li", "b", "item")

	Drag(doc, Select(".item"), options.DragOptions{
		Data: options.Provider(func(el dom.Element, ev dom.Event) any {
			return []string{"text/plain", el.ID()}
		}),
	})

	if got := dndtest.DragStart(a).Transfer().GetData("text/plain"); got != "a" {
		t.Errorf("a payload = %q", got)
	}
	if got := dndtest.DragStart(b).Transfer().GetData("text/plain"); got != "b" {
		t.Errorf("b payload = %q", got)
	}
}

func TestDrag_MalformedDataWritesNothing(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")

	dc := Drag(doc, Elements(card), options.DragOptions{Data: []string{"only-one"}})
	if dc.Options().Data.Present() {
		t.Fatal("malformed data should be absent")
	}
	if n := len(dndtest.DragStart(card).Transfer().Items()); n != 0 {
		t.Errorf("transfer items = %d, want 0", n)
	}
}

func TestDrag_Lifecycle(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")

	dc := Drag(doc, Elements(card), options.DragOptions{EffectAllowed: "copyMove"})
	rec := dndtest.Record(&dc.Emitter, EventDragStart, EventDrag, EventDragEnd)

	if v, _ := card.Attribute("draggable"); v != "true" {
		t.Errorf("draggable = %q", v)
	}
	if !card.HasClass(ClassDrag) {
		t.Errorf("classes = %v", card.Classes())
	}

	ev := dndtest.DragStart(card)
	if !card.HasClass(ClassDragging) {
		t.Error("expected dragging class after dragstart")
	}
	if ev.Transfer().EffectAllowed != "copyMove" {
		t.Errorf("EffectAllowed = %q", ev.Transfer().EffectAllowed)
	}

	dndtest.Drag(card)
	dndtest.Drag(card)
	dndtest.DragEnd(card)
	if card.HasClass(ClassDragging) {
		t.Error("expected dragging class removed after dragend")
	}
	if !card.HasClass(ClassDrag) {
		t.Error("standing class removed with the transient one")
	}

	want := []string{EventDragStart, EventDrag, EventDrag, EventDragEnd}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestDrag_InvalidEffectAllowed(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")

	dc := Drag(doc, Elements(card), options.DragOptions{EffectAllowed: "teleport"})
	if dc.Options().EffectAllowed != options.EffectUnset {
		t.Errorf("EffectAllowed = %q, want unset", dc.Options().EffectAllowed)
	}
	if got := dndtest.DragStart(card).Transfer().EffectAllowed; got != "uninitialized" {
		t.Errorf("EffectAllowed = %q, want platform default", got)
	}
}

func TestDragTo(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")
	zone := doc.CreateElement("div", "zone")

	drag := Drag(doc, Elements(card), options.DragOptions{Data: []string{"text/plain", "card"}})
	drop := Drop(doc, Elements(zone), options.DropOptions{DropEffect: "move"})

	var got string
	drop.OnFunc(EventDrop, func(e *Event) {
		if dt, ok := e.Native.DataTransfer().(*memdom.DataTransfer); ok {
			got = dt.GetData("text/plain")
		}
	})
	dragRec := dndtest.Record(&drag.Emitter, EventDragStart, EventDrag, EventDragEnd)
	dropRec := dndtest.Record(&drop.Emitter, EventDragEnter, EventDragOver, EventDrop)

	dt := dndtest.DragTo(card, zone)

	if got != "card" {
		t.Errorf("drop saw payload %q, want card", got)
	}
	if dt.DropEffect != "move" {
		t.Errorf("DropEffect = %q", dt.DropEffect)
	}
	if !reflect.DeepEqual(dragRec.Names(), []string{EventDragStart, EventDrag, EventDragEnd}) {
		t.Errorf("drag events = %v", dragRec.Names())
	}
	if !reflect.DeepEqual(dropRec.Names(), []string{EventDragEnter, EventDragOver, EventDrop}) {
		t.Errorf("drop events = %v", dropRec.Names())
	}
	if card.HasClass(ClassDragging) || zone.HasClass(ClassDragOver) {
		t.Errorf("transient classes left: card=%v zone=%v", card.Classes(), zone.Classes())
	}
}

func TestDrag_Chaining(t *testing.T) {
	doc := memdom.New()
	card := doc.CreateElement("div", "card")

	count := 0
	l := emitter.NewListener(func(*Event) { count++ })
	dc := Drag(doc, Elements(card), options.DragOptions{}).
		AddEventListener(EventDragStart, l).
		AddEventListener(EventDragEnd, l)

	dndtest.DragStart(card)
	dc.RemoveEventListener("", l).RemoveAllListeners()
	dndtest.DragEnd(card)

	if count != 1 {
		t.Errorf("listener called %d times, want 1", count)
	}
	if names := dc.EventNames(); len(names) != 0 {
		t.Errorf("EventNames() = %v, want none", names)
	}
}
