package memdom

import (
	"reflect"
	"sync"
	"testing"

	"github.com/vango-dev/dnd/pkg/dom"
)

func ids(els []dom.Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.ID()
	}
	return out
}

func TestQuerySelectorAll(t *testing.T) {
	doc := New()
	doc.CreateElement("div", "a", "zone")
	doc.CreateElement("div", "b", "zone", "wide")
	doc.CreateElement("section", "c", "zone")
	li := doc.CreateElement("li", "d", "card")
	li.SetAttribute("data-kind", "photo")

	tests := []struct {
		selector string
		want     []string
	}{
		{".zone", []string{"a", "b", "c"}},
		{"div.zone", []string{"a", "b"}},
		{".zone.wide", []string{"b"}},
		{"#c", []string{"c"}},
		{"section, li", []string{"c", "d"}},
		{"*", []string{"a", "b", "c", "d"}},
		{"[data-kind]", []string{"d"}},
		{`li[data-kind="photo"]`, []string{"d"}},
		{"[data-kind=video]", []string{}},
		{"DIV#a", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := ids(doc.QuerySelectorAll(tt.selector))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("QuerySelectorAll(%q) = %v, want %v", tt.selector, got, tt.want)
			}
		})
	}
}

func TestQuerySelectorAll_Unsupported(t *testing.T) {
	doc := New()
	doc.CreateElement("div", "a", "zone")

	for _, sel := range []string{"", "div .zone", "div > .zone", ".", "#", "[unterminated", "a,,b"} {
		if got := doc.QuerySelectorAll(sel); len(got) != 0 {
			t.Errorf("QuerySelectorAll(%q) = %v, want none", sel, ids(got))
		}
	}
}

func TestFileInputIsDetached(t *testing.T) {
	doc := New()
	doc.CreateElement("div", "a")
	in := doc.CreateFileInput()

	if got := doc.QuerySelectorAll("input"); len(got) != 0 {
		t.Errorf("chooser matched selector: %v", ids(got))
	}

	el := in.(*Element)
	if v, _ := el.Attribute("type"); v != "file" {
		t.Errorf("type = %q, want file", v)
	}

	changed := 0
	in.AddEventListener(dom.EventChange, func(dom.Event) { changed++ })
	el.SelectFiles(dom.BytesFile("a.txt", "text/plain", []byte("a")))
	if changed != 1 {
		t.Errorf("change dispatched %d times, want 1", changed)
	}
	if len(in.Files()) != 1 {
		t.Errorf("Files() = %d, want 1", len(in.Files()))
	}
}

func TestObserveMutations(t *testing.T) {
	doc := New()
	el := doc.CreateElement("div", "a")

	var got []Mutation
	doc.Observe(func(m Mutation) { got = append(got, m) })

	el.AddClass("dd-drop")
	el.AddClass("dd-drop")
	el.RemoveAttribute("id")
	doc.CreateFileInput().AddClass("ignored")

	if len(got) != 2 {
		t.Fatalf("mutations = %d, want 2: %+v", len(got), got)
	}
	if got[0].Attribute != "class" || got[0].Value != "dd-drop" {
		t.Errorf("first mutation = %+v", got[0])
	}
	if got[1].Attribute != "id" || !got[1].Removed {
		t.Errorf("second mutation = %+v", got[1])
	}
}

func TestDispatch(t *testing.T) {
	doc := New()
	el := doc.CreateElement("div", "zone")

	var order []int
	el.AddEventListener("drop", func(ev dom.Event) { order = append(order, 1) })
	el.AddEventListener("drop", func(ev dom.Event) {
		order = append(order, 2)
		ev.PreventDefault()
	})

	ev := NewDragEvent("drop", nil)
	if el.Dispatch(ev) {
		t.Error("Dispatch returned true for a prevented event")
	}
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Errorf("order = %v", order)
	}
	if ev.Target() != el {
		t.Error("Target not set")
	}
	if NewEvent("click").DataTransfer() != nil {
		t.Error("plain event must not carry a transfer")
	}
}

func TestDataTransfer(t *testing.T) {
	dt := NewDataTransfer()
	dt.SetData("text/plain", "a")
	dt.SetData("text/html", "<b>a</b>")
	dt.SetData("text/plain", "b")

	if !reflect.DeepEqual(dt.Types(), []string{"text/plain", "text/html"}) {
		t.Errorf("Types = %v", dt.Types())
	}
	if dt.GetData("text/plain") != "b" {
		t.Errorf("GetData = %q, want b", dt.GetData("text/plain"))
	}
	if dt.DropEffect != "none" {
		t.Errorf("DropEffect = %q, want none", dt.DropEffect)
	}
}

func TestRemove_DuringMutations(t *testing.T) {
	doc := New()
	el := doc.CreateElement("div", "a")
	var mu sync.Mutex
	seen := 0
	doc.Observe(func(Mutation) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			el.AddClass("x")
			el.RemoveClass("x")
		}
	}()
	doc.Remove(el)
	wg.Wait()

	if !el.Detached() {
		t.Error("expected element to be detached")
	}
	mu.Lock()
	before := seen
	mu.Unlock()
	el.AddClass("y")
	mu.Lock()
	defer mu.Unlock()
	if seen != before {
		t.Errorf("mutation observed on a detached element")
	}
}

func TestRemove(t *testing.T) {
	doc := New()
	el := doc.CreateElement("div", "a", "zone")
	doc.Remove(el)

	if len(doc.QuerySelectorAll(".zone")) != 0 {
		t.Error("removed element still matches")
	}
	if !el.Detached() {
		t.Error("expected element to be detached")
	}
	if doc.GetElementByID("a") != nil {
		t.Error("GetElementByID found a removed element")
	}
}
