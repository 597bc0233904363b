package scenario

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/options"
)

func TestLoad_Board(t *testing.T) {
	s, err := Load("testdata/board.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "board" || len(s.Elements) != 4 || len(s.Controllers) != 2 {
		t.Fatalf("parsed %s", s)
	}

	drag := s.Controllers[0]
	if drag.Kind != KindDrag || drag.Drag.EffectAllowed != "move" {
		t.Errorf("drag controller = %+v", drag)
	}
	if got := options.NormalizeData(drag.Drag.Data).Kind(); got != options.KindSinglePair {
		t.Errorf("drag data kind = %v, want single pair", got)
	}

	drop := s.Controllers[1]
	if !drop.Drop.Click || drop.Drop.DropEffect != "move" {
		t.Errorf("drop controller = %+v", drop)
	}
}

func TestRun_Board(t *testing.T) {
	s, err := Load("testdata/board.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := Run(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		// gesture card-1 -> done
		dnd.EventDragStart, dnd.EventDrag, dnd.EventDragEnter, dnd.EventDragOver, dnd.EventDrop, dnd.EventDragEnd,
		// dragenter + drop on todo
		dnd.EventDragEnter, dnd.EventDrop,
		// click on done, chooser selection
		dnd.EventClick, dnd.EventClick,
	}
	if got := res.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	gestureDrop := res.Events[4]
	if gestureDrop.Controller != "columns" || gestureDrop.Element != "done" || gestureDrop.Step != 1 {
		t.Errorf("gesture drop = %+v", gestureDrop)
	}
	if gestureDrop.Data["text/plain"] != "card" {
		t.Errorf("gesture drop data = %v", gestureDrop.Data)
	}

	fileDrop := res.Events[7]
	if !reflect.DeepEqual(fileDrop.Files, []string{"notes.txt"}) {
		t.Errorf("file drop files = %v", fileDrop.Files)
	}

	selection := res.Events[9]
	if selection.Element != "" || !reflect.DeepEqual(selection.Files, []string{"photo.png"}) {
		t.Errorf("selection = %+v", selection)
	}

	if got := res.Classes("card-1"); !reflect.DeepEqual(got, []string{"card", dnd.ClassDrag}) {
		t.Errorf("card-1 classes = %v", got)
	}
	if got := res.Classes("done"); !reflect.DeepEqual(got, []string{"column", dnd.ClassDrop, dnd.ClassClick}) {
		t.Errorf("done classes = %v", got)
	}
	if res.Classes("missing") != nil {
		t.Error("Classes of unknown id should be nil")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
	}{
		{"syntax", "elements: [", errors.ScenarioParse},
		{"unknown field", "elemnts: []", errors.ScenarioParse},
		{"duplicate id", "elements: [{id: a}, {id: a}]", errors.ScenarioDuplicateID},
		{"bad kind", "controllers: [{name: x, kind: hover, targets: .a}]", errors.ScenarioControllerKind},
		{"empty step", "steps: [{}]", errors.ScenarioUnknownStep},
		{"two actions", "elements: [{id: a}]\nsteps: [{event: drop, target: a, expect: {element: a}}]", errors.ScenarioUnknownStep},
		{"unknown target", "steps: [{event: drop, target: nope}]", errors.ScenarioNoElement},
		{"unknown event", "elements: [{id: a}]\nsteps: [{event: hover, target: a}]", errors.ProtocolUnknownEvent},
		{"select without drop", "steps: [{select: {controller: x}}]", errors.ScenarioNoChooser},
		{"duplicate controller", "controllers: [{name: x, kind: drop, targets: .a}, {name: x, kind: drag, targets: .b}]", errors.ScenarioDuplicateController},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("inline", []byte(tt.yaml))
			if !stderrors.Is(err, errors.New(tt.code)) {
				t.Errorf("Parse() err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestParse_ErrorLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	content := "elements:\n  - id: a\nsteps:\n  - event: drop\n    target: b\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if e.Location == nil || e.Location.Line != 4 {
		t.Errorf("Location = %v, want line 4", e.Location)
	}
	if !strings.Contains(e.Detail, `"b"`) {
		t.Errorf("Detail = %q", e.Detail)
	}
}

func TestRun_ExpectationFails(t *testing.T) {
	s, err := Parse("inline", []byte(`
elements: [{id: zone}]
controllers: [{name: z, kind: drop, targets: "#zone"}]
steps:
  - expect: {element: zone, has: [dd-dragover]}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err = Run(context.Background(), s, nil)
	if !stderrors.Is(err, errors.New(errors.ScenarioExpectation)) {
		t.Errorf("Run() err = %v, want %s", err, errors.ScenarioExpectation)
	}
}

func TestRun_SelectWithoutClick(t *testing.T) {
	s, err := Parse("inline", []byte(`
elements: [{id: zone}]
controllers: [{name: z, kind: drop, targets: "#zone"}]
steps:
  - select: {controller: z, files: [{name: a.txt, content: a}]}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Run(context.Background(), s, nil); !stderrors.Is(err, errors.New(errors.ScenarioNoChooser)) {
		t.Errorf("Run() err = %v, want %s", err, errors.ScenarioNoChooser)
	}
}

func TestRun_BadBase64(t *testing.T) {
	s, err := Parse("inline", []byte(`
elements: [{id: zone}]
controllers: [{name: z, kind: drop, targets: "#zone"}]
steps:
  - {event: drop, target: zone, files: [{name: a.bin, base64: "!!"}]}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Run(context.Background(), s, nil); !stderrors.Is(err, errors.New(errors.ProtocolBadFile)) {
		t.Errorf("Run() err = %v, want %s", err, errors.ProtocolBadFile)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	s, err := Load("testdata/board.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, s, nil)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Run() err = %v, want context.Canceled", err)
	}
	if len(res.Events) != 0 {
		t.Errorf("events replayed after cancel: %v", res.Names())
	}
}

func TestRun_Unvalidated(t *testing.T) {
	tests := []struct {
		name string
		s    *Scenario
		code string
	}{
		{
			name: "unknown target",
			s:    &Scenario{Steps: []Step{{Event: "drop", Target: "nope"}}},
			code: errors.ScenarioNoElement,
		},
		{
			name: "unknown controller",
			s: &Scenario{
				Elements: []ElementSpec{{ID: "zone"}},
				Steps:    []Step{{Select: &Selection{Controller: "z"}}},
			},
			code: errors.ScenarioNoChooser,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), tt.s, nil)
			if !stderrors.Is(err, errors.New(tt.code)) {
				t.Errorf("Run() err = %v, want %s", err, tt.code)
			}
			if res == nil || len(res.Events) != 0 {
				t.Errorf("Run() result = %+v, want empty", res)
			}
		})
	}
}

func TestBind_Observe(t *testing.T) {
	s, err := Load("testdata/board.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	doc := s.Build()
	b := Bind(doc, s.Controllers, nil)

	if !reflect.DeepEqual(b.Names(), []string{"cards", "columns"}) {
		t.Errorf("Names() = %v", b.Names())
	}
	if n := len(b.Drags["cards"].Elements()); n != 2 {
		t.Errorf("cards govern %d elements, want 2", n)
	}

	var seen []string
	b.Observe(func(controller string, e *dnd.Event) { seen = append(seen, controller+":"+e.Type) })
	doc.GetElementByID("todo").Click()

	if !reflect.DeepEqual(seen, []string{"columns:click"}) {
		t.Errorf("seen = %v", seen)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	if err := os.WriteFile(path, []byte("name: one\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := NewWatcher(path, nil).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	next := func() Update {
		t.Helper()
		select {
		case u := <-updates:
			return u
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for update")
			return Update{}
		}
	}

	if u := next(); u.Err != nil || u.Scenario.Name != "one" {
		t.Fatalf("initial update = %+v", u)
	}

	if err := os.WriteFile(path, []byte("name: two\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if u := next(); u.Err != nil || u.Scenario.Name != "two" {
		t.Fatalf("reload = %+v", u)
	}

	if err := os.WriteFile(path, []byte("bogus: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if u := next(); u.Err == nil {
		t.Fatal("expected parse error on reload")
	}

	cancel()
	for range updates {
	}
}
