package scenario

import (
	"context"
	"log/slog"
	"slices"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/dndtest"
	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/dom/memdom"
)

// Record is one controller event observed during a replay.
type Record struct {
	Step       int               `json:"step"`
	Controller string            `json:"controller"`
	Event      string            `json:"event"`
	Element    string            `json:"element,omitempty"`
	Files      []string          `json:"files,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// ElementState is an element's classes after the replay.
type ElementState struct {
	ID      string   `json:"id"`
	Classes []string `json:"classes"`
}

// Result is the outcome of a replay.
type Result struct {
	Scenario string         `json:"scenario,omitempty"`
	Events   []Record       `json:"events"`
	Elements []ElementState `json:"elements"`
}

// Build creates the scenario's page on a fresh document.
func (s *Scenario) Build() *memdom.Document {
	doc := memdom.New()
	for _, spec := range s.Elements {
		tag := spec.Tag
		if tag == "" {
			tag = "div"
		}
		el := doc.CreateElement(tag, spec.ID, spec.Classes...)
		for name, value := range spec.Attributes {
			el.SetAttribute(name, value)
		}
	}
	return doc
}

// Run replays the scenario's steps on a fresh page and returns every
// controller event plus the final classes of each element. Replay stops at
// the first failing step or when ctx is done. The scenario is validated
// first, so one assembled in code gets the same checks as a parsed file.
func Run(ctx context.Context, s *Scenario, logger *slog.Logger) (*Result, error) {
	res := &Result{Scenario: s.Name}
	if err := s.Validate(); err != nil {
		return res, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	doc := s.Build()
	binding := Bind(doc, s.Controllers, logger)

	step := 0
	binding.Observe(func(controller string, e *dnd.Event) {
		rec := Record{Step: step, Controller: controller, Event: e.Type}
		if e.Element != nil {
			rec.Element = e.Element.ID()
		}
		for _, f := range e.Files {
			rec.Files = append(rec.Files, f.Name)
		}
		if e.Type == dnd.EventDrop || e.Type == dnd.EventDragStart {
			rec.Data = transferData(e.Native)
		}
		res.Events = append(res.Events, rec)
	})

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		step = i + 1
		if err := s.play(doc, binding, st); err != nil {
			return res, err
		}
		logger.Debug("step replayed", "step", step, "events", len(res.Events))
	}

	for _, el := range doc.Elements() {
		res.Elements = append(res.Elements, ElementState{ID: el.ID(), Classes: el.Classes()})
	}
	return res, nil
}

func (s *Scenario) play(doc *memdom.Document, b *Binding, st Step) error {
	switch {
	case st.Event != "":
		target := doc.GetElementByID(st.Target)
		if st.Event == dom.EventClick {
			target.Click()
			return nil
		}
		files, err := buildFiles(st.Files)
		if err != nil {
			return s.errAt(errors.FromError(err, errors.ProtocolBadFile), st.line)
		}
		target.Dispatch(memdom.NewDragEvent(st.Event, memdom.NewDataTransfer(files...)))

	case st.Gesture != nil:
		dndtest.DragTo(doc.GetElementByID(st.Gesture.From), doc.GetElementByID(st.Gesture.To))

	case st.Select != nil:
		dc := b.Drops[st.Select.Controller]
		chooser, ok := dc.Chooser().(*memdom.Element)
		if !ok {
			return s.errAt(errors.New(errors.ScenarioNoChooser).WithDetailf("controller %q was created without click", st.Select.Controller), st.line)
		}
		files, err := buildFiles(st.Select.Files)
		if err != nil {
			return s.errAt(errors.FromError(err, errors.ProtocolBadFile), st.line)
		}
		chooser.SelectFiles(files...)

	case st.Expect != nil:
		el := doc.GetElementByID(st.Expect.Element)
		for _, c := range st.Expect.Has {
			if !el.HasClass(c) {
				return s.errAt(errors.New(errors.ScenarioExpectation).WithDetailf("%s lacks class %q; has %v", el.ID(), c, el.Classes()), st.line)
			}
		}
		for _, c := range st.Expect.Lacks {
			if el.HasClass(c) {
				return s.errAt(errors.New(errors.ScenarioExpectation).WithDetailf("%s has class %q", el.ID(), c), st.line)
			}
		}
	}
	return nil
}

func buildFiles(specs []FileSpec) ([]dom.File, error) {
	files := make([]dom.File, 0, len(specs))
	for _, spec := range specs {
		f, err := spec.File()
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func transferData(ev dom.Event) map[string]string {
	if ev == nil {
		return nil
	}
	dt, ok := ev.DataTransfer().(*memdom.DataTransfer)
	if !ok {
		return nil
	}
	items := dt.Items()
	if len(items) == 0 {
		return nil
	}
	data := make(map[string]string, len(items))
	for _, it := range items {
		data[it.Format] = it.Data
	}
	return data
}

// Classes returns the final classes of the element with id.
func (r *Result) Classes(id string) []string {
	i := slices.IndexFunc(r.Elements, func(e ElementState) bool { return e.ID == id })
	if i < 0 {
		return nil
	}
	return r.Elements[i].Classes
}

// Names returns the event names in order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Events))
	for i, rec := range r.Events {
		names[i] = rec.Event
	}
	return names
}
