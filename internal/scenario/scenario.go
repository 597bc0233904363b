package scenario

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/options"
)

// Controller kinds.
const (
	KindDrop = "drop"
	KindDrag = "drag"
)

// Scenario is a page of elements, the controllers bound to it, and the
// steps to replay against them.
type Scenario struct {
	Name        string           `yaml:"name,omitempty" json:"name,omitempty"`
	Elements    []ElementSpec    `yaml:"elements" json:"elements"`
	Controllers []ControllerSpec `yaml:"controllers" json:"controllers"`
	Steps       []Step           `yaml:"steps,omitempty" json:"steps,omitempty"`

	path string
}

// ElementSpec declares one element of the page.
type ElementSpec struct {
	ID         string            `yaml:"id" json:"id"`
	Tag        string            `yaml:"tag,omitempty" json:"tag,omitempty"`
	Classes    []string          `yaml:"classes,omitempty" json:"classes,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`

	line int
}

// ControllerSpec declares a drop or drag controller.
type ControllerSpec struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`

	// Targets is a selector, e.g. ".card" or "#zone".
	Targets string `yaml:"targets" json:"targets"`

	Drop options.DropOptions `yaml:"-" json:"drop,omitempty"`
	Drag options.DragOptions `yaml:"-" json:"drag,omitempty"`

	line int
}

// Step is one replayed action. Exactly one of Event, Gesture, Select or
// Expect is set.
type Step struct {
	// Event dispatches a native event on Target. Drop events carry Files.
	Event  string     `yaml:"event,omitempty" json:"event,omitempty"`
	Target string     `yaml:"target,omitempty" json:"target,omitempty"`
	Files  []FileSpec `yaml:"files,omitempty" json:"files,omitempty"`

	// Gesture plays a full drag from one element onto another.
	Gesture *Gesture `yaml:"gesture,omitempty" json:"gesture,omitempty"`

	// Select picks files through a drop controller's chooser.
	Select *Selection `yaml:"select,omitempty" json:"select,omitempty"`

	// Expect asserts the classes of an element.
	Expect *Expectation `yaml:"expect,omitempty" json:"expect,omitempty"`

	line int
}

// Gesture names the source and destination of a drag.
type Gesture struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Selection is a chooser selection on a named drop controller.
type Selection struct {
	Controller string     `yaml:"controller" json:"controller"`
	Files      []FileSpec `yaml:"files" json:"files"`
}

// Expectation lists classes an element must and must not carry.
type Expectation struct {
	Element string   `yaml:"element" json:"element"`
	Has     []string `yaml:"has,omitempty" json:"has,omitempty"`
	Lacks   []string `yaml:"lacks,omitempty" json:"lacks,omitempty"`
}

// FileSpec describes a file carried by a drop or a selection. Content is
// plain text; Base64 holds binary content instead.
type FileSpec struct {
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Content string `yaml:"content,omitempty" json:"content,omitempty"`
	Base64  string `yaml:"base64,omitempty" json:"base64,omitempty"`
}

// File builds the dom.File described by f.
func (f FileSpec) File() (dom.File, error) {
	data := []byte(f.Content)
	if f.Base64 != "" {
		var err error
		data, err = base64.StdEncoding.DecodeString(f.Base64)
		if err != nil {
			return dom.File{}, errors.New(errors.ProtocolBadFile).WithDetailf("file %q: %v", f.Name, err)
		}
	}
	typ := f.Type
	if typ == "" {
		typ = "application/octet-stream"
	}
	return dom.BytesFile(f.Name, typ, data), nil
}

// UnmarshalYAML records the element's line.
func (e *ElementSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain ElementSpec
	if err := node.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = node.Line
	return nil
}

// UnmarshalYAML decodes the kind-specific options block.
func (c *ControllerSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string    `yaml:"name"`
		Kind    string    `yaml:"kind"`
		Targets string    `yaml:"targets"`
		Options yaml.Node `yaml:"options"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Name, c.Kind, c.Targets, c.line = raw.Name, raw.Kind, raw.Targets, node.Line

	if raw.Options.Kind == 0 {
		return nil
	}
	switch raw.Kind {
	case KindDrop:
		return raw.Options.Decode(&c.Drop)
	case KindDrag:
		return raw.Options.Decode(&c.Drag)
	}
	return nil
}

// UnmarshalYAML records the step's line.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	type plain Step
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = node.Line
	return nil
}

// Parse decodes a scenario and validates its structure. name is used in
// error locations.
func Parse(name string, data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		e := errors.New(errors.ScenarioParse).Wrap(err)
		if terr, ok := err.(*yaml.TypeError); ok && len(terr.Errors) > 0 {
			e.WithDetail(terr.Errors[0])
		}
		return nil, e
	}
	s.path = name
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ScenarioRead).Wrap(err)
	}
	return Parse(path, data)
}

// Path returns the file the scenario was parsed from.
func (s *Scenario) Path() string { return s.path }

// Validate checks element ids, controller kinds, and that every step
// names exactly one action with known references.
func (s *Scenario) Validate() error {
	ids := make(map[string]bool, len(s.Elements))
	for _, el := range s.Elements {
		if el.ID == "" {
			return s.errAt(errors.New(errors.ScenarioNoElement).WithDetail("element without id"), el.line)
		}
		if ids[el.ID] {
			return s.errAt(errors.New(errors.ScenarioDuplicateID).WithDetailf("id %q is declared twice", el.ID), el.line)
		}
		ids[el.ID] = true
	}

	names := make(map[string]string, len(s.Controllers))
	for _, c := range s.Controllers {
		if c.Kind != KindDrop && c.Kind != KindDrag {
			return s.errAt(errors.New(errors.ScenarioControllerKind).WithDetailf("controller %q has kind %q", c.Name, c.Kind), c.line)
		}
		if _, ok := names[c.Name]; ok {
			return s.errAt(errors.New(errors.ScenarioDuplicateController).WithDetailf("controller %q is declared twice", c.Name), c.line)
		}
		names[c.Name] = c.Kind
	}

	element := func(id string, line int) error {
		if !ids[id] {
			return s.errAt(errors.New(errors.ScenarioNoElement).WithDetailf("no element with id %q", id), line)
		}
		return nil
	}

	for _, st := range s.Steps {
		actions := 0
		for _, set := range []bool{st.Event != "", st.Gesture != nil, st.Select != nil, st.Expect != nil} {
			if set {
				actions++
			}
		}
		if actions != 1 {
			return s.errAt(errors.New(errors.ScenarioUnknownStep), st.line)
		}

		switch {
		case st.Event != "":
			if !replayable[st.Event] {
				return s.errAt(errors.New(errors.ProtocolUnknownEvent).WithDetailf("cannot replay %q", st.Event), st.line)
			}
			if err := element(st.Target, st.line); err != nil {
				return err
			}
		case st.Gesture != nil:
			if err := element(st.Gesture.From, st.line); err != nil {
				return err
			}
			if err := element(st.Gesture.To, st.line); err != nil {
				return err
			}
		case st.Select != nil:
			if names[st.Select.Controller] != KindDrop {
				return s.errAt(errors.New(errors.ScenarioNoChooser).WithDetailf("no drop controller named %q", st.Select.Controller), st.line)
			}
		case st.Expect != nil:
			if err := element(st.Expect.Element, st.line); err != nil {
				return err
			}
		}
	}
	return nil
}

var replayable = map[string]bool{
	dom.EventClick:     true,
	dom.EventDragStart: true,
	dom.EventDrag:      true,
	dom.EventDragEnd:   true,
	dom.EventDragEnter: true,
	dom.EventDragOver:  true,
	dom.EventDragLeave: true,
	dom.EventDrop:      true,
}

func (s *Scenario) errAt(e *errors.Error, line int) *errors.Error {
	if s.path != "" && line > 0 {
		e.WithLocation(s.path, line, 0)
	}
	return e
}

func (s *Scenario) String() string {
	name := s.Name
	if name == "" {
		name = s.path
	}
	return fmt.Sprintf("scenario %q (%d elements, %d controllers, %d steps)", name, len(s.Elements), len(s.Controllers), len(s.Steps))
}
