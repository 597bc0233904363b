package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/pkg/dom"
)

const defaultTracerName = "dnd"

// Config configures the tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "dnd").
	TracerName string

	// Provider supplies the tracer. Nil uses the global provider.
	Provider trace.TracerProvider

	// Context is the parent of every span (default: context.Background()).
	Context context.Context
}

// Option configures the tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithContext sets the parent context for spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// Tracer records one span per drag gesture on a drag source and one per
// hover on a drop target.
//
// A drag span starts at dragstart and ends at dragend, counting the drag
// ticks in between. A hover span starts at dragenter and ends at dragleave
// (outcome "left") or drop (outcome "dropped", with the file count).
type Tracer struct {
	tracer trace.Tracer
	ctx    context.Context

	mu    sync.Mutex
	spans map[spanKey]*activeSpan
}

type spanKey struct {
	controller string
	element    dom.Element
}

type activeSpan struct {
	span  trace.Span
	ticks int
}

// New creates a tracer.
func New(opts ...Option) *Tracer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Context == nil {
		config.Context = context.Background()
	}

	var tracer trace.Tracer
	if config.Provider != nil {
		tracer = config.Provider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return &Tracer{
		tracer: tracer,
		ctx:    config.Context,
		spans:  make(map[spanKey]*activeSpan),
	}
}

// ObserveDrop traces hovers over the controller's targets.
func (t *Tracer) ObserveDrop(name string, dc *dnd.DropController) {
	dc.OnFunc(dnd.EventDragEnter, func(e *dnd.Event) {
		t.start(spanKey{name, e.Element}, "dnd.hover",
			attribute.String("dnd.controller", name),
			attribute.String("dnd.target", elementID(e.Element)),
			attribute.String("dnd.drop_effect", string(dc.Options().DropEffect)),
		)
	})
	dc.OnFunc(dnd.EventDragOver, func(e *dnd.Event) {
		t.tick(spanKey{name, e.Element})
	})
	dc.OnFunc(dnd.EventDragLeave, func(e *dnd.Event) {
		t.end(spanKey{name, e.Element}, codes.Unset,
			attribute.String("dnd.outcome", "left"),
		)
	})
	dc.OnFunc(dnd.EventDrop, func(e *dnd.Event) {
		t.end(spanKey{name, e.Element}, codes.Ok,
			attribute.String("dnd.outcome", "dropped"),
			attribute.Int("dnd.files", len(e.Files)),
		)
	})
}

// ObserveDrag traces drag gestures on the controller's sources.
func (t *Tracer) ObserveDrag(name string, dc *dnd.DragController) {
	dc.OnFunc(dnd.EventDragStart, func(e *dnd.Event) {
		t.start(spanKey{name, e.Element}, "dnd.drag",
			attribute.String("dnd.controller", name),
			attribute.String("dnd.source", elementID(e.Element)),
			attribute.String("dnd.effect_allowed", string(dc.Options().EffectAllowed)),
			attribute.String("dnd.data_kind", dc.Options().Data.Kind().String()),
		)
	})
	dc.OnFunc(dnd.EventDrag, func(e *dnd.Event) {
		t.tick(spanKey{name, e.Element})
	})
	dc.OnFunc(dnd.EventDragEnd, func(e *dnd.Event) {
		t.end(spanKey{name, e.Element}, codes.Ok)
	})
}

// ActiveSpans returns the number of spans started and not yet ended.
func (t *Tracer) ActiveSpans() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Forget ends the open spans of the given elements with an error status.
// Use it when elements go away mid-gesture, such as a closed bridge
// session.
func (t *Tracer) Forget(elements ...dom.Element) {
	gone := make(map[dom.Element]bool, len(elements))
	for _, el := range elements {
		gone[el] = true
	}

	t.mu.Lock()
	var stale []*activeSpan
	for key, s := range t.spans {
		if gone[key.element] {
			stale = append(stale, s)
			delete(t.spans, key)
		}
	}
	t.mu.Unlock()

	for _, s := range stale {
		s.span.SetStatus(codes.Error, "abandoned")
		s.span.End()
	}
}

func (t *Tracer) start(key spanKey, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A repeated start without an end replaces the stale span.
	if prev, ok := t.spans[key]; ok {
		prev.span.SetStatus(codes.Error, "superseded")
		prev.span.End()
	}

	_, span := t.tracer.Start(t.ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	t.spans[key] = &activeSpan{span: span}
}

func (t *Tracer) tick(key spanKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.spans[key]; ok {
		s.ticks++
	}
}

func (t *Tracer) end(key spanKey, code codes.Code, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	s, ok := t.spans[key]
	delete(t.spans, key)
	t.mu.Unlock()
	if !ok {
		return
	}

	s.span.SetAttributes(append(attrs, attribute.Int("dnd.ticks", s.ticks))...)
	if code != codes.Unset {
		s.span.SetStatus(code, "")
	}
	s.span.End()
}

func elementID(el dom.Element) string {
	if el == nil {
		return ""
	}
	return el.ID()
}
