package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/pkg/dom"
)

// Source names where a saved file came from.
const (
	SourceDrop    = "drop"
	SourceChooser = "chooser"
)

// Saved records a file persisted by a Sink.
type Saved struct {
	ID     string
	Name   string
	Type   string
	Size   int64
	Source string
}

// Sink persists files delivered to drop controllers.
type Sink struct {
	store  Store
	config *Config
	ctx    context.Context
	logger *slog.Logger

	mu      sync.Mutex
	saved   []Saved
	onSaved []func(Saved)
	onError []func(dom.File, error)
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithConfig sets the size and type limits. Default: DefaultConfig().
func WithConfig(config *Config) SinkOption {
	return func(s *Sink) {
		if config != nil {
			s.config = config
		}
	}
}

// WithContext sets the context passed to the store.
func WithContext(ctx context.Context) SinkOption {
	return func(s *Sink) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithLogger sets the sink's logger.
func WithLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSink creates a sink writing to store.
func NewSink(store Store, opts ...SinkOption) *Sink {
	s := &Sink{
		store:  store,
		config: DefaultConfig(),
		ctx:    context.Background(),
		logger: slog.Default().With("component", "upload"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach saves the files of every drop and chooser selection on dc.
// Plain target clicks carry no files and are ignored.
func (s *Sink) Attach(dc *dnd.DropController) {
	dc.OnFunc(dnd.EventDrop, func(e *dnd.Event) {
		s.Save(e.Files, SourceDrop)
	})
	dc.OnFunc(dnd.EventClick, func(e *dnd.Event) {
		if len(e.Files) > 0 {
			s.Save(e.Files, SourceChooser)
		}
	})
}

// OnSaved registers fn to run after each file is stored.
func (s *Sink) OnSaved(fn func(Saved)) {
	s.mu.Lock()
	s.onSaved = append(s.onSaved, fn)
	s.mu.Unlock()
}

// OnError registers fn to run when a file is rejected or fails to store.
func (s *Sink) OnError(fn func(dom.File, error)) {
	s.mu.Lock()
	s.onError = append(s.onError, fn)
	s.mu.Unlock()
}

// Save stores each file in order. Files that fail do not stop the rest;
// their errors are joined into the result.
func (s *Sink) Save(files []dom.File, source string) ([]Saved, error) {
	var (
		out  []Saved
		errs []error
	)
	for _, f := range files {
		saved, err := s.saveOne(f, source)
		if err != nil {
			s.logger.Warn("upload rejected", "file", f.Name, "source", source, "error", err)
			s.notifyError(f, err)
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		s.logger.Debug("upload saved", "file", f.Name, "id", saved.ID, "size", saved.Size, "source", source)
		out = append(out, saved)
		s.notifySaved(saved)
	}
	return out, errors.Join(errs...)
}

func (s *Sink) saveOne(f dom.File, source string) (Saved, error) {
	meta := Meta{Filename: f.Name, ContentType: f.Type, Size: f.Size}
	if err := s.config.check(meta); err != nil {
		return Saved{}, err
	}

	rc, err := f.Contents()
	if err != nil {
		return Saved{}, err
	}
	defer rc.Close()

	id, err := s.store.Save(s.ctx, meta, rc)
	if err != nil {
		return Saved{}, err
	}
	return Saved{ID: id, Name: f.Name, Type: f.Type, Size: f.Size, Source: source}, nil
}

// Saved returns every file stored so far.
func (s *Sink) Saved() []Saved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Saved(nil), s.saved...)
}

func (s *Sink) notifySaved(saved Saved) {
	s.mu.Lock()
	s.saved = append(s.saved, saved)
	fns := slices.Clone(s.onSaved)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(saved)
	}
}

func (s *Sink) notifyError(f dom.File, err error) {
	s.mu.Lock()
	fns := slices.Clone(s.onError)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(f, err)
	}
}
