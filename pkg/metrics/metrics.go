package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/dnd"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "dnd").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "dnd",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector turns controller events into Prometheus metrics:
//   - dnd_events_total: controller events by controller name and event
//   - dnd_files_received_total: files delivered by drops and chooser selections
//   - dnd_active_drags: drag sources currently being dragged
//   - dnd_hovered_targets: drop targets currently hovered
//   - dnd_controllers_observed_total: controllers subscribed to, by kind
type Collector struct {
	events      *prometheus.CounterVec
	files       *prometheus.CounterVec
	activeDrags prometheus.Gauge
	hovered     prometheus.Gauge
	controllers *prometheus.CounterVec
}

// New registers the collector's metrics. Each registry can hold one
// collector per namespace and subsystem.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of drag and drop controller events",
			ConstLabels: config.ConstLabels,
		}, []string{"controller", "event"}),

		files: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "files_received_total",
			Help:        "Total number of files received by drop targets",
			ConstLabels: config.ConstLabels,
		}, []string{"controller", "source"}),

		activeDrags: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_drags",
			Help:        "Number of drag sources currently being dragged",
			ConstLabels: config.ConstLabels,
		}),

		hovered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hovered_targets",
			Help:        "Number of drop targets currently hovered by a drag",
			ConstLabels: config.ConstLabels,
		}),

		controllers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "controllers_observed_total",
			Help:        "Total number of controllers observed by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// ObserveDrop subscribes the collector to a drop controller. name labels
// its series.
func (c *Collector) ObserveDrop(name string, dc *dnd.DropController) {
	c.controllers.WithLabelValues("drop").Inc()

	// A target counts as hovered from dragenter until dragleave or drop.
	var mu sync.Mutex
	hovering := make(map[any]bool)

	dc.OnFunc(dnd.EventClick, func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
		if len(e.Files) > 0 {
			c.files.WithLabelValues(name, "chooser").Add(float64(len(e.Files)))
		}
	})
	dc.OnFunc(dnd.EventDragEnter, func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
		mu.Lock()
		defer mu.Unlock()
		if !hovering[e.Element] {
			hovering[e.Element] = true
			c.hovered.Inc()
		}
	})
	dc.OnFunc(dnd.EventDragOver, func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
	})
	leave := func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
		mu.Lock()
		defer mu.Unlock()
		if hovering[e.Element] {
			delete(hovering, e.Element)
			c.hovered.Dec()
		}
	}
	dc.OnFunc(dnd.EventDragLeave, leave)
	dc.OnFunc(dnd.EventDrop, func(e *dnd.Event) {
		leave(e)
		if len(e.Files) > 0 {
			c.files.WithLabelValues(name, "drop").Add(float64(len(e.Files)))
		}
	})
}

// ObserveDrag subscribes the collector to a drag controller.
func (c *Collector) ObserveDrag(name string, dc *dnd.DragController) {
	c.controllers.WithLabelValues("drag").Inc()

	var mu sync.Mutex
	dragging := make(map[any]bool)

	dc.OnFunc(dnd.EventDragStart, func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
		mu.Lock()
		defer mu.Unlock()
		if !dragging[e.Element] {
			dragging[e.Element] = true
			c.activeDrags.Inc()
		}
	})
	dc.OnFunc(dnd.EventDrag, func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
	})
	dc.OnFunc(dnd.EventDragEnd, func(e *dnd.Event) {
		c.events.WithLabelValues(name, e.Type).Inc()
		mu.Lock()
		defer mu.Unlock()
		if dragging[e.Element] {
			delete(dragging, e.Element)
			c.activeDrags.Dec()
		}
	})
}
