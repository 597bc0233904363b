package bridge

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/vango-dev/dnd/pkg/metrics"
	"github.com/vango-dev/dnd/pkg/tracing"
	"github.com/vango-dev/dnd/pkg/upload"
)

// Config configures a bridge server.
type Config struct {
	// BasePath prefixes the bridge routes (default: "/dnd").
	BasePath string

	// AllowedOrigins lists extra origins accepted on the websocket besides
	// the server's own.
	AllowedOrigins []string

	// HandshakeTimeout bounds the wait for the client's snapshot.
	HandshakeTimeout time.Duration

	// ReadTimeout closes sessions that stay silent this long.
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// MaxMessageSize is the largest frame accepted from a client.
	MaxMessageSize int64

	// InlineLimit is the largest file the client sends inside an event
	// frame. Larger files go through the upload endpoint first.
	InlineLimit int64

	// Store enables the upload endpoint and persists dropped files.
	Store upload.Store

	// Limits restricts uploaded files. Nil uses upload.DefaultConfig.
	Limits *upload.Config

	// Metrics and Tracer observe every controller a session creates.
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	Logger *slog.Logger
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	return Config{
		BasePath:         "/dnd",
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      5 * time.Minute,
		WriteTimeout:     10 * time.Second,
		MaxMessageSize:   4 << 20,
		InlineLimit:      1 << 20,
		Logger:           slog.Default(),
	}
}

// Option configures a Server.
type Option func(*Config)

// WithBasePath sets the route prefix.
func WithBasePath(path string) Option {
	return func(c *Config) {
		c.BasePath = path
	}
}

// WithAllowedOrigins accepts websocket connections from extra origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *Config) {
		c.AllowedOrigins = append(c.AllowedOrigins, origins...)
	}
}

// WithTimeouts sets the handshake, read and write timeouts. Zero values
// keep the current setting.
func WithTimeouts(handshake, read, write time.Duration) Option {
	return func(c *Config) {
		if handshake > 0 {
			c.HandshakeTimeout = handshake
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
	}
}

// WithUploads enables the upload endpoint and file persistence.
func WithUploads(store upload.Store, limits *upload.Config) Option {
	return func(c *Config) {
		c.Store = store
		c.Limits = limits
	}
}

// WithMetrics records controller events on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

// WithTracer records hover and drag spans on tracer.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(c *Config) {
		c.Tracer = tracer
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}

func (c *Config) checkOrigin(r *http.Request) bool {
	if SameOriginCheck(r) {
		return true
	}
	return slices.Contains(c.AllowedOrigins, r.Header.Get("Origin"))
}
