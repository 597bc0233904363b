package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"

	"github.com/vango-dev/dnd/internal/config"
	"github.com/vango-dev/dnd/internal/scenario"
	"github.com/vango-dev/dnd/pkg/bridge"
	"github.com/vango-dev/dnd/pkg/metrics"
	"github.com/vango-dev/dnd/pkg/tracing"
	"github.com/vango-dev/dnd/pkg/upload"
)

type serveOptions struct {
	config   string
	scenario string
	host     string
	port     int
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser bridge",
		Long: `Serve the WebSocket bridge. Pages that load {basePath}/client.js
are mirrored on the server, and the controllers declared in the
scenario file are bound to every connected page.

The scenario file is watched; pages connecting after a save get the
new controllers.

Examples:
  dnd serve --scenario board.yaml
  dnd serve --config dnd.json --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", config.ConfigFileName, "Path to dnd.json")
	cmd.Flags().StringVarP(&opts.scenario, "scenario", "S", "", "Scenario whose controllers are bound (default from dnd.json)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from dnd.json)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from dnd.json)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadOrDefault(opts.config)
	if err != nil {
		return err
	}
	if opts.scenario != "" {
		cfg.Server.Scenario = opts.scenario
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return err
	}

	store, err := cfg.UploadStore(ctx)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	bridgeOpts := []bridge.Option{
		bridge.WithBasePath(cfg.Server.BasePath),
		bridge.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		bridge.WithUploads(store, cfg.UploadLimits()),
		bridge.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.New(
			metrics.WithRegistry(reg),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		)
		bridgeOpts = append(bridgeOpts, bridge.WithMetrics(collector))
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	if cfg.Tracing.Enabled {
		bridgeOpts = append(bridgeOpts, bridge.WithTracer(tracing.New(
			tracing.WithTracerName(cfg.Tracing.TracerName),
			tracing.WithContext(ctx),
		)))
	}

	var current atomic.Pointer[scenario.Scenario]
	if path := cfg.Server.Scenario; path != "" {
		if err := watchScenario(ctx, path, logger, &current); err != nil {
			return err
		}
	} else {
		warn("No scenario configured; pages will connect without controllers")
	}

	srv := bridge.New(bindScenario(&current), bridgeOpts...)
	srv.Routes(r)

	capitan.Hook(bridge.SessionStarted, func(_ context.Context, e *capitan.Event) {
		id, _ := bridge.KeySession.From(e)
		n, _ := bridge.KeyElements.From(e)
		info("page %s connected (%d elements)", id, n)
	})
	capitan.Hook(bridge.SessionClosed, func(_ context.Context, e *capitan.Event) {
		id, _ := bridge.KeySession.From(e)
		d, _ := bridge.KeyDuration.From(e)
		info("page %s disconnected after %s", id, d.Round(time.Second))
	})
	defer capitan.Shutdown()

	go cleanupUploads(ctx, store, cfg.TempExpiry(), logger)

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		fmt.Println("\n\n  Shutting down...")
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Bridge listening on http://%s%s", cfg.Address(), cfg.Server.BasePath)
	info("<script src=\"%s/client.js\"></script>", cfg.Server.BasePath)
	if cfg.Metrics.Enabled {
		info("Metrics at http://%s%s", cfg.Address(), cfg.Metrics.Path)
	}
	fmt.Println()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// bindScenario binds the current scenario's controllers to each session.
func bindScenario(current *atomic.Pointer[scenario.Scenario]) bridge.SetupFunc {
	return func(s *bridge.Session) error {
		sc := current.Load()
		if sc == nil {
			return nil
		}
		b := scenario.Bind(s.Document(), sc.Controllers, s.Logger())
		for _, name := range b.Names() {
			if dc, ok := b.Drops[name]; ok {
				s.AddDrop(name, dc)
			}
			if dc, ok := b.Drags[name]; ok {
				s.AddDrag(name, dc)
			}
		}
		return nil
	}
}

// watchScenario loads path into current and keeps it updated. The first
// load must succeed; later failures keep the previous scenario.
func watchScenario(ctx context.Context, path string, logger *slog.Logger, current *atomic.Pointer[scenario.Scenario]) error {
	updates, err := scenario.NewWatcher(path, logger).Watch(ctx)
	if err != nil {
		return err
	}

	first, ok := <-updates
	if !ok {
		return ctx.Err()
	}
	if first.Err != nil {
		return first.Err
	}
	current.Store(first.Scenario)
	success("Loaded %s (%d controllers)", path, len(first.Scenario.Controllers))

	go func() {
		for u := range updates {
			if u.Err != nil {
				errorMsg("Reload %s: %v", path, u.Err)
				continue
			}
			current.Store(u.Scenario)
			success("Reloaded %s (%d controllers)", path, len(u.Scenario.Controllers))
		}
	}()
	return nil
}

func cleanupUploads(ctx context.Context, store upload.Store, maxAge time.Duration, logger *slog.Logger) {
	interval := maxAge / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx, maxAge); err != nil {
				logger.Warn("upload cleanup failed", "error", err)
			}
		}
	}
}
