// Package app wires all Cadence subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects the MCP
// host, the emotional-state source, the synthesis side channel, and the
// WebSocket ingress; Run serves HTTP until the context is cancelled; Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithMCPHost, WithSource, WithSynthProvider). When an option is not
// provided, New creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/mirelle-ai/cadence/internal/config"
	"github.com/mirelle-ai/cadence/internal/health"
	"github.com/mirelle-ai/cadence/internal/ingress"
	"github.com/mirelle-ai/cadence/internal/mcp"
	"github.com/mirelle-ai/cadence/internal/mcp/mcphost"
	"github.com/mirelle-ai/cadence/internal/mcp/tools"
	"github.com/mirelle-ai/cadence/internal/mcp/tools/roleplaytool"
	"github.com/mirelle-ai/cadence/internal/observe"
	"github.com/mirelle-ai/cadence/internal/roleplay"
	"github.com/mirelle-ai/cadence/internal/stage"
	"github.com/mirelle-ai/cadence/internal/state"
	"github.com/mirelle-ai/cadence/pkg/provider/synth"
	"github.com/mirelle-ai/cadence/pkg/provider/synth/cartesia"
	synthmock "github.com/mirelle-ai/cadence/pkg/provider/synth/mock"
)

// defaultListenAddr is used when server.listen_addr is not configured.
const defaultListenAddr = ":8080"

// App owns all subsystem lifetimes and serves the modulation stage over HTTP.
type App struct {
	cfg     *config.Config
	metrics *observe.Metrics

	host     mcp.Host
	source   state.EmotionSource
	provider synth.Provider
	session  *roleplay.Session
	server   *http.Server

	// mu guards the hot-reloadable settings read by newStageSession.
	mu           sync.Mutex
	fetchTimeout time.Duration

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMCPHost injects an MCP host instead of creating one from config.
func WithMCPHost(h mcp.Host) Option {
	return func(a *App) { a.host = h }
}

// WithSource injects an emotional-state source instead of building one on
// top of the MCP host.
func WithSource(s state.EmotionSource) Option {
	return func(a *App) { a.source = s }
}

// WithSynthProvider injects a synthesis side channel instead of creating one
// from config.
func WithSynthProvider(p synth.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Use Option functions
// to inject test doubles for any subsystem.
//
// An unreachable MCP server is logged and skipped rather than failing
// startup: the stage degrades to the neutral voice until the server comes
// back, which beats refusing to speak at all.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:          cfg,
		session:      roleplay.NewSession(),
		fetchTimeout: cfg.State.FetchTimeout,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.session.SetVoiceDefaults(roleplay.VoiceModifiers{
		Speed: cfg.Roleplay.Speed,
		Pitch: string(cfg.Roleplay.Pitch),
	})

	if err := a.initMCP(ctx); err != nil {
		return nil, fmt.Errorf("app: init mcp: %w", err)
	}
	if err := a.initSynth(); err != nil {
		return nil, fmt.Errorf("app: init synthesis: %w", err)
	}
	a.initSource()
	a.initServer()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initMCP sets up the MCP host, registers the configured servers, and
// exposes the roleplay control tools.
func (a *App) initMCP(ctx context.Context) error {
	if a.host == nil {
		host := mcphost.New()
		host.AddObserver(toolMetricsObserver{m: a.metrics})
		a.host = host
		a.closers = append(a.closers, host.Close)
	}

	for _, srv := range a.cfg.MCP.Servers {
		serverCfg := mcp.ServerConfig{
			Name:      srv.Name,
			Transport: srv.Transport,
			Command:   srv.Command,
			URL:       srv.URL,
			Env:       srv.Env,
		}
		if err := a.host.RegisterServer(ctx, serverCfg); err != nil {
			slog.Warn("MCP server unreachable, continuing without it",
				"name", srv.Name, "error", err)
			continue
		}
		slog.Info("registered MCP server", "name", srv.Name)
	}

	// Roleplay control tools need the concrete host's builtin registry; an
	// injected mock host skips them.
	if host, ok := a.host.(*mcphost.Host); ok {
		if err := tools.RegisterAll(host, roleplaytool.Tools(a.session)); err != nil {
			return fmt.Errorf("register roleplay tools: %w", err)
		}
	}
	return nil
}

// initSynth builds the synthesis side channel named in config. An empty
// provider name leaves the side channel off; inline markup still flows.
func (a *App) initSynth() error {
	if a.provider != nil {
		a.closers = append(a.closers, a.provider.Close)
		return nil
	}

	switch a.cfg.Synthesis.Provider {
	case "":
		return nil
	case "cartesia":
		var opts []cartesia.Option
		if a.cfg.Synthesis.Model != "" {
			opts = append(opts, cartesia.WithModel(a.cfg.Synthesis.Model))
		}
		p, err := cartesia.New(a.cfg.Synthesis.APIKey, a.cfg.Synthesis.VoiceID, opts...)
		if err != nil {
			return err
		}
		a.provider = p
	case "mock":
		a.provider = &synthmock.Provider{}
	default:
		return fmt.Errorf("unknown synthesis provider %q", a.cfg.Synthesis.Provider)
	}

	a.closers = append(a.closers, a.provider.Close)
	slog.Info("synthesis side channel ready", "provider", a.cfg.Synthesis.Provider)
	return nil
}

// initSource builds the MCP-backed emotional-state source unless one was
// injected.
func (a *App) initSource() {
	if a.source != nil {
		return
	}
	var opts []state.MCPOption
	if a.cfg.State.Tool != "" {
		opts = append(opts, state.WithTool(a.cfg.State.Tool))
	}
	a.source = state.NewMCPSource(a.host, opts...)
}

// initServer assembles the HTTP mux: WebSocket ingress, Prometheus scrape
// endpoint, and health probes.
func (a *App) initServer() {
	checkers := []health.Checker{
		{Name: "mcp", Check: func(ctx context.Context) error {
			if len(a.host.Tools()) == 0 {
				return fmt.Errorf("no tools registered")
			}
			return nil
		}},
	}
	hh := health.New(checkers...)

	ing := ingress.NewHandler(a.newStageSession,
		ingress.WithMetrics(a.metrics))

	mux := http.NewServeMux()
	mux.Handle("/session", ing)
	mux.Handle("/metrics", promhttp.Handler())
	hh.Register(mux)

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newStageSession builds the per-connection modulation stage. All
// connections share the roleplay session because the control tools arrive
// through the MCP host, outside any single connection.
func (a *App) newStageSession() (ingress.Processor, error) {
	a.mu.Lock()
	fetchTimeout := a.fetchTimeout
	a.mu.Unlock()

	opts := []stage.Option{
		stage.WithSession(a.session),
		stage.WithMetrics(a.metrics),
	}
	if a.provider != nil {
		opts = append(opts, stage.WithProvider(a.provider))
	}
	if fetchTimeout > 0 {
		opts = append(opts, stage.WithFetchTimeout(fetchTimeout))
	}
	return stage.New(a.source, opts...), nil
}

// Handler returns the fully assembled HTTP handler. Exposed so tests can
// serve the app through [net/http/httptest] without binding a port.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Host returns the MCP host, through which the roleplay control tools are
// reachable.
func (a *App) Host() mcp.Host {
	return a.host
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(drainCtx); err != nil {
			slog.Warn("http shutdown error", "error", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// ─── Hot reload ──────────────────────────────────────────────────────────────

// ApplyConfig applies the hot-reloadable parts of a config change. Roleplay
// voice defaults take effect for scenarios started after the call; the fetch
// timeout applies to stages created for new connections.
func (a *App) ApplyConfig(d config.ConfigDiff) {
	if d.RoleplayChanged {
		a.session.SetVoiceDefaults(roleplay.VoiceModifiers{
			Speed: d.NewRoleplay.Speed,
			Pitch: string(d.NewRoleplay.Pitch),
		})
		slog.Info("roleplay voice defaults updated",
			"speed", d.NewRoleplay.Speed, "pitch", d.NewRoleplay.Pitch)
	}
	if d.StateChanged {
		a.mu.Lock()
		a.fetchTimeout = d.NewState.FetchTimeout
		a.mu.Unlock()
		slog.Info("state fetch settings updated",
			"fetch_timeout", d.NewState.FetchTimeout)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// ─── Observers ───────────────────────────────────────────────────────────────

// toolMetricsObserver publishes every MCP tool call to the metrics pipeline.
type toolMetricsObserver struct {
	m *observe.Metrics
}

func (o toolMetricsObserver) ObserveToolCall(ctx context.Context, call mcp.ToolCall) {
	o.m.ToolExecutionDuration.Record(ctx, call.Duration.Seconds(),
		metric.WithAttributes(attribute.String("tool", call.Name)))

	status := "ok"
	if call.Err != nil || (call.Result != nil && call.Result.IsError) {
		status = "error"
	}
	o.m.RecordToolCall(ctx, call.Name, status)

	if status != "ok" {
		return
	}
	switch call.Name {
	case "start_roleplay":
		o.m.RecordRoleplayTransition(ctx, "start")
	case "set_roleplay_emotion":
		o.m.RecordRoleplayTransition(ctx, "set_emotion")
	case "end_roleplay":
		o.m.RecordRoleplayTransition(ctx, "end")
	}
}
