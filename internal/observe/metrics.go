// Package observe provides application-wide observability primitives for
// Cadence: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Cadence metrics.
const meterName = "github.com/mirelle-ai/cadence"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TagDuration tracks how long resolving and applying a directive to a
	// turn takes, including the state fetch in normal mode.
	TagDuration metric.Float64Histogram

	// FetchDuration tracks emotional-state fetch latency.
	FetchDuration metric.Float64Histogram

	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// TaggedUtterances counts tagged turns. Use with attribute:
	//   attribute.String("mode", "normal"|"roleplay")
	TaggedUtterances metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// RoleplayTransitions counts roleplay state transitions. Use with attribute:
	//   attribute.String("op", "start"|"advance"|"set_emotion"|"end")
	RoleplayTransitions metric.Int64Counter

	// --- Error counters ---

	// FetchFailures counts emotional-state fetches that degraded to neutral.
	FetchFailures metric.Int64Counter

	// ConfigUpdateFailures counts failed best-effort generation-config pushes.
	ConfigUpdateFailures metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live voice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TagDuration, err = m.Float64Histogram("cadence.tag.duration",
		metric.WithDescription("Latency of resolving and applying a directive to a turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FetchDuration, err = m.Float64Histogram("cadence.state.fetch.duration",
		metric.WithDescription("Latency of emotional-state snapshot fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("cadence.tool_execution.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.TaggedUtterances, err = m.Int64Counter("cadence.utterances.tagged",
		metric.WithDescription("Total tagged turns by modulation mode."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("cadence.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.RoleplayTransitions, err = m.Int64Counter("cadence.roleplay.transitions",
		metric.WithDescription("Total roleplay state transitions by operation."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.FetchFailures, err = m.Int64Counter("cadence.state.fetch.failures",
		metric.WithDescription("Total emotional-state fetches that degraded to neutral."),
	); err != nil {
		return nil, err
	}
	if met.ConfigUpdateFailures, err = m.Int64Counter("cadence.config_update.failures",
		metric.WithDescription("Total failed best-effort generation-config updates."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("cadence.active_sessions",
		metric.WithDescription("Number of live voice sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("cadence.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTaggedUtterance records one tagged turn for the given mode
// ("normal" or "roleplay").
func (m *Metrics) RecordTaggedUtterance(ctx context.Context, mode string) {
	m.TaggedUtterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", mode)),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordRoleplayTransition records one roleplay state transition.
func (m *Metrics) RecordRoleplayTransition(ctx context.Context, op string) {
	m.RoleplayTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}

// RecordFetchFailure records one emotional-state fetch that fell back to
// neutral.
func (m *Metrics) RecordFetchFailure(ctx context.Context) {
	m.FetchFailures.Add(ctx, 1)
}

// RecordConfigUpdateFailure records one failed generation-config push.
func (m *Metrics) RecordConfigUpdateFailure(ctx context.Context) {
	m.ConfigUpdateFailures.Add(ctx, 1)
}
