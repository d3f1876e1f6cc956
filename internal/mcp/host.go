// Package mcp defines the interface for a Model Context Protocol (MCP) host.
//
// The MCP host manages connections to one or more MCP servers, maintains a
// catalogue of available tools, and executes tool calls issued by the language
// model that drives a conversation. The modulation stage uses the same host to
// reach the emotional-state server and to expose the roleplay control tools.
//
// Lifecycle:
//
//  1. Call [Host.RegisterServer] for each MCP server to connect to.
//  2. Use [Host.Tools] to enumerate the registered tool catalogue.
//  3. Use [Host.ExecuteTool] to run tools.
//  4. Call [Host.Close] to release all connections.
//
// All methods must be safe for concurrent use.
package mcp

import (
	"context"
	"time"
)

// ServerConfig describes how to connect to a single MCP server.
type ServerConfig struct {
	// Name is the human-readable identifier for this server.
	// Must be unique within a single [Host]. Used in log messages and errors.
	Name string

	// Transport specifies the connection mechanism.
	Transport Transport

	// Command is the executable path (and optional arguments) used when
	// Transport is [TransportStdio].
	// Example: "/usr/local/bin/mcp-state-server --config /etc/state.json"
	Command string

	// URL is the endpoint address used when Transport is
	// [TransportStreamableHTTP].
	URL string

	// Env holds additional environment variables injected into the server
	// process when Transport is [TransportStdio]. May be nil.
	Env map[string]string
}

// ToolDefinition describes a tool registered with the host.
type ToolDefinition struct {
	// Name is the tool's unique identifier.
	Name string

	// Description explains what the tool does (included in LLM prompts).
	Description string

	// Parameters is the JSON Schema describing the tool's input parameters.
	Parameters map[string]any
}

// ToolResult holds the outcome of a single tool execution.
type ToolResult struct {
	// Content is the tool's textual output, typically a JSON string or
	// human-readable text ready for insertion into an LLM context window.
	Content string

	// IsError indicates that the tool returned an application-level error
	// (as opposed to a transport or protocol failure returned via the Go error
	// return value). When IsError is true, Content contains the error message.
	IsError bool

	// DurationMs is the wall-clock time in milliseconds from when the request
	// was dispatched until the full response was received.
	DurationMs int64
}

// ToolHealth captures the measured runtime performance of a single tool,
// derived from a rolling window of recent executions.
type ToolHealth struct {
	// Name is the tool's unique identifier, matching [ToolDefinition.Name].
	Name string

	// MeasuredP50Ms is the observed median execution latency in milliseconds
	// over the current window.
	MeasuredP50Ms int64

	// MeasuredP99Ms is the observed 99th-percentile execution latency in
	// milliseconds over the current window.
	MeasuredP99Ms int64

	// CallCount is the total number of times this tool has been invoked since
	// the [Host] was created.
	CallCount int

	// ErrorRate is the fraction of windowed calls that failed (0.0–1.0).
	ErrorRate float64
}

// ToolCall describes one completed tool execution, delivered to observers
// after the call finishes.
type ToolCall struct {
	// Name is the executed tool's identifier.
	Name string

	// Args is the JSON args string the tool was called with.
	Args string

	// Result is the tool's result. Nil when Err is non-nil.
	Result *ToolResult

	// Err is the transport or protocol error, nil on success.
	Err error

	// Duration is the wall-clock execution time.
	Duration time.Duration
}

// Observer is notified of every completed tool execution. Observers run
// synchronously in registration order, so implementations must return
// quickly and must not call back into the host.
type Observer interface {
	ObserveToolCall(ctx context.Context, call ToolCall)
}

// ObserverFunc adapts a plain function to the [Observer] interface.
type ObserverFunc func(ctx context.Context, call ToolCall)

// ObserveToolCall implements [Observer].
func (f ObserverFunc) ObserveToolCall(ctx context.Context, call ToolCall) { f(ctx, call) }

// Host manages connections to MCP servers, routes tool calls, and tracks
// per-tool performance over rolling windows.
//
// Implementations must be safe for concurrent use.
type Host interface {
	// RegisterServer connects to the MCP server described by cfg and imports
	// its tool catalogue into the host. If a server with the same Name is
	// already registered it is reconnected / refreshed rather than duplicated.
	//
	// Returns an error if the transport cannot be established or the initial
	// tool listing request fails.
	RegisterServer(ctx context.Context, cfg ServerConfig) error

	// Tools returns the full registered tool catalogue, sorted by name.
	Tools() []ToolDefinition

	// ExecuteTool calls the named tool with JSON-encoded args and returns the
	// result. name must exactly match a [ToolDefinition.Name] returned by
	// [Host.Tools].
	//
	// args must be a valid JSON object string conforming to the tool's
	// Parameters schema. An empty object ("{}") is valid for parameter-less
	// tools.
	//
	// A non-nil *ToolResult is returned on success even when
	// [ToolResult.IsError] is true (application-level error). A Go error is
	// returned only on transport or protocol failure.
	ExecuteTool(ctx context.Context, name string, args string) (*ToolResult, error)

	// Health returns the measured performance of every registered tool.
	Health() []ToolHealth

	// Close shuts down all server connections and releases associated
	// resources. After Close returns the Host must not be used again.
	Close() error
}
