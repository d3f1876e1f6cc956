// Package tools defines the shared [Tool] type used by all built-in MCP tool
// packages. Each sub-package exports a constructor function that returns a
// slice of [Tool] values ready for registration with the MCP Host.
package tools

import (
	"context"

	"github.com/mirelle-ai/cadence/internal/mcp"
	"github.com/mirelle-ai/cadence/internal/mcp/mcphost"
)

// Tool represents a built-in tool ready for registration with the MCP Host.
//
// Each Tool carries its LLM-facing schema ([mcp.ToolDefinition]) together
// with the handler function that is invoked when the LLM calls the tool.
type Tool struct {
	// Definition is the tool's LLM-facing schema including its name,
	// description, and JSON Schema parameter specification.
	Definition mcp.ToolDefinition

	// Handler executes the tool with JSON-encoded args and returns a
	// JSON-encoded result string on success, or a descriptive error.
	// Implementations must be safe for concurrent use and must respect
	// context cancellation.
	Handler func(ctx context.Context, args string) (string, error)
}

// RegisterAll registers every tool in ts with the host. Registration stops
// at the first error.
func RegisterAll(h *mcphost.Host, ts []Tool) error {
	for _, t := range ts {
		if err := h.RegisterBuiltin(mcphost.BuiltinTool{
			Definition: t.Definition,
			Handler:    t.Handler,
		}); err != nil {
			return err
		}
	}
	return nil
}
