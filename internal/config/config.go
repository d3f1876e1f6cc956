// Package config provides the configuration schema and loader for the
// Cadence voice modulation service.
package config

import (
	"time"

	"github.com/mirelle-ai/cadence/internal/mcp"
)

// LogLevel controls log verbosity for the Cadence server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Pitch is a coarse voice pitch selector understood by the synthesis engine.
type Pitch string

const (
	PitchLow    Pitch = "low"
	PitchMedium Pitch = "medium"
	PitchHigh   Pitch = "high"
)

// IsValid reports whether p is a recognised pitch.
func (p Pitch) IsValid() bool {
	switch p {
	case PitchLow, PitchMedium, PitchHigh:
		return true
	}
	return false
}

// Config is the root configuration structure for Cadence.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	State     StateConfig     `yaml:"state"`
	MCP       MCPConfig       `yaml:"mcp"`
	Roleplay  RoleplayConfig  `yaml:"roleplay"`
}

// ServerConfig holds network and logging settings for the Cadence server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// SynthesisConfig selects and configures the synthesis engine's
// configuration side channel.
type SynthesisConfig struct {
	// Provider selects the side-channel implementation ("cartesia" or
	// "mock"). Empty disables the side channel; inline markup still flows.
	Provider string `yaml:"provider"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// VoiceID is the provider-specific voice identifier.
	VoiceID string `yaml:"voice_id"`

	// Model selects a specific model within the provider (e.g., "sonic-3").
	Model string `yaml:"model"`
}

// StateConfig describes where the persona's emotional snapshot comes from.
type StateConfig struct {
	// Tool is the MCP tool called to fetch the snapshot.
	// Default: "get_emotional_state".
	Tool string `yaml:"tool"`

	// FetchTimeout bounds the single per-turn snapshot fetch.
	// Default: 2s.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// MCPConfig holds the list of Model Context Protocol servers to connect to.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes how to connect to a single MCP tool server.
type MCPServerConfig struct {
	// Name is a unique human-readable identifier for this server (used in logs).
	Name string `yaml:"name"`

	// Transport specifies the connection mechanism.
	Transport mcp.Transport `yaml:"transport"`

	// Command is the executable (with optional arguments) launched when
	// Transport is "stdio". Ignored for streamable-http transport.
	Command string `yaml:"command"`

	// URL is the MCP endpoint address used when Transport is "streamable-http"
	// (e.g., "https://mcp.example.com/mcp"). Ignored for stdio transport.
	URL string `yaml:"url"`

	// Env holds additional environment variables injected into the subprocess
	// when Transport is "stdio". May be nil.
	Env map[string]string `yaml:"env"`
}

// RoleplayConfig holds the voice defaults applied when a scenario starts.
type RoleplayConfig struct {
	// Speed is the in-character speaking rate in the range [0.5, 2.0].
	// 0 means the built-in default (1.05).
	Speed float64 `yaml:"speed"`

	// Pitch is the in-character pitch. Empty means "medium".
	Pitch Pitch `yaml:"pitch"`
}
