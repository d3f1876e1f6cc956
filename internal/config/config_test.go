package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mirelle-ai/cadence/internal/config"
	"github.com/mirelle-ai/cadence/internal/mcp"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

synthesis:
  provider: cartesia
  api_key: ca-test
  voice_id: warm-narrator
  model: sonic-3

state:
  tool: get_emotional_state
  fetch_timeout: 2s

mcp:
  servers:
    - name: persona
      transport: stdio
      command: /usr/local/bin/persona-state
      env:
        PERSONA_DB: /var/lib/persona.db
    - name: web
      transport: streamable-http
      url: https://tools.example.com/mcp

roleplay:
  speed: 1.05
  pitch: medium
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Synthesis.Provider != "cartesia" {
		t.Errorf("synthesis.provider: got %q, want %q", cfg.Synthesis.Provider, "cartesia")
	}
	if cfg.Synthesis.VoiceID != "warm-narrator" {
		t.Errorf("synthesis.voice_id: got %q", cfg.Synthesis.VoiceID)
	}
	if cfg.State.Tool != "get_emotional_state" {
		t.Errorf("state.tool: got %q", cfg.State.Tool)
	}
	if cfg.State.FetchTimeout != 2*time.Second {
		t.Errorf("state.fetch_timeout: got %v, want 2s", cfg.State.FetchTimeout)
	}
	if len(cfg.MCP.Servers) != 2 {
		t.Fatalf("mcp.servers: got %d, want 2", len(cfg.MCP.Servers))
	}
	if cfg.MCP.Servers[0].Transport != mcp.TransportStdio {
		t.Errorf("mcp.servers[0].transport: got %q", cfg.MCP.Servers[0].Transport)
	}
	if cfg.MCP.Servers[0].Env["PERSONA_DB"] != "/var/lib/persona.db" {
		t.Errorf("mcp.servers[0].env: got %v", cfg.MCP.Servers[0].Env)
	}
	if cfg.Roleplay.Speed != 1.05 {
		t.Errorf("roleplay.speed: got %.2f, want 1.05", cfg.Roleplay.Speed)
	}
	if cfg.Roleplay.Pitch != config.PitchMedium {
		t.Errorf("roleplay.pitch: got %q", cfg.Roleplay.Pitch)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed (no required top-level fields).
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
}

func TestLoadFromReader_UnknownKeyRejected(t *testing.T) {
	yaml := `
server:
  log_level: info
synthesizer:
  provider: mock
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level key, got nil")
	}
}

func TestLoadFromReader_MalformedYAML(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("server: [not a mapping"))
	if err == nil {
		t.Fatal("expected error for malformed YAML, got nil")
	}
}

// ── enum helpers ──────────────────────────────────────────────────────────────

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("LogLevel(%q).IsValid() = false, want true", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error(`LogLevel("verbose").IsValid() = true, want false`)
	}
}

func TestPitchIsValid(t *testing.T) {
	t.Parallel()
	for _, p := range []config.Pitch{config.PitchLow, config.PitchMedium, config.PitchHigh} {
		if !p.IsValid() {
			t.Errorf("Pitch(%q).IsValid() = false, want true", p)
		}
	}
	if config.Pitch("soprano").IsValid() {
		t.Error(`Pitch("soprano").IsValid() = true, want false`)
	}
}
