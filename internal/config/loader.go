package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mirelle-ai/cadence/internal/mcp"
)

// ValidSynthesisProviders lists the known synthesis side-channel providers.
// Used by [Validate] to reject unrecognised names.
var ValidSynthesisProviders = []string{"cartesia", "mock"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Synthesis side channel
	if p := cfg.Synthesis.Provider; p != "" {
		if !slices.Contains(ValidSynthesisProviders, p) {
			errs = append(errs, fmt.Errorf("synthesis.provider %q is invalid; valid values: %v", p, ValidSynthesisProviders))
		}
		if p == "cartesia" {
			if cfg.Synthesis.APIKey == "" {
				errs = append(errs, fmt.Errorf("synthesis.api_key is required for the cartesia provider"))
			}
			if cfg.Synthesis.VoiceID == "" {
				errs = append(errs, fmt.Errorf("synthesis.voice_id is required for the cartesia provider"))
			}
		}
	} else {
		slog.Warn("no synthesis provider configured; generation-config side channel disabled, inline markup only")
	}

	// State source
	if cfg.State.FetchTimeout < 0 {
		errs = append(errs, fmt.Errorf("state.fetch_timeout must not be negative"))
	}

	// MCP servers
	serverNamesSeen := make(map[string]int, len(cfg.MCP.Servers))
	for i, srv := range cfg.MCP.Servers {
		prefix := fmt.Sprintf("mcp.servers[%d]", i)
		if srv.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := serverNamesSeen[srv.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of mcp.servers[%d]", prefix, srv.Name, prev))
			}
			serverNamesSeen[srv.Name] = i
		}
		if srv.Transport != "" && !srv.Transport.IsValid() {
			errs = append(errs, fmt.Errorf("%s.transport %q is invalid; valid values: stdio, streamable-http", prefix, srv.Transport))
		}
		if srv.Transport == mcp.TransportStdio && srv.Command == "" {
			errs = append(errs, fmt.Errorf("%s.command is required when transport is stdio", prefix))
		}
		if srv.Transport == mcp.TransportStreamableHTTP && srv.URL == "" {
			errs = append(errs, fmt.Errorf("%s.url is required when transport is streamable-http", prefix))
		}
	}

	// Roleplay voice defaults
	if cfg.Roleplay.Speed != 0 {
		if cfg.Roleplay.Speed < 0.5 || cfg.Roleplay.Speed > 2.0 {
			errs = append(errs, fmt.Errorf("roleplay.speed %.2f is out of range [0.5, 2.0]", cfg.Roleplay.Speed))
		}
	}
	if cfg.Roleplay.Pitch != "" && !cfg.Roleplay.Pitch.IsValid() {
		errs = append(errs, fmt.Errorf("roleplay.pitch %q is invalid; valid values: low, medium, high", cfg.Roleplay.Pitch))
	}

	return errors.Join(errs...)
}
