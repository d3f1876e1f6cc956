package config_test

import (
	"strings"
	"testing"

	"github.com/mirelle-ai/cadence/internal/config"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: chatty
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_UnknownSynthesisProvider(t *testing.T) {
	t.Parallel()
	yaml := `
synthesis:
  provider: polly
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown synthesis provider, got nil")
	}
	if !strings.Contains(err.Error(), "synthesis.provider") {
		t.Errorf("error should mention synthesis.provider, got: %v", err)
	}
}

func TestValidate_CartesiaRequiresCredentials(t *testing.T) {
	t.Parallel()
	yaml := `
synthesis:
  provider: cartesia
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for cartesia without credentials, got nil")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error should mention api_key, got: %v", err)
	}
	if !strings.Contains(err.Error(), "voice_id") {
		t.Errorf("error should mention voice_id, got: %v", err)
	}
}

func TestValidate_MockProviderNeedsNoCredentials(t *testing.T) {
	t.Parallel()
	yaml := `
synthesis:
  provider: mock
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeFetchTimeout(t *testing.T) {
	t.Parallel()
	yaml := `
state:
  fetch_timeout: -1s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative fetch timeout, got nil")
	}
	if !strings.Contains(err.Error(), "fetch_timeout") {
		t.Errorf("error should mention fetch_timeout, got: %v", err)
	}
}

func TestValidate_DuplicateServerNames(t *testing.T) {
	t.Parallel()
	yaml := `
mcp:
  servers:
    - name: persona
      transport: stdio
      command: /bin/persona
    - name: persona
      transport: stdio
      command: /bin/other
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate server names, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_ServerNameRequired(t *testing.T) {
	t.Parallel()
	yaml := `
mcp:
  servers:
    - transport: stdio
      command: /bin/persona
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for nameless server, got nil")
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("error should mention missing name, got: %v", err)
	}
}

func TestValidate_InvalidTransport(t *testing.T) {
	t.Parallel()
	yaml := `
mcp:
  servers:
    - name: persona
      transport: grpc
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid transport, got nil")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Errorf("error should mention transport, got: %v", err)
	}
}

func TestValidate_StdioRequiresCommand(t *testing.T) {
	t.Parallel()
	yaml := `
mcp:
  servers:
    - name: persona
      transport: stdio
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for stdio server without command, got nil")
	}
	if !strings.Contains(err.Error(), "command is required") {
		t.Errorf("error should mention missing command, got: %v", err)
	}
}

func TestValidate_StreamableHTTPRequiresURL(t *testing.T) {
	t.Parallel()
	yaml := `
mcp:
  servers:
    - name: web
      transport: streamable-http
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for streamable-http server without url, got nil")
	}
	if !strings.Contains(err.Error(), "url is required") {
		t.Errorf("error should mention missing url, got: %v", err)
	}
}

func TestValidate_RoleplaySpeedRange(t *testing.T) {
	t.Parallel()
	for _, speed := range []string{"0.2", "2.5"} {
		yaml := "roleplay:\n  speed: " + speed + "\n"
		_, err := config.LoadFromReader(strings.NewReader(yaml))
		if err == nil {
			t.Fatalf("speed %s: expected out-of-range error, got nil", speed)
		}
		if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("speed %s: error should mention range, got: %v", speed, err)
		}
	}

	// Zero means "use the default" and is always accepted.
	if _, err := config.LoadFromReader(strings.NewReader("roleplay:\n  speed: 0\n")); err != nil {
		t.Fatalf("zero speed: unexpected error: %v", err)
	}
}

func TestValidate_InvalidPitch(t *testing.T) {
	t.Parallel()
	yaml := `
roleplay:
  pitch: falsetto
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid pitch, got nil")
	}
	if !strings.Contains(err.Error(), "pitch") {
		t.Errorf("error should mention pitch, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
synthesis:
  provider: cartesia
roleplay:
  speed: 9.0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	for _, want := range []string{"log_level", "api_key", "out of range"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("joined error should mention %q, got: %v", want, err)
		}
	}
}

func TestValidSynthesisProviders(t *testing.T) {
	t.Parallel()
	if len(config.ValidSynthesisProviders) == 0 {
		t.Fatal("ValidSynthesisProviders should not be empty")
	}
	found := false
	for _, n := range config.ValidSynthesisProviders {
		if n == "cartesia" {
			found = true
			break
		}
	}
	if !found {
		t.Error(`ValidSynthesisProviders should contain "cartesia"`)
	}
}
