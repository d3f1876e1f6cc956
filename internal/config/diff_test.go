package config_test

import (
	"testing"
	"time"

	"github.com/mirelle-ai/cadence/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   config.LogInfo,
		},
		State: config.StateConfig{
			Tool:         "get_emotional_state",
			FetchTimeout: 2 * time.Second,
		},
		Roleplay: config.RoleplayConfig{
			Speed: 1.05,
			Pitch: config.PitchMedium,
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()

	d := config.Diff(old, new)
	if d.LogLevelChanged || d.RoleplayChanged || d.StateChanged {
		t.Errorf("identical configs produced a non-empty diff: %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged = false, want true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want %q", d.NewLogLevel, config.LogDebug)
	}
	if d.RoleplayChanged || d.StateChanged {
		t.Errorf("unrelated sections flagged as changed: %+v", d)
	}
}

func TestDiff_RoleplayChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Roleplay.Speed = 1.2

	d := config.Diff(old, new)
	if !d.RoleplayChanged {
		t.Fatal("RoleplayChanged = false, want true")
	}
	if d.NewRoleplay.Speed != 1.2 {
		t.Errorf("NewRoleplay.Speed = %.2f, want 1.2", d.NewRoleplay.Speed)
	}
}

func TestDiff_StateChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.State.FetchTimeout = 5 * time.Second

	d := config.Diff(old, new)
	if !d.StateChanged {
		t.Fatal("StateChanged = false, want true")
	}
	if d.NewState.FetchTimeout != 5*time.Second {
		t.Errorf("NewState.FetchTimeout = %v, want 5s", d.NewState.FetchTimeout)
	}
}

func TestDiff_ListenAddrIgnored(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.ListenAddr = ":9090"

	d := config.Diff(old, new)
	if d.LogLevelChanged || d.RoleplayChanged || d.StateChanged {
		t.Errorf("listen address change should not be hot-reloadable: %+v", d)
	}
}
