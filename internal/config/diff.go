package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; transport-level
// settings (listen address, MCP servers, synthesis credentials) require a
// restart and are deliberately ignored here.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RoleplayChanged is true when the in-character voice defaults changed.
	// Applies to scenarios started after the reload.
	RoleplayChanged bool
	NewRoleplay     RoleplayConfig

	// StateChanged is true when the snapshot tool or fetch timeout changed.
	StateChanged bool
	NewState     StateConfig
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Roleplay != new.Roleplay {
		d.RoleplayChanged = true
		d.NewRoleplay = new.Roleplay
	}

	if old.State != new.State {
		d.StateChanged = true
		d.NewState = new.State
	}

	return d
}
