package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// DefaultBoardChanged is set when board.default_board changed. The new
	// value is applied to the startup-connected account without a restart.
	DefaultBoardChanged bool
	NewDefaultBoard     string

	// RestartRequired is set when a field that cannot be hot-reloaded
	// (transport, listen address, TLS, storage, API endpoints) changed.
	RestartRequired bool
}

// Empty reports whether the diff carries no changes at all.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.DefaultBoardChanged && !d.RestartRequired
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Board.DefaultBoard != new.Board.DefaultBoard {
		d.DefaultBoardChanged = true
		d.NewDefaultBoard = new.Board.DefaultBoard
	}

	if old.Server.Transport != new.Server.Transport ||
		old.Server.ListenAddr != new.Server.ListenAddr ||
		!tlsEqual(old.Server.TLS, new.Server.TLS) ||
		old.Storage.PostgresDSN != new.Storage.PostgresDSN ||
		old.Board.APIURL != new.Board.APIURL ||
		old.Board.FileAPIURL != new.Board.FileAPIURL ||
		old.Board.TokenEnv != new.Board.TokenEnv {
		d.RestartRequired = true
	}

	return d
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
