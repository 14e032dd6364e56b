package config_test

import (
	"testing"

	"github.com/uplift-labs/uplift/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Transport:  config.TransportHTTP,
			ListenAddr: ":8080",
			LogLevel:   config.LogInfo,
		},
		Board: config.BoardConfig{
			DefaultBoard: "12345",
			TokenEnv:     "UPLIFT_API_TOKEN",
		},
		Storage: config.StorageConfig{PostgresDSN: "postgres://localhost/uplift"},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	if d := config.Diff(old, new); !d.Empty() {
		t.Errorf("diff of identical configs = %+v, want empty", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("diff = %+v, want log level change to debug", d)
	}
	if d.RestartRequired {
		t.Error("a log level change should not require a restart")
	}
}

func TestDiff_DefaultBoard(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Board.DefaultBoard = "67890"

	d := config.Diff(old, new)
	if !d.DefaultBoardChanged || d.NewDefaultBoard != "67890" {
		t.Errorf("diff = %+v, want default board change to 67890", d)
	}
	if d.RestartRequired {
		t.Error("a default board change should not require a restart")
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"transport", func(c *config.Config) { c.Server.Transport = config.TransportStdio }},
		{"listen addr", func(c *config.Config) { c.Server.ListenAddr = ":9090" }},
		{"tls added", func(c *config.Config) {
			c.Server.TLS = &config.TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}
		}},
		{"postgres dsn", func(c *config.Config) { c.Storage.PostgresDSN = "" }},
		{"api url", func(c *config.Config) { c.Board.APIURL = "https://other.example.com" }},
		{"token env", func(c *config.Config) { c.Board.TokenEnv = "OTHER_TOKEN" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			old, new := baseConfig(), baseConfig()
			tc.mutate(new)
			if d := config.Diff(old, new); !d.RestartRequired {
				t.Errorf("diff = %+v, want restart required", d)
			}
		})
	}
}
