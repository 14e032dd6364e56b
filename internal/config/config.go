// Package config provides the configuration schema and loader for the uplift
// tool server.
package config

// LogLevel controls log verbosity for the uplift server.
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

// Transport selects how the MCP server talks to its client.
type Transport string

const (
	// TransportStdio serves a single client over stdin/stdout. This is the
	// mode agent hosts spawn the binary in.
	TransportStdio Transport = "stdio"

	// TransportHTTP serves the streamable-HTTP MCP endpoint alongside the
	// health and metrics endpoints.
	TransportHTTP Transport = "http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportHTTP
}

// Config is the root configuration structure for uplift.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Board   BoardConfig   `yaml:"board"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds transport, network, and logging settings.
type ServerConfig struct {
	// Transport selects stdio or http mode. Defaults to stdio.
	Transport Transport `yaml:"transport"`

	// ListenAddr is the TCP address the HTTP server listens on
	// (e.g., ":8080"). Required in http mode, ignored in stdio mode.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the HTTP server. When nil, the server runs
	// plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// BoardConfig holds settings for the work-management API.
type BoardConfig struct {
	// APIURL overrides the GraphQL endpoint. Leave empty for the default.
	APIURL string `yaml:"api_url"`

	// FileAPIURL overrides the file-upload endpoint. Leave empty for the
	// default.
	FileAPIURL string `yaml:"file_api_url"`

	// TokenEnv names an environment variable holding an API token for the
	// default account. Stdio deployments are single-tenant; setting this
	// connects the default account at startup so no connect_account call is
	// needed.
	TokenEnv string `yaml:"token_env"`

	// DefaultBoard is the board research records go to when a call names
	// none. Only used together with TokenEnv.
	DefaultBoard string `yaml:"default_board"`
}

// StorageConfig selects where account settings are kept.
type StorageConfig struct {
	// PostgresDSN is the connection string for the settings database. When
	// empty, settings are held in memory and lost on restart.
	PostgresDSN string `yaml:"postgres_dsn"`
}
