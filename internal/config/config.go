// Package config provides the configuration schema and loader for the
// quotecard bot.
package config

import "quotecard/internal/discord"

// LogLevel controls log verbosity for the quotecard server.
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

// StoreBackend selects where speakers are persisted.
type StoreBackend string

const (
	// StoreMemory keeps speakers in process memory; they are lost on restart.
	StoreMemory StoreBackend = "memory"

	// StoreDisk persists speakers as JSON files under store.path.
	StoreDisk StoreBackend = "disk"

	// StorePostgres persists speakers in PostgreSQL via store.postgres_dsn.
	StorePostgres StoreBackend = "postgres"
)

// IsValid reports whether b is a recognised store backend.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreMemory, StoreDisk, StorePostgres:
		return true
	}
	return false
}

// Config is the root configuration structure for quotecard.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Discord discord.Config `yaml:"discord"`
	Store   StoreConfig    `yaml:"store"`
	Render  RenderConfig   `yaml:"render"`
}

// ServerConfig holds network and logging settings for the health and
// metrics endpoint.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// StoreConfig selects and configures the speaker store.
type StoreConfig struct {
	// Backend selects the store implementation. Defaults to "disk".
	Backend StoreBackend `yaml:"backend"`

	// Path is the base directory for the disk backend.
	Path string `yaml:"path"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// RenderConfig configures the card renderer.
type RenderConfig struct {
	// AssetsDir holds the scroll and quote-sign overlays.
	AssetsDir string `yaml:"assets_dir"`

	// BodyFont is the TTF used for the quote text. Empty uses a built-in.
	BodyFont string `yaml:"body_font"`

	// CaptionFont is the TTF used for name and date. Empty uses a built-in.
	CaptionFont string `yaml:"caption_font"`
}
