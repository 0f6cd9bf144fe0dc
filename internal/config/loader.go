package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values, so secrets can stay out
// of the config file.
const (
	EnvDiscordToken = "QUOTECARD_DISCORD_TOKEN"
	EnvPostgresDSN  = "QUOTECARD_POSTGRES_DSN"
)

// Load reads the YAML configuration file at path, applies environment
// overrides, and returns a validated [Config].
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

// LoadFromReader decodes a YAML config from r, applies environment
// overrides, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreDisk
	}
	if cfg.Store.Backend == StoreDisk && cfg.Store.Path == "" {
		cfg.Store.Path = "speakers"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDiscordToken); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		cfg.Store.PostgresDSN = v
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token is required (or set %s)", EnvDiscordToken))
	}
	if cfg.Discord.ChannelID == "" {
		errs = append(errs, errors.New("discord.channel_id is required to publish finished quotes"))
	}

	if !cfg.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: memory, disk, postgres", cfg.Store.Backend))
	}
	if cfg.Store.Backend == StoreDisk && cfg.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required when store.backend is disk"))
	}
	if cfg.Store.Backend == StorePostgres && cfg.Store.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("store.postgres_dsn is required when store.backend is postgres (or set %s)", EnvPostgresDSN))
	}

	return errors.Join(errs...)
}
