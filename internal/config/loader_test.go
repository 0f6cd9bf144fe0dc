package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
discord:
  token: "abc123"
  guild_id: "g1"
  channel_id: "c1"
store:
  backend: disk
  path: /var/lib/quotecard/speakers
render:
  assets_dir: assets
`

func TestLoadFromReaderValid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Discord.Token != "abc123" || cfg.Discord.ChannelID != "c1" {
		t.Errorf("Discord = %+v", cfg.Discord)
	}
	if cfg.Store.Backend != StoreDisk || cfg.Store.Path != "/var/lib/quotecard/speakers" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Render.AssetsDir != "assets" {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestLoadFromReaderDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
discord:
  token: "abc123"
  channel_id: "c1"
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want default :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want default info", cfg.Server.LogLevel)
	}
	if cfg.Store.Backend != StoreDisk || cfg.Store.Path != "speakers" {
		t.Errorf("Store = %+v, want disk defaults", cfg.Store)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
discord:
  token: "abc123"
  channel_id: "c1"
  not_a_field: true
`))
	if err == nil {
		t.Error("unknown field accepted")
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
server:
  log_level: loud
store:
  backend: carrier-pigeon
`))
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"log_level", "discord.token", "discord.channel_id", "store.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
discord:
  token: "abc123"
  channel_id: "c1"
store:
  backend: postgres
`))
	if err == nil || !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("err = %v, want postgres_dsn failure", err)
	}
}

func TestEnvOverridesToken(t *testing.T) {
	t.Setenv(EnvDiscordToken, "env-token")

	cfg, err := LoadFromReader(strings.NewReader(`
discord:
  token: "file-token"
  channel_id: "c1"
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Discord.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Discord.Token)
	}
}

func TestEnvSuppliesPostgresDSN(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "postgres://env")

	cfg, err := LoadFromReader(strings.NewReader(`
discord:
  token: "abc123"
  channel_id: "c1"
store:
  backend: postgres
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Store.PostgresDSN != "postgres://env" {
		t.Errorf("PostgresDSN = %q, want env value", cfg.Store.PostgresDSN)
	}
}
