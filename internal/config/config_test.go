package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.CORSOrigin != "*" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Directory.RootURL != "https://charm.li/" {
		t.Fatalf("unexpected root url %q", cfg.Directory.RootURL)
	}
	if !strings.Contains(cfg.Directory.UserAgent, "Mozilla/5.0") {
		t.Fatalf("expected browser user agent, got %q", cfg.Directory.UserAgent)
	}
	if cfg.Cache.Capacity != 1024 || cfg.Cache.TTL != 24*time.Hour {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Match.LowConfidenceThreshold != 0.2 {
		t.Fatalf("unexpected threshold %v", cfg.Match.LowConfidenceThreshold)
	}
	if cfg.Resolver.MakeAliases["chevrolet"] != "Chevy" {
		t.Fatalf("expected chevrolet alias, got %+v", cfg.Resolver.MakeAliases)
	}
	if got := cfg.RequestTimeout(); got != 15*time.Second {
		t.Fatalf("expected request timeout 15s, got %v", got)
	}
	if cfg.Decoder.RateLimitRPS != 0 || cfg.Decoder.RateLimitBurst != 1 {
		t.Fatalf("unexpected decoder rate limit defaults: %+v", cfg.Decoder)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  cors_origin: https://shop.example.com
http:
  timeout_seconds: 45
directory:
  root_url: https://mirror.example.com/
  user_agent: real-agent
  respect_robots: true
  rate_limit_rps: 2.5
  rate_limit_burst: 3
  allowed_hosts: [charm.li, mirror.example.com]
decoder:
  base_url: http://decoder.internal/DecodeVin
  rate_limit_rps: 4
  rate_limit_burst: 2
cache:
  capacity: 10
  ttl: 90m
match:
  low_confidence_threshold: 0.35
resolver:
  make_aliases:
    chevrolet: Chevy
    volkswagen: VW
logging:
  development: false
  level: warn
telemetry:
  enabled: true
  stdout: true
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.CORSOrigin != "https://shop.example.com" {
		t.Fatalf("expected server overrides, got %+v", cfg.Server)
	}
	if !cfg.Directory.RespectRobots || cfg.Directory.RateLimitRPS != 2.5 || cfg.Directory.RateLimitBurst != 3 {
		t.Fatalf("expected directory overrides to apply: %+v", cfg.Directory)
	}
	if len(cfg.Directory.AllowedHosts) != 2 || cfg.Directory.AllowedHosts[1] != "mirror.example.com" {
		t.Fatalf("unexpected allowed hosts %v", cfg.Directory.AllowedHosts)
	}
	if cfg.Decoder.BaseURL != "http://decoder.internal/DecodeVin" {
		t.Fatalf("unexpected decoder url %q", cfg.Decoder.BaseURL)
	}
	if cfg.Decoder.RateLimitRPS != 4 || cfg.Decoder.RateLimitBurst != 2 {
		t.Fatalf("unexpected decoder rate limit: %+v", cfg.Decoder)
	}
	if cfg.Cache.Capacity != 10 || cfg.Cache.TTL != 90*time.Minute {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Resolver.MakeAliases["volkswagen"] != "VW" {
		t.Fatalf("expected alias override, got %+v", cfg.Resolver.MakeAliases)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if !cfg.Telemetry.Enabled || !cfg.Telemetry.Stdout || cfg.Telemetry.ServiceName != "charmresolver" {
		t.Fatalf("unexpected telemetry config: %+v", cfg.Telemetry)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RESOLVER_SERVER_PORT", "7070")
	t.Setenv("RESOLVER_MATCH_LOW_CONFIDENCE_THRESHOLD", "0.5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Match.LowConfidenceThreshold != 0.5 {
		t.Fatalf("expected env threshold 0.5, got %v", cfg.Match.LowConfidenceThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		HTTP:      HTTPConfig{TimeoutSeconds: 10},
		Directory: DirectoryConfig{RootURL: "https://charm.li/"},
		Decoder:   DecoderConfig{BaseURL: "https://vpic.example.com"},
		Match:     MatchConfig{LowConfidenceThreshold: 0.2},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"invalid timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "http.timeout_seconds"},
		{"missing root url", func(c *Config) { c.Directory.RootURL = " " }, "directory.root_url"},
		{"negative rate", func(c *Config) { c.Directory.RateLimitRPS = -1 }, "directory.rate_limit_rps"},
		{"missing decoder", func(c *Config) { c.Decoder.BaseURL = "" }, "decoder.base_url"},
		{"negative decoder rate", func(c *Config) { c.Decoder.RateLimitRPS = -1 }, "decoder.rate_limit_rps"},
		{"negative capacity", func(c *Config) { c.Cache.Capacity = -1 }, "cache.capacity"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"threshold above one", func(c *Config) { c.Match.LowConfidenceThreshold = 1.5 }, "match.low_confidence_threshold"},
		{"threshold below zero", func(c *Config) { c.Match.LowConfidenceThreshold = -0.1 }, "match.low_confidence_threshold"},
		{"telemetry without name", func(c *Config) { c.Telemetry.Enabled = true }, "telemetry.service_name"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
