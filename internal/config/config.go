// Package config loads and validates resolver configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Decoder   DecoderConfig   `mapstructure:"decoder"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Match     MatchConfig     `mapstructure:"match"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

// HTTPConfig configures outbound and inbound request budgets.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DirectoryConfig describes the documentation site and how politely to crawl it.
type DirectoryConfig struct {
	RootURL        string  `mapstructure:"root_url"`
	UserAgent      string  `mapstructure:"user_agent"`
	RespectRobots  bool    `mapstructure:"respect_robots"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AllowedHosts restricts caller supplied baseUrl values; empty allows any host.
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// DecoderConfig points at the VIN decoding service.
type DecoderConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// CacheConfig bounds the resolution cache.
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MatchConfig tunes fuzzy matching.
type MatchConfig struct {
	LowConfidenceThreshold float64 `mapstructure:"low_confidence_threshold"`
}

// ResolverConfig tunes the make/year/model walk.
type ResolverConfig struct {
	MakeAliases map[string]string `mapstructure:"make_aliases"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Stdout      bool   `mapstructure:"stdout"`
}

const (
	defaultRootURL   = "https://charm.li/"
	defaultDecoder   = "https://vpic.nhtsa.dot.gov/api/vehicles/DecodeVin"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("directory.root_url", defaultRootURL)
	v.SetDefault("directory.user_agent", defaultUserAgent)
	v.SetDefault("directory.respect_robots", false)
	v.SetDefault("directory.rate_limit_rps", 0)
	v.SetDefault("directory.rate_limit_burst", 1)
	v.SetDefault("directory.allowed_hosts", []string{})
	v.SetDefault("decoder.base_url", defaultDecoder)
	v.SetDefault("decoder.rate_limit_rps", 0)
	v.SetDefault("decoder.rate_limit_burst", 1)
	v.SetDefault("cache.capacity", 1024)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("match.low_confidence_threshold", 0.2)
	v.SetDefault("resolver.make_aliases", map[string]string{"chevrolet": "Chevy"})
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "charmresolver")
	v.SetDefault("telemetry.stdout", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Directory.RootURL) == "" {
		return fmt.Errorf("directory.root_url must be set")
	}
	if c.Directory.RateLimitRPS < 0 {
		return fmt.Errorf("directory.rate_limit_rps must be >= 0")
	}
	if strings.TrimSpace(c.Decoder.BaseURL) == "" {
		return fmt.Errorf("decoder.base_url must be set")
	}
	if c.Decoder.RateLimitRPS < 0 {
		return fmt.Errorf("decoder.rate_limit_rps must be >= 0")
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must be >= 0")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0")
	}
	if t := c.Match.LowConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("match.low_confidence_threshold must be within [0,1]")
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.ServiceName) == "" {
		return fmt.Errorf("telemetry.service_name must be set when telemetry is enabled")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
