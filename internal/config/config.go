// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package config loads service configuration from a YAML file, the
// environment, and command-line flags, in increasing order of precedence.
package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/auth"
	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/internal/logging"
	"github.com/uhailink/uhailink/internal/xdg"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nested keys: UHAILINK_HTTP__ADDR sets http.addr.
const EnvPrefix = "UHAILINK_"

// Config is the complete service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Access   AccessConfig   `koanf:"access"`
	Session  SessionConfig  `koanf:"session"`
	Chat     ChatConfig     `koanf:"chat"`
}

// HTTPConfig configures the public HTTP server.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
	// Origin is the public base URL embedded in QR codes.
	Origin          string        `koanf:"origin"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	SecureCookies   bool          `koanf:"secure_cookies"`
}

// MetricsConfig configures the metrics and health server. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// AccessConfig configures access resolution.
type AccessConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig configures sign-in sessions.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	PurgeInterval time.Duration `koanf:"purge_interval"`
}

// ChatConfig configures the assistant.
type ChatConfig struct {
	Endpoint     string        `koanf:"endpoint"`
	APIKey       string        `koanf:"api_key"`
	Model        string        `koanf:"model"`
	Title        string        `koanf:"title"`
	Temperature  float64       `koanf:"temperature"`
	MaxTokens    int           `koanf:"max_tokens"`
	Timeout      time.Duration `koanf:"timeout"`
	BlockedTerms []string      `koanf:"blocked_terms"`
	// GuidesFile replaces the built-in offline guides when set.
	GuidesFile string `koanf:"guides_file"`
	// ProbeURL is checked to decide whether the assistant is offline. Empty
	// means always online.
	ProbeURL      string   `koanf:"probe_url"`
	SpeechCommand []string `koanf:"speech_command"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:8080",
			Origin:          "http://localhost:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:      LogConfig{Format: "json", Level: "info"},
		Database: DatabaseConfig{ConnectTimeout: 30 * time.Second},
		Access:   AccessConfig{Timeout: access.DefaultTimeout},
		Session:  SessionConfig{TTL: auth.SessionTTL, PurgeInterval: 10 * time.Minute},
		Chat: ChatConfig{
			Endpoint:     chat.DefaultEndpoint,
			Model:        chat.DefaultModel,
			Title:        chat.DefaultTitle,
			Temperature:  chat.DefaultTemperature,
			MaxTokens:    chat.DefaultMaxTokens,
			Timeout:      2 * time.Minute,
			BlockedTerms: chat.DefaultBlockedTerms,
		},
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":    "http.addr",
	"origin":       "http.origin",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"database-url": "database.url",
	"auto-migrate": "database.auto_migrate",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "config file (default: XDG_CONFIG_HOME/uhailink/config.yaml)")
	fs.String("http-addr", d.HTTP.Addr, "HTTP listen address")
	fs.String("origin", d.HTTP.Origin, "public base URL used in QR codes")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: DATABASE_URL)")
	fs.Bool("auto-migrate", false, "apply pending migrations on startup")
}

// Load builds the configuration. Sources apply in order: defaults, the
// config file, DATABASE_URL and OPENROUTER_API_KEY, UHAILINK_* variables,
// then flags. Flags left at their defaults only fill keys no other source
// set. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path == "" {
		if p := xdg.ConfigFile(); fileExists(p) {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	for envVar, key := range map[string]string{
		"DATABASE_URL":       "database.url",
		"OPENROUTER_API_KEY": "chat.api_key",
	} {
		if v := os.Getenv(envVar); v != "" && !k.Exists(key) {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_ENV_INVALID").With("var", envVar).Wrap(err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if u, err := url.Parse(c.HTTP.Origin); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("http.origin", "http.origin must be an absolute URL, got %q", c.HTTP.Origin)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return invalid("log.level", "log.level %q is not a level", c.Log.Level)
	}
	if c.Access.Timeout <= 0 {
		return invalid("access.timeout", "access.timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return invalid("session.ttl", "session.ttl must be positive")
	}
	if c.Session.PurgeInterval <= 0 {
		return invalid("session.purge_interval", "session.purge_interval must be positive")
	}
	if u, err := url.Parse(c.Chat.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("chat.endpoint", "chat.endpoint must be an http(s) URL, got %q", c.Chat.Endpoint)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return invalid("chat.temperature", "chat.temperature must be between 0 and 2")
	}
	if c.Chat.MaxTokens <= 0 {
		return invalid("chat.max_tokens", "chat.max_tokens must be positive")
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").
			Errorf("database URL is required (set DATABASE_URL, %sDATABASE__URL, or --database-url)", EnvPrefix)
	}
	return nil
}
