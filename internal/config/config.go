// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package config loads process configuration. Built-in defaults are
// overlaid by an optional YAML file and then by explicitly set command-line
// flags. Secrets never live in the file: they are read from the environment.
package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/ttsfeed/ttsfeed/internal/access"
	"github.com/ttsfeed/ttsfeed/internal/logging"
	"github.com/ttsfeed/ttsfeed/internal/xdg"
)

// Environment variables holding secrets and connection strings.
const (
	EnvHashingSecret = "APP_HASHING_SECRET"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvRedisURL      = "REDIS_URL"
	EnvAdminName     = "APP_ADMIN_NAME"
	EnvAdminEmail    = "APP_ADMIN_EMAIL"
	EnvAdminPassword = "APP_ADMIN_PASSWORD"
)

// Session backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the fully resolved configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Routes   RoutesConfig   `koanf:"routes"`
	Database DatabaseConfig `koanf:"database"`

	// Secrets is populated from the environment only.
	Secrets Secrets `koanf:"-"`
}

// HTTPConfig configures the application listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	// InsecureCookies drops the Secure attribute for plain-HTTP local development.
	InsecureCookies bool `koanf:"insecure_cookies"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig selects the log encoding and threshold.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend string `koanf:"backend"`
	// PurgeInterval is how often the postgres backend deletes expired rows.
	PurgeInterval time.Duration `koanf:"purge_interval"`
}

// AuthConfig selects the password hasher.
type AuthConfig struct {
	Hasher string `koanf:"hasher"`
}

// RoutesConfig holds the route tables and redirect targets of the access gate.
type RoutesConfig struct {
	Public          []string `koanf:"public"`
	AdminOnly       []string `koanf:"admin_only"`
	LoginPath       string   `koanf:"login_path"`
	WaitingRoomPath string   `koanf:"waiting_room_path"`
}

// Table returns the classifier input.
func (r RoutesConfig) Table() access.Routes {
	return access.Routes{Public: r.Public, AdminOnly: r.AdminOnly}
}

// DatabaseConfig tunes the postgres pool.
type DatabaseConfig struct {
	MaxConns        int32         `koanf:"max_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
}

// Secrets are values that must not be written to config files.
type Secrets struct {
	HashingSecret string
	DatabaseURL   string
	RedisURL      string
}

// AdminCredentials is the bootstrap administrator account.
type AdminCredentials struct {
	Name     string
	Email    string
	Password string
}

// AdminFromEnv reads the bootstrap administrator from the environment.
func AdminFromEnv(getenv func(string) string) AdminCredentials {
	return AdminCredentials{
		Name:     getenv(EnvAdminName),
		Email:    getenv(EnvAdminEmail),
		Password: getenv(EnvAdminPassword),
	}
}

// defaults returns the built-in values keyed by koanf path.
// The waiting room and logout are public in addition to the gate's own
// defaults, otherwise an unapproved user would be redirected to a page that
// redirects again and could never sign out.
func defaults() map[string]any {
	routes := access.DefaultRoutes()
	return map[string]any{
		"http.addr":                  ":8080",
		"http.read_header_timeout":   10 * time.Second,
		"http.shutdown_timeout":      10 * time.Second,
		"http.insecure_cookies":      false,
		"metrics.addr":               "127.0.0.1:9100",
		"log.format":                 "json",
		"log.level":                  "info",
		"session.backend":            BackendRedis,
		"session.purge_interval":     time.Hour,
		"auth.hasher":                "argon2id",
		"routes.public":              append(routes.Public, access.DefaultWaitingRoomPath, "/auth/logout/"),
		"routes.admin_only":          routes.AdminOnly,
		"routes.login_path":          access.DefaultLoginPath,
		"routes.waiting_room_path":   access.DefaultWaitingRoomPath,
		"database.max_conns":         int32(10),
		"database.max_conn_lifetime": time.Hour,
	}
}

// flagKeys maps command-line flag names onto config keys. Flags not listed
// here are not configuration and are ignored by the loader.
var flagKeys = map[string]string{
	"listen":           "http.addr",
	"metrics-addr":     "metrics.addr",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"session-backend":  "session.backend",
	"hasher":           "auth.hasher",
	"insecure-cookies": "http.insecure_cookies",
}

// RegisterFlags adds the overridable settings to fs. Flag defaults are empty
// because only flags the user actually sets are applied.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("listen", "", "HTTP listen address (default :8080)")
	fs.String("metrics-addr", "", "metrics/health listen address, empty disables (default 127.0.0.1:9100)")
	fs.String("log-format", "", "log format: json or text (default json)")
	fs.String("log-level", "", "log level: debug, info, warn or error (default info)")
	fs.String("session-backend", "", "session store: redis or postgres (default redis)")
	fs.String("hasher", "", "password hasher: argon2id or hmac (default argon2id)")
	fs.Bool("insecure-cookies", false, "omit the Secure cookie attribute (local development only)")
}

// Load resolves configuration. path names a YAML file; when empty the XDG
// config file is used if it exists. flags may be nil. getenv supplies secrets.
func Load(path string, flags *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("setting", key).Wrap(err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if err := loadFile(k, path, explicit); err != nil {
		return nil, err
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
			return nil, oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "unmarshal").Wrap(err)
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	cfg.Secrets = Secrets{
		HashingSecret: getenv(EnvHashingSecret),
		DatabaseURL:   getenv(EnvDatabaseURL),
		RedisURL:      getenv(EnvRedisURL),
	}
	return &cfg, nil
}

// loadFile merges the YAML file at path. A missing default file is skipped;
// a missing explicit file is an error.
func loadFile(k *koanf.Koanf, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return oops.Code("CONFIG_INVALID").With("config_file", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_INVALID").With("config_file", path).Wrap(err)
	}
	return nil
}

func invalid(setting string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("setting", setting).Errorf(format, args...)
}

// Validate checks everything serve needs. It reports the first problem found.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
		return invalid("http.addr", "listen address %q is not host:port", c.HTTP.Addr)
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return invalid("metrics.addr", "metrics address %q is not host:port", c.Metrics.Addr)
		}
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Session.Backend {
	case BackendRedis:
		if c.Secrets.RedisURL == "" {
			return invalid(EnvRedisURL, "%s is required for the redis session backend", EnvRedisURL)
		}
	case BackendPostgres:
		if c.Session.PurgeInterval <= 0 {
			return invalid("session.purge_interval", "purge interval must be positive")
		}
	default:
		return invalid("session.backend", "session backend must be 'redis' or 'postgres', got %q", c.Session.Backend)
	}

	switch c.Auth.Hasher {
	case "argon2id", "hmac":
	default:
		return invalid("auth.hasher", "hasher must be 'argon2id' or 'hmac', got %q", c.Auth.Hasher)
	}

	if c.Secrets.HashingSecret == "" {
		return invalid(EnvHashingSecret, "%s is required", EnvHashingSecret)
	}
	if c.Secrets.DatabaseURL == "" {
		return invalid(EnvDatabaseURL, "%s is required", EnvDatabaseURL)
	}

	for setting, p := range map[string]string{
		"routes.login_path":        c.Routes.LoginPath,
		"routes.waiting_room_path": c.Routes.WaitingRoomPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return invalid(setting, "redirect path %q must start with /", p)
		}
	}
	if _, err := access.NewClassifier(c.Routes.Table()); err != nil {
		return err
	}
	return nil
}
