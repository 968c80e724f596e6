package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen    string         `yaml:"listen"`
	LogLevel  string         `yaml:"log_level"`
	Database  DatabaseConfig `yaml:"database"`
	Logs      LogsConfig     `yaml:"logs"`
	RateLimit RateConfig     `yaml:"rate_limit"`
	TLS       TLSConfig      `yaml:"tls"`
	Constants Constants      `yaml:"config"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

type LogsConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 keeps usage logs forever
}

type RateConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// Constants holds the three free-form groups under the "config" key.
// They are filled once by Load and only read afterwards.
type Constants struct {
	cache map[string]string
	token map[string]string
	file  map[string]string
}

func (c Constants) Cache() map[string]string { return maps.Clone(c.cache) }

func (c Constants) Token() map[string]string { return maps.Clone(c.token) }

func (c Constants) File() map[string]string { return maps.Clone(c.file) }

func (c *Constants) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Cache map[string]string `yaml:"cache"`
		Token map[string]string `yaml:"token"`
		File  map[string]string `yaml:"file"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.cache = merge(c.cache, raw.Cache)
	c.token = merge(c.token, raw.Token)
	c.file = merge(c.file, raw.File)
	return nil
}

func merge(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// NewConstants builds a Constants value directly, mainly for tests and tools.
func NewConstants(cache, token, file map[string]string) Constants {
	return Constants{
		cache: merge(nil, cache),
		token: merge(nil, token),
		file:  merge(nil, file),
	}
}

var C Config

// Load populates C from defaults, the YAML file at path and the environment.
// An empty path falls back to $CONFIG_FILE, then config.yaml. A missing file is not an error.
func Load(path string) error {
	// Defaults
	C = Config{
		Listen:   ":8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "registry.db",
		},
		Logs: LogsConfig{
			Retention: 90 * 24 * time.Hour,
		},
		RateLimit: RateConfig{
			Requests: 600,
			Window:   time.Minute,
		},
		Constants: NewConstants(nil, nil, nil),
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &C); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	// Environment overrides
	if v := os.Getenv("LISTEN"); v != "" {
		C.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		C.LogLevel = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		C.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		C.Database.DSN = v
	}
	if v := os.Getenv("LOGS_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LOGS_RETENTION: %w", err)
		}
		C.Logs.Retention = d
	}
	if v := os.Getenv("TLS_ENABLED"); v == "true" {
		C.TLS.Enabled = true
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		C.TLS.Cert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		C.TLS.Key = v
	}
	applyConstantsEnv(&C.Constants, os.Environ())

	switch C.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", C.Database.Driver)
	}
	if C.RateLimit.Requests <= 0 || C.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit needs positive requests and window")
	}
	return nil
}

// applyConstantsEnv maps CONFIG_CACHE_HOST=x to cache["host"]=x, and likewise for TOKEN and FILE.
func applyConstantsEnv(c *Constants, environ []string) {
	groups := []struct {
		prefix string
		dst    *map[string]string
	}{
		{"CONFIG_CACHE_", &c.cache},
		{"CONFIG_TOKEN_", &c.token},
		{"CONFIG_FILE_", &c.file},
	}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, g := range groups {
			key, found := strings.CutPrefix(name, g.prefix)
			if !found || key == "" {
				continue
			}
			if *g.dst == nil {
				*g.dst = make(map[string]string)
			}
			(*g.dst)[strings.ToLower(key)] = value
		}
	}
}
