package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_Defaults(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatal(err)
	}

	if C.Listen != ":8080" {
		t.Errorf("Expected default listen :8080, got %s", C.Listen)
	}
	if C.Database.Driver != "sqlite" {
		t.Errorf("Expected default driver sqlite, got %s", C.Database.Driver)
	}
	if C.Logs.Retention != 90*24*time.Hour {
		t.Errorf("Expected default retention 2160h, got %v", C.Logs.Retention)
	}
	if len(C.Constants.Cache()) != 0 || len(C.Constants.Token()) != 0 || len(C.Constants.File()) != 0 {
		t.Error("Constant groups should be empty without a config file")
	}
}

func TestConfig_ConstantGroupsFromYAML(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
logs:
  retention: 48h
config:
  cache:
    host: redis.internal
    port: "6379"
  token:
    secret: s3cr3t
  file:
    log: /tmp/registry.log
`)
	if err := Load(path); err != nil {
		t.Fatal(err)
	}

	if C.Listen != ":9090" {
		t.Errorf("Expected listen :9090, got %s", C.Listen)
	}
	if C.Logs.Retention != 48*time.Hour {
		t.Errorf("Expected retention 48h, got %v", C.Logs.Retention)
	}
	if got := C.Constants.Cache()["host"]; got != "redis.internal" {
		t.Errorf("Expected cache host redis.internal, got %q", got)
	}
	if got := C.Constants.Token()["secret"]; got != "s3cr3t" {
		t.Errorf("Expected token secret, got %q", got)
	}
	if got := C.Constants.File()["log"]; got != "/tmp/registry.log" {
		t.Errorf("Expected file log path, got %q", got)
	}
	if _, ok := C.Constants.Cache()["password"]; ok {
		t.Error("Absent keys should not be present")
	}
}

func TestConfig_ConstantEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
config:
  token:
    secret: from-file
`)
	t.Setenv("CONFIG_TOKEN_SECRET", "from-env")
	t.Setenv("CONFIG_CACHE_TTL", "30s")

	if err := Load(path); err != nil {
		t.Fatal(err)
	}

	if got := C.Constants.Token()["secret"]; got != "from-env" {
		t.Errorf("Expected env to override token secret, got %q", got)
	}
	if got := C.Constants.Cache()["ttl"]; got != "30s" {
		t.Errorf("Expected cache ttl from env, got %q", got)
	}
}

func TestConfig_AccessorsReturnCopies(t *testing.T) {
	path := writeConfig(t, `
config:
  file:
    root: /data
`)
	if err := Load(path); err != nil {
		t.Fatal(err)
	}

	m := C.Constants.File()
	m["root"] = "/elsewhere"
	m["extra"] = "x"

	if got := C.Constants.File()["root"]; got != "/data" {
		t.Errorf("Mutating a returned map changed the holder: %q", got)
	}
	if _, ok := C.Constants.File()["extra"]; ok {
		t.Error("Mutating a returned map added a key to the holder")
	}
}

func TestConfig_InvalidRetention(t *testing.T) {
	t.Setenv("LOGS_RETENTION", "forever")

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for unparsable LOGS_RETENTION")
	}
}

func TestConfig_UnsupportedDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}
