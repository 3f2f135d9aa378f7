package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateConfigFileValid(t *testing.T) {
	path := writeConfigFile(t, `service:
  listen_address: ":9000"
  admin_keys:
    - key: "stk_0123456789abcdef0123456789abcdef"
      name: "ops"
      role: "admin"
environment:
  default: "DEV"
store:
  backend: memory
audit:
  enabled: true
  sink: log
`)

	var buf bytes.Buffer
	err := validateConfigFile(path, &buf)
	if err != nil {
		t.Fatalf("validateConfigFile() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "✓ Service: listen on :9000") {
		t.Errorf("expected service line, got:\n%s", out)
	}
	if !strings.Contains(out, "fail-safe DEV") {
		t.Errorf("expected environment line, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ Store: memory") {
		t.Errorf("expected store line, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ Admin keys: 1 enabled") {
		t.Errorf("expected admin key count, got:\n%s", out)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("expected validity confirmation, got:\n%s", out)
	}
}

func TestValidateConfigFileDefaults(t *testing.T) {
	// An empty file is the documented defaults, which are valid
	path := writeConfigFile(t, "")

	var buf bytes.Buffer
	err := validateConfigFile(path, &buf)
	if err != nil {
		t.Fatalf("validateConfigFile() with empty file error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "✓ Store: sqlite") {
		t.Errorf("expected default backend, got:\n%s", out)
	}
	if !strings.Contains(out, "⚠️") {
		t.Errorf("expected warning about missing admin keys, got:\n%s", out)
	}
}

func TestValidateConfigFileInvalid(t *testing.T) {
	path := writeConfigFile(t, `store:
  backend: redis
`)

	var buf bytes.Buffer
	err := validateConfigFile(path, &buf)
	if err == nil {
		t.Fatal("validateConfigFile() with unknown backend should return error")
	}
	if !strings.Contains(err.Error(), "backend") {
		t.Errorf("error should name the failing field, got: %v", err)
	}
}

func TestValidateConfigFileMissing(t *testing.T) {
	var buf bytes.Buffer
	err := validateConfigFile(filepath.Join(t.TempDir(), "absent.yaml"), &buf)
	if err == nil {
		t.Fatal("validateConfigFile() with missing file should return error")
	}
}

func TestValidateConfigFileEnvOverride(t *testing.T) {
	t.Setenv("STRATUM_SERVICE_LISTEN_ADDRESS", ":7777")

	path := writeConfigFile(t, `service:
  listen_address: ":9000"
`)

	var buf bytes.Buffer
	err := validateConfigFile(path, &buf)
	if err != nil {
		t.Fatalf("validateConfigFile() error = %v", err)
	}

	// Environment variables beat the file
	if !strings.Contains(buf.String(), "listen on :7777") {
		t.Errorf("expected env override to win, got:\n%s", buf.String())
	}
}
