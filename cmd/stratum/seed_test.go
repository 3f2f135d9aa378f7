package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meridian-hq/stratum/pkg/config"
)

const validSeedYAML = `environments:
  - code: DEV
    display_name: Development
  - code: PROD
    display_name: Production
entries:
  - key: app.name
    value: stratum-dev
    environment: DEV
  - key: app.name
    value: stratum
  - key: worker.count
    value: "4"
    environment: DEV
    data_type: INTEGER
  - key: feature.beta
    value: "true"
    environment: DEV
    data_type: BOOLEAN
  - key: database.password
    value: hunter2
    environment: DEV
    category: CREDENTIAL
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLintSeedFileValid(t *testing.T) {
	path := writeSeedFile(t, validSeedYAML)

	var buf bytes.Buffer
	err := lintSeedFile(path, &buf)
	if err != nil {
		t.Fatalf("lintSeedFile() with valid file error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "✓") {
		t.Errorf("expected success marker, got:\n%s", out)
	}
	if !strings.Contains(out, "2 environments, 5 entries") {
		t.Errorf("expected document summary, got:\n%s", out)
	}
}

func TestLintSeedFileInvalid(t *testing.T) {
	// Duplicate environment, unknown environment reference, bad data type
	path := writeSeedFile(t, `environments:
  - code: DEV
  - code: DEV
entries:
  - key: app.name
    value: x
    environment: QA
  - key: worker.count
    value: "4"
    data_type: FLOAT
`)

	var buf bytes.Buffer
	err := lintSeedFile(path, &buf)
	if err == nil {
		t.Fatal("lintSeedFile() with invalid file should return error")
	}
	if !strings.Contains(err.Error(), "problem(s)") {
		t.Errorf("error should count problems, got: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "✗") {
		t.Errorf("expected problem markers, got:\n%s", out)
	}
	if !strings.Contains(out, "duplicate code") {
		t.Errorf("expected duplicate code problem, got:\n%s", out)
	}
	if !strings.Contains(out, "unknown environment") {
		t.Errorf("expected unknown environment problem, got:\n%s", out)
	}
	if !strings.Contains(out, "unknown data type") {
		t.Errorf("expected data type problem, got:\n%s", out)
	}
}

func TestLintSeedFileNotYAML(t *testing.T) {
	path := writeSeedFile(t, "{{not yaml")

	var buf bytes.Buffer
	err := lintSeedFile(path, &buf)
	if err == nil {
		t.Fatal("lintSeedFile() with malformed file should return error")
	}
}

func TestLintSeedFileMissing(t *testing.T) {
	var buf bytes.Buffer
	err := lintSeedFile(filepath.Join(t.TempDir(), "absent.yaml"), &buf)
	if err == nil {
		t.Fatal("lintSeedFile() with missing file should return error")
	}
}

func TestApplySeedFile(t *testing.T) {
	path := writeSeedFile(t, validSeedYAML)

	cfg := config.DefaultConfig()
	cfg.Store.Backend = "memory"

	var buf bytes.Buffer
	err := applySeedFile(context.Background(), cfg, path, &buf)
	if err != nil {
		t.Fatalf("applySeedFile() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "✓ Seed applied to memory store") {
		t.Errorf("expected apply confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "2 environments, 5 entries") {
		t.Errorf("expected document summary, got:\n%s", out)
	}
}

func TestApplySeedFileInvalidDocument(t *testing.T) {
	path := writeSeedFile(t, `environments:
  - code: ""
`)

	cfg := config.DefaultConfig()
	cfg.Store.Backend = "memory"

	var buf bytes.Buffer
	err := applySeedFile(context.Background(), cfg, path, &buf)
	if err == nil {
		t.Fatal("applySeedFile() with invalid document should return error")
	}
}
