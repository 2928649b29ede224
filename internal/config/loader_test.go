package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
	}
	if !cfg.UsesMemoryStore() {
		t.Fatalf("expected empty DSN to select the memory store")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info log level, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected json log format, got %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.IoTEventLimit != 1000 {
		t.Fatalf("expected event limit 1000, got %d", cfg.IoTEventLimit)
	}
}

func TestParse_Values(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(map[string]string{
		"CIVISOS_HTTP_PORT":        "9090",
		"CIVISOS_SQLITE_DSN":       " /var/lib/civisos/civisos.db ",
		"CIVISOS_SEED_FILE":        "seed.yaml",
		"CIVISOS_LOG_LEVEL":        "debug",
		"CIVISOS_LOG_FORMAT":       "text",
		"CIVISOS_SHUTDOWN_TIMEOUT": "30s",
		"CIVISOS_IOT_EVENT_LIMIT":  "250",
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "/var/lib/civisos/civisos.db" || cfg.UsesMemoryStore() {
		t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
	}
	if cfg.SeedFile != "seed.yaml" {
		t.Fatalf("unexpected seed file: %q", cfg.SeedFile)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "text" {
		t.Fatalf("unexpected logging config %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 30*time.Second || cfg.IoTEventLimit != 250 {
		t.Fatalf("unexpected timeout %s or limit %d", cfg.ShutdownTimeout, cfg.IoTEventLimit)
	}
}

func TestParse_InvalidValuesNameVariables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		environ map[string]string
		want    []string
	}{
		{
			name:    "non numeric port",
			environ: map[string]string{"CIVISOS_HTTP_PORT": "http"},
			want:    []string{"CIVISOS_HTTP_PORT"},
		},
		{
			name:    "out of range port and zero limit",
			environ: map[string]string{"CIVISOS_HTTP_PORT": "70000", "CIVISOS_IOT_EVENT_LIMIT": "0"},
			want:    []string{"CIVISOS_HTTP_PORT", "CIVISOS_IOT_EVENT_LIMIT"},
		},
		{
			name:    "unknown log format",
			environ: map[string]string{"CIVISOS_LOG_FORMAT": "xml"},
			want:    []string{"CIVISOS_LOG_FORMAT"},
		},
		{
			name:    "bad duration and level",
			environ: map[string]string{"CIVISOS_SHUTDOWN_TIMEOUT": "soon", "CIVISOS_LOG_LEVEL": "loud"},
			want:    []string{"CIVISOS_SHUTDOWN_TIMEOUT", "CIVISOS_LOG_LEVEL"},
		},
		{
			name:    "negative timeout",
			environ: map[string]string{"CIVISOS_SHUTDOWN_TIMEOUT": "-1s"},
			want:    []string{"CIVISOS_SHUTDOWN_TIMEOUT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.environ)
			if !errors.Is(err, ErrInvalidEnvironment) {
				t.Fatalf("expected ErrInvalidEnvironment, got %v", err)
			}
			for _, name := range tt.want {
				if !strings.Contains(err.Error(), name) {
					t.Fatalf("expected error to name %s, got %q", name, err.Error())
				}
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CIVISOS_HTTP_PORT=7070\nCIVISOS_LOG_FORMAT=text\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("CIVISOS_LOG_FORMAT", "json")
	t.Cleanup(func() { os.Unsetenv("CIVISOS_HTTP_PORT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7070 {
		t.Fatalf("expected port from .env, got %d", cfg.HTTPPort)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected process environment to win over .env, got %q", cfg.LogFormat)
	}
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CIVISOS_HTTP_PORT", "8181")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 8181 {
		t.Fatalf("expected port 8181, got %d", cfg.HTTPPort)
	}
}
