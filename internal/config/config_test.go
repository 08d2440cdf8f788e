package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transport.Mode != "stdio" {
		t.Fatalf("expected default stdio transport, got %q", cfg.Transport.Mode)
	}
	if cfg.Paths.StateDir != filepath.Join(dir, ".swissarmyhammer") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
}

func TestLoad_EmptyFileIsValid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sah.toml"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Name != "sah" {
		t.Fatalf("expected default server name, got %q", cfg.Server.Name)
	}
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, "sah.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, "sah.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SAH_LOG_LEVEL", "error")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("expected env override to win, got %q", cfg.Log.Level)
	}
}

func TestLoad_InvalidTransportMode(t *testing.T) {
	dir := t.TempDir()
	content := "[transport]\nmode = \"carrier-pigeon\"\n"
	if err := os.WriteFile(filepath.Join(dir, "sah.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for invalid transport mode")
	}
}
