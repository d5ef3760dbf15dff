package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

// isolate points every XDG directory and override at the test's temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("NAVPLUS_DOC_ROOT", "")
	t.Setenv(StoreEnvVar, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	dir := isolate(t)
	cfg := DefaultConfig()

	if cfg.Loader.Timeout != 2*time.Second || cfg.Loader.PollInterval != 16*time.Millisecond {
		t.Errorf("loader defaults = %+v", cfg.Loader)
	}
	if cfg.Loader.Concurrency != 32 {
		t.Errorf("expected concurrency 32, got %d", cfg.Loader.Concurrency)
	}
	if cfg.Widget.SaveDebounce != 500*time.Millisecond {
		t.Errorf("expected save debounce 500ms, got %v", cfg.Widget.SaveDebounce)
	}
	if cfg.Store.TTL != 720*time.Hour {
		t.Errorf("expected ttl 720h, got %v", cfg.Store.TTL)
	}
	if want := filepath.Join(dir, "state", "navplus", "store.db"); cfg.Store.Path != want {
		t.Errorf("store path = %q, want %q", cfg.Store.Path, want)
	}
	if !cfg.UI.DualNav || cfg.UI.PriWidth != 250 || cfg.UI.MinWidth != 25 || cfg.UI.Gutter != 100 {
		t.Errorf("ui defaults = %+v", cfg.UI)
	}
	if cfg.Layout.Classes != "Classes" {
		t.Errorf("expected English labels, got %+v", cfg.Layout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	isolate(t)
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Loader.Timeout != 2*time.Second {
		t.Errorf("expected default config, got timeout %v", cfg.Loader.Timeout)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")

	content := `
doc_root: ~/build/html
store:
  ttl: 48h
loader:
  timeout: 5s
  poll_interval: 50ms
widget:
  save_debounce: 1s
ui:
  dual_nav: false
  pri_width: 300
layout:
  classes: Klassen
  class_list: Klassenliste
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "build/html"); cfg.DocRoot != want {
		t.Errorf("expected expanded doc root %q, got %q", want, cfg.DocRoot)
	}
	if cfg.Store.TTL != 48*time.Hour {
		t.Errorf("ttl = %v", cfg.Store.TTL)
	}
	if cfg.Loader.Timeout != 5*time.Second || cfg.Loader.PollInterval != 50*time.Millisecond {
		t.Errorf("loader = %+v", cfg.Loader)
	}
	if cfg.Loader.Concurrency != 32 {
		t.Errorf("unset concurrency should keep its default, got %d", cfg.Loader.Concurrency)
	}
	if cfg.Widget.SaveDebounce != time.Second {
		t.Errorf("save debounce = %v", cfg.Widget.SaveDebounce)
	}
	if cfg.UI.DualNav || cfg.UI.PriWidth != 300 || cfg.UI.SecWidth != 250 {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if cfg.Layout.Classes != "Klassen" || cfg.Layout.ClassList != "Klassenliste" {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.Files != "Files" {
		t.Errorf("labels left out should stay English, got %q", cfg.Layout.Files)
	}
	if names := cfg.LayoutSpec().Sections; len(names) == 0 {
		t.Error("layout has no sections")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("loader:\n  timeout: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("doc_root: /from/file\nstore:\n  path: /from/file.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NAVPLUS_DOC_ROOT", "/from/env")
	t.Setenv(StoreEnvVar, "/from/env.db")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DocRoot != "/from/env" || cfg.Store.Path != "/from/env.db" {
		t.Errorf("env overrides not applied: %q %q", cfg.DocRoot, cfg.Store.Path)
	}
}

func TestSaveTo(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.DocRoot = "/srv/docs/geo"
	cfg.Loader.Timeout = 3 * time.Second
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"doc_root: /srv/docs/geo", "timeout: 3s", "classes: Classes"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved config lacks %q:\n%s", want, data)
		}
	}

	back, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Loader.Timeout != 3*time.Second || back.DocRoot != cfg.DocRoot {
		t.Errorf("reloaded = %+v", back)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()
	cfg.Loader.Timeout = 0
	cfg.Widget.SaveDebounce = -time.Second
	cfg.UI.SecWidth = 0
	cfg.UI.Gutter = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("expected 4 errors, got %d: %v", n, err)
	}
	if !strings.Contains(err.Error(), "loader.timeout") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestConfigPath_XDG(t *testing.T) {
	dir := isolate(t)
	if want := filepath.Join(dir, "config", "navplus", "config.yaml"); ConfigPath() != want {
		t.Errorf("ConfigPath = %q, want %q", ConfigPath(), want)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if cfg.Store.Path != DefaultStorePath() {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}
