// Package config handles loading and saving navplus configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/navplus/config.yaml
//   - State:   ~/.local/state/navplus/ (the key-value store)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/navplus/pkg/forest"
	"github.com/vanderheijden86/navplus/pkg/loader"
	"github.com/vanderheijden86/navplus/pkg/store"
	"github.com/vanderheijden86/navplus/pkg/widget"
)

const appName = "navplus"

// StoreEnvVar overrides the store path.
const StoreEnvVar = "NAVPLUS_STORE"

// StoreConfig locates the persistent key-value store.
type StoreConfig struct {
	Path string        `yaml:"path,omitempty"`
	TTL  time.Duration `yaml:"ttl"`
}

// LoaderConfig tunes navigation data loading.
type LoaderConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Concurrency  int           `yaml:"concurrency"`
}

// WidgetConfig tunes the tree widgets.
type WidgetConfig struct {
	SaveDebounce time.Duration `yaml:"save_debounce"`
}

// UIConfig holds pane layout preferences. Widths are in columns.
type UIConfig struct {
	DualNav  bool `yaml:"dual_nav"`
	PriWidth int  `yaml:"pri_width"`
	SecWidth int  `yaml:"sec_width"`
	MinWidth int  `yaml:"min_width"`
	Gutter   int  `yaml:"gutter"`
}

// Config is the top-level configuration for navplus.
type Config struct {
	DocRoot string        `yaml:"doc_root,omitempty"`
	Store   StoreConfig   `yaml:"store"`
	Loader  LoaderConfig  `yaml:"loader"`
	Widget  WidgetConfig  `yaml:"widget"`
	UI      UIConfig      `yaml:"ui"`
	Layout  forest.Labels `yaml:"layout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Path: DefaultStorePath(),
			TTL:  store.DefaultTTL,
		},
		Loader: LoaderConfig{
			Timeout:      loader.DefaultTimeout,
			PollInterval: loader.DefaultPollInterval,
			Concurrency:  loader.DefaultConcurrency,
		},
		Widget: WidgetConfig{SaveDebounce: widget.DefaultSaveDebounce},
		UI: UIConfig{
			DualNav:  true,
			PriWidth: 250,
			SecWidth: 250,
			MinWidth: 25,
			Gutter:   100,
		},
		Layout: forest.DefaultLabels(),
	}
}

// ConfigDir returns the XDG config directory for navplus.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for navplus.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultStorePath returns the store location under the state directory.
func DefaultStorePath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "store.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, then applies environment
// overrides. Returns DefaultConfig if the file doesn't exist. Layout labels
// left out of the file keep their defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Layout = cfg.Layout.Merge(forest.DefaultLabels())
	cfg.DocRoot = expandHome(cfg.DocRoot)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(loader.DocRootEnvVar); v != "" {
		c.DocRoot = expandHome(v)
	}
	if v := os.Getenv(StoreEnvVar); v != "" {
		c.Store.Path = expandHome(v)
	}
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate reports every setting out of range.
func (c Config) Validate() error {
	var err error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	positive("store.ttl", c.Store.TTL)
	positive("loader.timeout", c.Loader.Timeout)
	positive("loader.poll_interval", c.Loader.PollInterval)
	positive("widget.save_debounce", c.Widget.SaveDebounce)

	for _, w := range []struct {
		name string
		v    int
	}{
		{"loader.concurrency", c.Loader.Concurrency},
		{"ui.pri_width", c.UI.PriWidth},
		{"ui.sec_width", c.UI.SecWidth},
		{"ui.min_width", c.UI.MinWidth},
	} {
		if w.v <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %d", w.name, w.v))
		}
	}
	if c.UI.Gutter < 0 {
		err = multierr.Append(err, errors.New("ui.gutter must not be negative"))
	}
	if c.Store.Path == "" {
		err = multierr.Append(err, errors.New("store.path is not set"))
	}
	return err
}

// LayoutSpec returns the forest layout for the configured labels.
func (c Config) LayoutSpec() forest.Layout {
	return forest.NewLayout(c.Layout)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
