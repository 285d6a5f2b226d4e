// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/john-rice/Ice/internal/hotkey"
	"github.com/john-rice/Ice/internal/state"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "10s", "1m", "1h30m", or integer milliseconds for backwards compatibility.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Try parsing as integer (milliseconds) for backwards compatibility
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the daemon configuration, loaded from ~/.config/ice/ice.toml.
type Config struct {
	MenuBar MenuBarConfig `toml:"menubar"`
	Rehide  RehideConfig  `toml:"rehide"`
	Hotkeys HotkeysConfig `toml:"hotkeys"`
}

// MenuBarConfig contains menu bar geometry and polling settings.
type MenuBarConfig struct {
	TopOffset      float64  `toml:"top_offset"`            // Screen top edge Y coordinate
	RegionHeight   float64  `toml:"region_height"`         // Height of the menu bar region in pixels
	PointerPoll    Duration `toml:"pointer_poll_interval"` // e.g., "100ms"
	PointerCommand string   `toml:"pointer_command"`       // Auto-detected if empty
	UseSystemTray  bool     `toml:"use_system_tray"`       // Back sections with system tray items
}

// RehideConfig contains automatic rehide settings.
type RehideConfig struct {
	Enabled  bool     `toml:"enabled"`
	Strategy string   `toml:"strategy"` // "smart", "timed", "focused-app"
	Interval Duration `toml:"interval"` // e.g., "15s"
}

// HotkeysConfig maps sections to toggle hotkeys. Empty = no hotkey.
type HotkeysConfig struct {
	Visible      string `toml:"visible"`       // e.g., "ctrl+alt+v"
	Hidden       string `toml:"hidden"`        // e.g., "ctrl+alt+h"
	AlwaysHidden string `toml:"always_hidden"` // e.g., "ctrl+alt+a"
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MenuBar: MenuBarConfig{
			TopOffset:    0,
			RegionHeight: 24,
			PointerPoll:  Duration(100 * time.Millisecond),
		},
		Rehide: RehideConfig{
			Enabled:  true,
			Strategy: string(state.RehideStrategyTimed),
			Interval: Duration(15 * time.Second),
		},
		Hotkeys: HotkeysConfig{},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "ice", "ice.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "ice")
}

// SectionsPath returns the path to the persisted sections file.
func SectionsPath() string {
	return filepath.Join(DataPath(), "sections.jsonl")
}

// StatePath returns the path to the shared state file.
func StatePath() string {
	return filepath.Join(DataPath(), "state.json")
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MenuBar.RegionHeight <= 0 {
		return fmt.Errorf("region_height must be positive, got %v", c.MenuBar.RegionHeight)
	}
	if c.MenuBar.PointerPoll.Duration() <= 0 {
		return fmt.Errorf("pointer_poll_interval must be positive, got %v", c.MenuBar.PointerPoll.Duration())
	}

	if _, err := state.ParseRehideStrategy(c.Rehide.Strategy); err != nil {
		return err
	}
	if c.Rehide.Interval.Duration() <= 0 {
		return fmt.Errorf("rehide interval must be positive, got %v", c.Rehide.Interval.Duration())
	}

	if _, err := c.Bindings(); err != nil {
		return err
	}

	return nil
}

// RehideSettings converts the rehide section into runtime settings.
func (c *Config) RehideSettings() state.RehideSettings {
	strategy, err := state.ParseRehideStrategy(c.Rehide.Strategy)
	if err != nil {
		strategy = state.RehideStrategyTimed
	}
	return state.RehideSettings{
		Enabled:  c.Rehide.Enabled,
		Strategy: strategy,
		Interval: c.Rehide.Interval.Duration(),
	}
}

// Bindings parses the configured hotkeys, keyed by section name.
// Sections without a configured hotkey are absent from the map.
func (c *Config) Bindings() (map[string]hotkey.Binding, error) {
	bindings := make(map[string]hotkey.Binding)
	for name, spec := range map[string]string{
		"visible":       c.Hotkeys.Visible,
		"hidden":        c.Hotkeys.Hidden,
		"always-hidden": c.Hotkeys.AlwaysHidden,
	} {
		if spec == "" {
			continue
		}
		b, err := hotkey.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("hotkey for %s section: %w", name, err)
		}
		bindings[name] = b
	}
	return bindings, nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return fmt.Errorf("unable to determine data directory")
	}
	return os.MkdirAll(path, 0700)
}
