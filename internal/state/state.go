// Package state holds runtime flags shared across the daemon and the
// persisted state file shared between the daemon and the CLI.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RehideStrategy selects how the automatic rehide decision is made.
type RehideStrategy string

const (
	// RehideStrategySmart rehides based on interaction heuristics.
	RehideStrategySmart RehideStrategy = "smart"
	// RehideStrategyTimed rehides after a fixed interval once the
	// pointer leaves the menu bar region. Only this strategy arms the
	// rehide watcher.
	RehideStrategyTimed RehideStrategy = "timed"
	// RehideStrategyFocusedApp rehides when the focused application
	// changes.
	RehideStrategyFocusedApp RehideStrategy = "focused-app"
)

// ParseRehideStrategy parses a strategy name.
func ParseRehideStrategy(s string) (RehideStrategy, error) {
	switch RehideStrategy(s) {
	case RehideStrategySmart, RehideStrategyTimed, RehideStrategyFocusedApp:
		return RehideStrategy(s), nil
	}
	return "", fmt.Errorf("unknown rehide strategy %q", s)
}

// RehideSettings is the snapshot of rehide configuration the watcher
// consults every time a section is shown.
type RehideSettings struct {
	Enabled  bool
	Strategy RehideStrategy
	Interval time.Duration
}

// AppState holds the daemon's in-memory interaction flags and the
// current rehide settings. Safe for concurrent use.
type AppState struct {
	mu sync.RWMutex

	showOnHoverPrevented bool
	rehide               RehideSettings
}

// NewAppState creates an AppState with the given rehide settings.
func NewAppState(rehide RehideSettings) *AppState {
	return &AppState{rehide: rehide}
}

// ShowOnHoverPrevented reports whether show-on-hover is currently
// suppressed by an explicit user interaction.
func (a *AppState) ShowOnHoverPrevented() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.showOnHoverPrevented
}

// SetShowOnHoverPrevented sets the show-on-hover suppression flag.
func (a *AppState) SetShowOnHoverPrevented(prevented bool) {
	a.mu.Lock()
	a.showOnHoverPrevented = prevented
	a.mu.Unlock()
}

// Rehide returns the current rehide settings.
func (a *AppState) Rehide() RehideSettings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rehide
}

// SetRehide replaces the rehide settings. Takes effect the next time a
// section is shown.
func (a *AppState) SetRehide(settings RehideSettings) {
	a.mu.Lock()
	a.rehide = settings
	a.mu.Unlock()
}

// CurrentSchemaVersion is the current version of the state file schema.
const CurrentSchemaVersion = 1

// SharedState is the state shared between the daemon and CLI clients,
// persisted to state.json in the data directory.
type SharedState struct {
	// Per-section visibility, keyed by section name.
	Hidden map[string]bool `json:"hidden"`

	// Unix timestamps of the last visibility change per section.
	ChangedAt map[string]int64 `json:"changed_at,omitempty"`

	SchemaVersion int `json:"schema_version"`
}

// stateFileMutex protects concurrent access to the state file.
var stateFileMutex sync.RWMutex

// DefaultSharedState returns a new SharedState with default values.
func DefaultSharedState() *SharedState {
	return &SharedState{
		Hidden:        make(map[string]bool),
		ChangedAt:     make(map[string]int64),
		SchemaVersion: CurrentSchemaVersion,
	}
}

// LoadSharedState loads the shared state from path.
// A missing or corrupted file yields a default state.
func LoadSharedState(path string) (*SharedState, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSharedState(), nil
		}
		return nil, err
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultSharedState(), nil
	}

	if state.Hidden == nil {
		state.Hidden = make(map[string]bool)
	}
	if state.ChangedAt == nil {
		state.ChangedAt = make(map[string]int64)
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	return &state, nil
}

// SaveSharedState saves the shared state to path atomically.
func SaveSharedState(path string, state *SharedState) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// SetHidden records a section's visibility and stamps the change time.
func (s *SharedState) SetHidden(section string, hidden bool) {
	s.Hidden[section] = hidden
	s.ChangedAt[section] = time.Now().Unix()
}
