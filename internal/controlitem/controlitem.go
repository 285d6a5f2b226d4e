// Package controlitem models the addressable menu bar affordances that
// sections own. The real OS-level rendering lives outside this process; an
// item here is the two-valued state, the stable identity used for
// persistence, and a state-change notification hook.
package controlitem

import (
	"fmt"
	"sync"
)

// State is the two-valued visibility state of a control item.
type State int

const (
	// StateShown means the item is visible in the menu bar.
	StateShown State = iota
	// StateHidden means the item is hidden from the menu bar.
	StateHidden
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateShown:
		return "shown"
	case StateHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// ParseState parses a state string as produced by String.
func ParseState(s string) (State, error) {
	switch s {
	case "shown":
		return StateShown, nil
	case "hidden":
		return StateHidden, nil
	default:
		return StateShown, fmt.Errorf("invalid control item state %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s != StateShown && s != StateHidden {
		return nil, fmt.Errorf("invalid control item state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ControlItem is an individually show/hide-able menu bar affordance.
// A section is the only writer of its item's state; everyone else reads.
type ControlItem interface {
	// State returns the current visibility state.
	State() State

	// SetState transitions the item to the given state. Setting the
	// current state again is a no-op and does not notify.
	SetState(State)

	// Autosave returns the stable identity used for persistence and for
	// the host system's position memory.
	Autosave() string

	// Position returns the item's slot in the menu bar strip.
	Position() int

	// OnStateChange registers the observer invoked after every effective
	// state transition. Only one observer is supported; the owning
	// section registers itself here.
	OnStateChange(fn func(State))

	// Record returns the item's persistable state.
	Record() Record
}

// Record is the opaque persisted form of a control item.
type Record struct {
	Autosave string `json:"autosave"`
	Position int    `json:"position"`
	State    State  `json:"state"`
}

// MemoryItem is an in-process ControlItem implementation. It backs
// sections when no host menu bar surface is attached, and all tests.
type MemoryItem struct {
	mu       sync.Mutex
	autosave string
	position int
	state    State
	onChange func(State)
}

// NewMemoryItem creates a MemoryItem in the shown state.
func NewMemoryItem(autosave string, position int) *MemoryItem {
	return &MemoryItem{
		autosave: autosave,
		position: position,
		state:    StateShown,
	}
}

// RestoreMemoryItem creates a MemoryItem from a persisted record.
func RestoreMemoryItem(rec Record) *MemoryItem {
	return &MemoryItem{
		autosave: rec.Autosave,
		position: rec.Position,
		state:    rec.State,
	}
}

// State returns the current visibility state.
func (i *MemoryItem) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// SetState transitions the item and notifies the observer on change.
func (i *MemoryItem) SetState(s State) {
	i.mu.Lock()
	if i.state == s {
		i.mu.Unlock()
		return
	}
	i.state = s
	fn := i.onChange
	i.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// Autosave returns the stable persistence identity.
func (i *MemoryItem) Autosave() string {
	return i.autosave
}

// Position returns the item's slot in the menu bar strip.
func (i *MemoryItem) Position() int {
	return i.position
}

// OnStateChange registers the single state-change observer.
func (i *MemoryItem) OnStateChange(fn func(State)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onChange = fn
}

// Record returns the persisted form of the item.
func (i *MemoryItem) Record() Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Record{
		Autosave: i.autosave,
		Position: i.position,
		State:    i.state,
	}
}
