// Package hotkey provides global key-combination bindings for toggling
// menu bar sections. A Binding is the parsed combination, a Registrar
// turns bindings into active Listeners, and the portal registrar backs
// them with the desktop's global shortcuts service.
package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

// Modifier is a bitmask of modifier keys in a binding.
type Modifier uint32

const (
	// ModCtrl is the control key.
	ModCtrl Modifier = 1 << iota
	// ModAlt is the alt/option key.
	ModAlt
	// ModShift is the shift key.
	ModShift
	// ModSuper is the super/command key.
	ModSuper
)

// modifierNames maps canonical names to modifier bits. Aliases accepted
// by Parse are folded into these.
var modifierNames = map[string]Modifier{
	"ctrl":  ModCtrl,
	"alt":   ModAlt,
	"shift": ModShift,
	"super": ModSuper,
}

var modifierAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"opt":     "alt",
	"cmd":     "super",
	"command": "super",
	"win":     "super",
	"meta":    "super",
}

// Binding is a parsed global key combination. Construct via Parse or
// FromRecord so the key name is always normalized.
type Binding struct {
	mods Modifier
	key  string
}

// Parse parses an accelerator string such as "ctrl+alt+h" or
// "super+shift+f13". The final segment is the key; everything before it
// must be a modifier.
func Parse(s string) (Binding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Binding{}, fmt.Errorf("invalid hotkey %q: missing key", s)
	}

	var mods Modifier
	for _, part := range parts[:len(parts)-1] {
		name := strings.TrimSpace(part)
		if alias, ok := modifierAliases[name]; ok {
			name = alias
		}
		mod, ok := modifierNames[name]
		if !ok {
			return Binding{}, fmt.Errorf("invalid hotkey %q: unknown modifier %q", s, part)
		}
		if mods&mod != 0 {
			return Binding{}, fmt.Errorf("invalid hotkey %q: duplicate modifier %q", s, part)
		}
		mods |= mod
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if _, isMod := modifierNames[key]; isMod {
		return Binding{}, fmt.Errorf("invalid hotkey %q: %q cannot be the key", s, key)
	}
	if _, isAlias := modifierAliases[key]; isAlias {
		return Binding{}, fmt.Errorf("invalid hotkey %q: %q cannot be the key", s, key)
	}

	return Binding{mods: mods, key: key}, nil
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.mods }

// Key returns the normalized key name.
func (b Binding) Key() string { return b.key }

// IsZero reports whether the binding is unset.
func (b Binding) IsZero() bool { return b.key == "" }

// String returns the canonical accelerator form, modifiers in a fixed
// order followed by the key.
func (b Binding) String() string {
	if b.IsZero() {
		return ""
	}

	names := make([]string, 0, 5)
	for name, mod := range modifierNames {
		if b.mods&mod != 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return modifierOrder(names[i]) < modifierOrder(names[j])
	})

	return strings.Join(append(names, b.key), "+")
}

func modifierOrder(name string) int {
	switch name {
	case "ctrl":
		return 0
	case "alt":
		return 1
	case "shift":
		return 2
	case "super":
		return 3
	default:
		return 4
	}
}

// Record is the persisted form of a binding.
type Record struct {
	Key       string `json:"key"`
	Modifiers uint32 `json:"modifiers"`
}

// Record returns the persisted form of the binding.
func (b Binding) Record() Record {
	return Record{Key: b.key, Modifiers: uint32(b.mods)}
}

// FromRecord reconstructs a binding from its persisted form.
func FromRecord(rec Record) (Binding, error) {
	if rec.Key == "" {
		return Binding{}, fmt.Errorf("invalid hotkey record: empty key")
	}
	const known = uint32(ModCtrl | ModAlt | ModShift | ModSuper)
	if rec.Modifiers&^known != 0 {
		return Binding{}, fmt.Errorf("invalid hotkey record: unknown modifier bits %#x", rec.Modifiers&^known)
	}
	return Binding{mods: Modifier(rec.Modifiers), key: strings.ToLower(rec.Key)}, nil
}

// Listener is an active hotkey registration. Invalidate stops the
// callback from firing; invalidating twice is a safe no-op.
type Listener interface {
	Invalidate()
}

// Registrar registers global key-down callbacks for bindings.
type Registrar interface {
	// OnKeyDown starts invoking fn on every key-down of the binding
	// until the returned Listener is invalidated.
	OnKeyDown(b Binding, fn func()) (Listener, error)
}
