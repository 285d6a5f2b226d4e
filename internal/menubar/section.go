package menubar

import (
	"log/slog"
	"sync"

	"github.com/john-rice/Ice/internal/controlitem"
	"github.com/john-rice/Ice/internal/hotkey"
)

// Section is one of the three menu bar sections. It owns a control
// item whose state decides the section's visibility, and optionally a
// hotkey that toggles it.
//
// Showing or hiding a section pulls its sibling sections along:
// revealing the hidden section needs the visible section expanded, and
// collapsing the visible section collapses everything behind it.
type Section struct {
	name   SectionName
	logger *slog.Logger

	mu       sync.Mutex
	item     controlitem.ControlItem
	binding  hotkey.Binding
	listener hotkey.Listener
	registry *Registry
	watcher  *RehideWatcher
}

// NewSection creates a section owning item. The section is inert until
// it joins a registry.
func NewSection(name SectionName, item controlitem.ControlItem, logger *slog.Logger) *Section {
	if logger == nil {
		logger = slog.Default()
	}
	return &Section{
		name:   name,
		item:   item,
		logger: logger.With("section", string(name)),
	}
}

// Name returns the section's name.
func (s *Section) Name() SectionName {
	return s.name
}

// IsHidden reports whether the section is hidden. Derived from the
// control item's state so it can never drift from it.
func (s *Section) IsHidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item.State() == controlitem.StateHidden
}

// Binding returns the section's toggle hotkey. Zero if none is set.
func (s *Section) Binding() hotkey.Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding
}

// setRegistry wires the section's back-reference. The reference is
// assign-once: a second assignment is logged and ignored.
func (s *Section) setRegistry(r *Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry != nil {
		s.logger.Warn("section already belongs to a registry, ignoring reassignment")
		return
	}
	s.registry = r
}

// lookup returns the registry, or nil before the section has joined
// one.
func (s *Section) lookup() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry
}

// Show reveals the section. Siblings the reveal depends on are shown
// too:
//
//	visible        -> visible, hidden
//	hidden         -> hidden, visible
//	always-hidden  -> all three
//
// A section that has not joined a registry does nothing.
func (s *Section) Show() {
	r := s.lookup()
	if r == nil {
		return
	}

	switch s.name {
	case SectionVisible:
		s.applyShown()
		r.section(SectionHidden).applyShown()
	case SectionHidden:
		s.applyShown()
		r.section(SectionVisible).applyShown()
	case SectionAlwaysHidden:
		r.section(SectionVisible).applyShown()
		r.section(SectionHidden).applyShown()
		s.applyShown()
	}

	s.armRehide()
}

// Hide conceals the section. Siblings that cannot stay visible without
// it are hidden too:
//
//	visible        -> visible, hidden, always-hidden
//	hidden         -> hidden, visible, always-hidden
//	always-hidden  -> always-hidden only
//
// Hiding always clears the show-on-hover suppression flag. A section
// that has not joined a registry does nothing.
func (s *Section) Hide() {
	r := s.lookup()
	if r == nil {
		return
	}

	switch s.name {
	case SectionVisible:
		s.applyHidden()
		r.section(SectionHidden).applyHidden()
		r.section(SectionAlwaysHidden).applyHidden()
	case SectionHidden:
		s.applyHidden()
		r.section(SectionVisible).applyHidden()
		r.section(SectionAlwaysHidden).applyHidden()
	case SectionAlwaysHidden:
		s.applyHidden()
	}

	r.appState.SetShowOnHoverPrevented(false)
}

// Toggle shows the section if it is hidden and hides it otherwise.
func (s *Section) Toggle() {
	if s.IsHidden() {
		s.Show()
	} else {
		s.Hide()
	}
}

// applyShown transitions the section's own item to shown without
// touching siblings.
func (s *Section) applyShown() {
	s.mu.Lock()
	item := s.item
	s.mu.Unlock()
	item.SetState(controlitem.StateShown)
}

// applyHidden transitions the section's own item to hidden without
// touching siblings, and disarms its rehide watcher.
func (s *Section) applyHidden() {
	s.mu.Lock()
	item := s.item
	watcher := s.watcher
	s.mu.Unlock()

	item.SetState(controlitem.StateHidden)
	if watcher != nil {
		watcher.Stop()
	}
}

// armRehide arms the section's rehide watcher, if it has one. The
// watcher itself decides whether the current settings allow arming.
func (s *Section) armRehide() {
	s.mu.Lock()
	watcher := s.watcher
	s.mu.Unlock()

	if watcher != nil {
		watcher.Arm()
	}
}

// setWatcher attaches the rehide watcher.
func (s *Section) setWatcher(w *RehideWatcher) {
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
}

// handleHotkey toggles the section and records that the user toggled
// it deliberately: a section shown by hotkey should not be re-hidden
// by hover handling, so the suppression flag tracks the shown state.
func (s *Section) handleHotkey() {
	r := s.lookup()
	if r == nil {
		return
	}

	s.Toggle()
	r.appState.SetShowOnHoverPrevented(!s.IsHidden())
}

// AssignHotkey replaces the section's toggle hotkey. Assignment alone
// does not register anything: the binding stays dormant until
// EnableHotkey. Only when a listener is already active is the new
// binding re-registered in its place. A zero binding clears both the
// binding and any registration.
func (s *Section) AssignHotkey(registrar hotkey.Registrar, b hotkey.Binding) error {
	s.mu.Lock()
	wasEnabled := s.listener != nil
	old := s.listener
	s.listener = nil
	s.binding = b
	s.mu.Unlock()

	if old != nil {
		old.Invalidate()
	}
	if b.IsZero() || !wasEnabled {
		return nil
	}
	return s.register(registrar, b)
}

// EnableHotkey registers the section's binding. A section with no
// binding, or one whose listener is already active, is left alone.
func (s *Section) EnableHotkey(registrar hotkey.Registrar) error {
	s.mu.Lock()
	if s.listener != nil || s.binding.IsZero() {
		s.mu.Unlock()
		return nil
	}
	b := s.binding
	s.mu.Unlock()

	return s.register(registrar, b)
}

// DisableHotkey releases the listener but keeps the binding, so a
// later EnableHotkey restores it. Safe to call when already disabled.
func (s *Section) DisableHotkey() {
	s.mu.Lock()
	old := s.listener
	s.listener = nil
	s.mu.Unlock()

	if old != nil {
		old.Invalidate()
	}
}

// HotkeyEnabled reports whether a listener is currently active.
func (s *Section) HotkeyEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// register registers b with the registrar and stores the listener.
func (s *Section) register(registrar hotkey.Registrar, b hotkey.Binding) error {
	listener, err := registrar.OnKeyDown(b, s.handleHotkey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

// Invalidate releases the section's hotkey registration and disarms
// its watcher. Safe to call repeatedly.
func (s *Section) Invalidate() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	watcher := s.watcher
	s.mu.Unlock()

	if listener != nil {
		listener.Invalidate()
	}
	if watcher != nil {
		watcher.Stop()
	}
}
