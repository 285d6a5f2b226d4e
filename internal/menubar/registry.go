// Package menubar coordinates the visibility of the three menu bar
// sections and their control items.
package menubar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/john-rice/Ice/internal/controlitem"
	"github.com/john-rice/Ice/internal/hotkey"
	"github.com/john-rice/Ice/internal/pointer"
	"github.com/john-rice/Ice/internal/state"
)

// ItemFactory builds a control item from its persisted record.
type ItemFactory func(controlitem.Record) (controlitem.ControlItem, error)

// defaultItemFactory restores plain in-memory control items.
func defaultItemFactory(rec controlitem.Record) (controlitem.ControlItem, error) {
	return controlitem.RestoreMemoryItem(rec), nil
}

// Config wires a Registry.
type Config struct {
	Logger *slog.Logger
	State  *state.AppState

	// ItemFactory builds control items. Nil means in-memory items.
	ItemFactory ItemFactory

	// PointerSource enables the timed rehide watchers. Nil disables
	// them.
	PointerSource pointer.Source
	PointerPoll   time.Duration
	RegionHeight  float64
}

// Registry owns the three sections in display order and fans their
// visibility changes out to subscribers.
type Registry struct {
	logger   *slog.Logger
	appState *state.AppState
	sections map[SectionName]*Section
	pub      *publisher
}

// NewRegistry creates a registry with the three sections in their
// default state (everything shown, no hotkeys).
func NewRegistry(cfg Config) (*Registry, error) {
	records := make([]SectionRecord, 0, len(SectionNames()))
	for i, name := range SectionNames() {
		records = append(records, SectionRecord{
			Name: string(name),
			Item: controlitem.Record{
				Autosave: "ice-" + string(name),
				Position: i,
				State:    controlitem.StateShown,
			},
		})
	}
	return RestoreRegistry(records, cfg)
}

// RestoreRegistry rebuilds a registry from persisted section records.
// Every control item is built through the factory so the persisted
// state lands in a freshly constructed item. A record with an unknown
// section name is an error; a section missing from records starts in
// its default state.
func RestoreRegistry(records []SectionRecord, cfg Config) (*Registry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.State == nil {
		cfg.State = state.NewAppState(state.RehideSettings{})
	}
	factory := cfg.ItemFactory
	if factory == nil {
		factory = defaultItemFactory
	}

	byName := make(map[SectionName]SectionRecord, len(records))
	for _, rec := range records {
		name, err := ParseSectionName(rec.Name)
		if err != nil {
			return nil, err
		}
		if _, ok := byName[name]; ok {
			return nil, fmt.Errorf("duplicate section %q", rec.Name)
		}
		byName[name] = rec
	}

	r := &Registry{
		logger:   logger,
		appState: cfg.State,
		sections: make(map[SectionName]*Section, len(SectionNames())),
		pub:      newPublisher(),
	}

	for i, name := range SectionNames() {
		rec, ok := byName[name]
		if !ok {
			rec = SectionRecord{
				Name: string(name),
				Item: controlitem.Record{
					Autosave: "ice-" + string(name),
					Position: i,
					State:    controlitem.StateShown,
				},
			}
		}

		item, err := factory(rec.Item)
		if err != nil {
			return nil, fmt.Errorf("restore %s section: %w", name, err)
		}

		section := NewSection(name, item, logger)
		if rec.Hotkey != nil {
			b, err := hotkey.FromRecord(*rec.Hotkey)
			if err != nil {
				return nil, fmt.Errorf("restore %s section hotkey: %w", name, err)
			}
			// Restored bindings are dormant until a registrar enables
			// them, so no registrar is needed here.
			if err := section.AssignHotkey(nil, b); err != nil {
				return nil, fmt.Errorf("restore %s section hotkey: %w", name, err)
			}
		}

		section.setRegistry(r)
		r.sections[name] = section

		// Publish every item state change as a visibility event.
		sectionName := name
		item.OnStateChange(func(st controlitem.State) {
			r.pub.publish(newVisibilityEvent(sectionName, st == controlitem.StateHidden))
		})

		if cfg.PointerSource != nil {
			poll := cfg.PointerPoll
			if poll <= 0 {
				poll = 100 * time.Millisecond
			}
			section.setWatcher(NewRehideWatcher(
				cfg.PointerSource, poll, cfg.RegionHeight, cfg.State, section.Hide, logger,
			))
		}
	}

	return r, nil
}

// Section returns the named section, or nil for an unknown name.
func (r *Registry) Section(name SectionName) *Section {
	return r.sections[name]
}

// section is Section without the nil ambiguity for internal callers
// that only pass known names.
func (r *Registry) section(name SectionName) *Section {
	return r.sections[name]
}

// Sections returns the sections in display order.
func (r *Registry) Sections() []*Section {
	out := make([]*Section, 0, len(SectionNames()))
	for _, name := range SectionNames() {
		out = append(out, r.sections[name])
	}
	return out
}

// Records returns the persistable state of all sections in display
// order.
func (r *Registry) Records() []SectionRecord {
	out := make([]SectionRecord, 0, len(SectionNames()))
	for _, s := range r.Sections() {
		out = append(out, s.Record())
	}
	return out
}

// Subscribe returns a channel of visibility events and a cancel
// function. Events are dropped rather than delivered late to slow
// subscribers.
func (r *Registry) Subscribe() (<-chan VisibilityEvent, func()) {
	return r.pub.subscribe()
}

// EnableHotkeys activates every section's current binding. Used after
// restoring sections whose records carried a hotkey.
func (r *Registry) EnableHotkeys(registrar hotkey.Registrar) error {
	for _, s := range r.Sections() {
		if err := s.EnableHotkey(registrar); err != nil {
			return fmt.Errorf("bind hotkey for %s section: %w", s.Name(), err)
		}
	}
	return nil
}

// ApplyBindings reconciles section hotkeys against bindings keyed by
// section name and activates them. Sections absent from the map lose
// their hotkey.
func (r *Registry) ApplyBindings(registrar hotkey.Registrar, bindings map[string]hotkey.Binding) error {
	for _, s := range r.Sections() {
		want := bindings[string(s.Name())]
		if want != s.Binding() {
			if err := s.AssignHotkey(registrar, want); err != nil {
				return fmt.Errorf("bind hotkey for %s section: %w", s.Name(), err)
			}
		}
		if err := s.EnableHotkey(registrar); err != nil {
			return fmt.Errorf("bind hotkey for %s section: %w", s.Name(), err)
		}
	}
	return nil
}

// Close releases hotkey registrations and stops any armed watchers.
func (r *Registry) Close() {
	for _, s := range r.Sections() {
		s.Invalidate()
	}
}
