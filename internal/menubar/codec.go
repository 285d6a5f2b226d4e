package menubar

import (
	"github.com/john-rice/Ice/internal/controlitem"
	"github.com/john-rice/Ice/internal/hotkey"
)

// SectionRecord is the persisted form of a section. Runtime wiring
// (registry back-reference, hotkey listener, watcher state) is never
// persisted.
type SectionRecord struct {
	Name   string             `json:"name"`
	Item   controlitem.Record `json:"item"`
	Hotkey *hotkey.Record     `json:"hotkey,omitempty"`
}

// Record returns the section's persistable state.
func (s *Section) Record() SectionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := SectionRecord{
		Name: string(s.name),
		Item: s.item.Record(),
	}
	if !s.binding.IsZero() {
		hk := s.binding.Record()
		rec.Hotkey = &hk
	}
	return rec
}
