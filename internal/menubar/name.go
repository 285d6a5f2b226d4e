package menubar

import "fmt"

// SectionName identifies one of the three menu bar sections.
type SectionName string

const (
	// SectionVisible holds items that are always visible.
	SectionVisible SectionName = "visible"
	// SectionHidden holds items hidden behind the main divider.
	SectionHidden SectionName = "hidden"
	// SectionAlwaysHidden holds items that stay hidden unless
	// explicitly revealed.
	SectionAlwaysHidden SectionName = "always-hidden"
)

// SectionNames returns all section names in display order.
func SectionNames() []SectionName {
	return []SectionName{SectionVisible, SectionHidden, SectionAlwaysHidden}
}

// ParseSectionName parses a section name.
func ParseSectionName(s string) (SectionName, error) {
	switch SectionName(s) {
	case SectionVisible, SectionHidden, SectionAlwaysHidden:
		return SectionName(s), nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// String returns the section name as a string.
func (n SectionName) String() string {
	return string(n)
}
