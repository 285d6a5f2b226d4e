package icedbus

// SectionState is one section's visibility as reported over the bus.
// Marshals as the D-Bus struct (sb).
type SectionState struct {
	Name   string `json:"name" yaml:"name"`
	Hidden bool   `json:"hidden" yaml:"hidden"`
}
