// Package icedbus exposes the section registry on the session bus.
package icedbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/john-rice/Ice/internal/menubar"
)

const (
	// BusName is the bus name to claim.
	BusName = "com.johnrice.Ice"
	// Path is the menu bar object path.
	Path = "/com/johnrice/Ice"
	// Interface is the menu bar interface name.
	Interface = "com.johnrice.Ice.MenuBar"
)

// Server exports the registry's operations on the session bus.
type Server struct {
	logger   *slog.Logger
	registry *menubar.Registry

	mu      sync.Mutex
	conn    *dbus.Conn
	running bool
}

// NewServer creates a server for registry.
func NewServer(registry *menubar.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		registry: registry,
	}
}

// Start connects to the session bus and exports the menu bar service.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: menuBarMethods(),
				Signals: menuBarSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.running = true
	s.logger.Info("D-Bus server started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name. The shared session connection stays
// open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
	}

	s.logger.Info("D-Bus server stopped")
	return nil
}

// section resolves a section name from the wire, mapping bad names to
// a D-Bus error.
func (s *Server) section(name string) (*menubar.Section, *dbus.Error) {
	parsed, err := menubar.ParseSectionName(name)
	if err != nil {
		return nil, dbus.MakeFailedError(err)
	}
	return s.registry.Section(parsed), nil
}

// ShowSection reveals the named section.
// D-Bus method: ShowSection(s) -> nothing
func (s *Server) ShowSection(name string) *dbus.Error {
	s.logger.Debug("ShowSection called", "section", name)
	section, derr := s.section(name)
	if derr != nil {
		return derr
	}
	section.Show()
	return nil
}

// HideSection conceals the named section.
// D-Bus method: HideSection(s) -> nothing
func (s *Server) HideSection(name string) *dbus.Error {
	s.logger.Debug("HideSection called", "section", name)
	section, derr := s.section(name)
	if derr != nil {
		return derr
	}
	section.Hide()
	return nil
}

// ToggleSection toggles the named section.
// D-Bus method: ToggleSection(s) -> nothing
func (s *Server) ToggleSection(name string) *dbus.Error {
	s.logger.Debug("ToggleSection called", "section", name)
	section, derr := s.section(name)
	if derr != nil {
		return derr
	}
	section.Toggle()
	return nil
}

// SectionHidden reports whether the named section is hidden.
// D-Bus method: SectionHidden(s) -> b
func (s *Server) SectionHidden(name string) (bool, *dbus.Error) {
	section, derr := s.section(name)
	if derr != nil {
		return false, derr
	}
	return section.IsHidden(), nil
}

// ListSections returns all sections and their visibility in display
// order.
// D-Bus method: ListSections() -> a(sb)
func (s *Server) ListSections() ([]SectionState, *dbus.Error) {
	sections := s.registry.Sections()
	out := make([]SectionState, 0, len(sections))
	for _, section := range sections {
		out = append(out, SectionState{
			Name:   string(section.Name()),
			Hidden: section.IsHidden(),
		})
	}
	return out, nil
}

// EmitVisibilityChanged emits the VisibilityChanged signal for ev.
func (s *Server) EmitVisibilityChanged(ev menubar.VisibilityEvent) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := conn.Emit(Path, Interface+".VisibilityChanged", ev.ID, string(ev.Section), ev.Hidden)
	if err != nil {
		return fmt.Errorf("failed to emit VisibilityChanged signal: %w", err)
	}

	s.logger.Debug("emitted VisibilityChanged signal",
		"id", ev.ID, "section", ev.Section, "hidden", ev.Hidden)
	return nil
}

// Connection returns the underlying D-Bus connection.
func (s *Server) Connection() *dbus.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// menuBarMethods returns the D-Bus method introspection data.
func menuBarMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "ShowSection",
			Args: []introspect.Arg{
				{Name: "section", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "HideSection",
			Args: []introspect.Arg{
				{Name: "section", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "ToggleSection",
			Args: []introspect.Arg{
				{Name: "section", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "SectionHidden",
			Args: []introspect.Arg{
				{Name: "section", Type: "s", Direction: "in"},
				{Name: "hidden", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "ListSections",
			Args: []introspect.Arg{
				{Name: "sections", Type: "a(sb)", Direction: "out"},
			},
		},
	}
}

// menuBarSignals returns the D-Bus signal introspection data.
func menuBarSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "VisibilityChanged",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "section", Type: "s"},
				{Name: "hidden", Type: "b"},
			},
		},
	}
}
