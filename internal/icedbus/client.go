package icedbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls the daemon's menu bar interface over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus and targets the daemon's
// object. It does not verify the daemon is running; the first call
// will fail if it is not.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, Path),
	}, nil
}

// ShowSection reveals the named section.
func (c *Client) ShowSection(name string) error {
	return c.call("ShowSection", name)
}

// HideSection conceals the named section.
func (c *Client) HideSection(name string) error {
	return c.call("HideSection", name)
}

// ToggleSection toggles the named section.
func (c *Client) ToggleSection(name string) error {
	return c.call("ToggleSection", name)
}

// SectionHidden reports whether the named section is hidden.
func (c *Client) SectionHidden(name string) (bool, error) {
	var hidden bool
	call := c.obj.Call(Interface+".SectionHidden", 0, name)
	if call.Err != nil {
		return false, fmt.Errorf("SectionHidden: %w", call.Err)
	}
	if err := call.Store(&hidden); err != nil {
		return false, fmt.Errorf("SectionHidden: %w", err)
	}
	return hidden, nil
}

// ListSections returns all sections and their visibility in display
// order.
func (c *Client) ListSections() ([]SectionState, error) {
	var sections []SectionState
	call := c.obj.Call(Interface+".ListSections", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("ListSections: %w", call.Err)
	}
	if err := call.Store(&sections); err != nil {
		return nil, fmt.Errorf("ListSections: %w", err)
	}
	return sections, nil
}

// VisibilityChange is a VisibilityChanged signal received from the
// daemon.
type VisibilityChange struct {
	ID      string
	Section string
	Hidden  bool
}

// WatchVisibility subscribes to VisibilityChanged signals. The
// returned stop function removes the subscription and closes the
// channel.
func (c *Client) WatchVisibility() (<-chan VisibilityChange, func(), error) {
	match := []dbus.MatchOption{
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchMember("VisibilityChanged"),
	}
	if err := c.conn.AddMatchSignal(match...); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to signals: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	out := make(chan VisibilityChange, 16)
	go func() {
		defer close(out)
		for sig := range signals {
			if sig.Name != Interface+".VisibilityChanged" || len(sig.Body) != 3 {
				continue
			}
			id, ok1 := sig.Body[0].(string)
			section, ok2 := sig.Body[1].(string)
			hidden, ok3 := sig.Body[2].(bool)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			out <- VisibilityChange{ID: id, Section: section, Hidden: hidden}
		}
	}()

	stop := func() {
		c.conn.RemoveMatchSignal(match...)
		c.conn.RemoveSignal(signals)
		close(signals)
	}
	return out, stop, nil
}

// call invokes a method that returns nothing.
func (c *Client) call(method string, args ...interface{}) error {
	if call := c.obj.Call(Interface+"."+method, 0, args...); call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}
	return nil
}
