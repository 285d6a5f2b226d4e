package hotkey

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
)

const (
	portalBusName   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	shortcutsIface  = "org.freedesktop.portal.GlobalShortcuts"
	requestIface    = "org.freedesktop.portal.Request"
	activatedMember = "Activated"
)

// PortalRegistrar registers global shortcuts through the
// org.freedesktop.portal.GlobalShortcuts desktop portal. Key-down events
// arrive as Activated signals on the session and are dispatched to the
// callback bound for that shortcut id.
type PortalRegistrar struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	session dbus.ObjectPath

	mu        sync.Mutex
	callbacks map[string]func()
	nextID    atomic.Uint32

	signalCh chan *dbus.Signal
	stopCh   chan struct{}
	doneCh   chan struct{}
	closed   bool
}

// NewPortalRegistrar connects to the session bus, creates a shortcuts
// portal session, and starts dispatching Activated signals.
func NewPortalRegistrar(appID string, logger *slog.Logger) (*PortalRegistrar, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	r := &PortalRegistrar{
		conn:      conn,
		logger:    logger,
		callbacks: make(map[string]func()),
		signalCh:  make(chan *dbus.Signal, 16),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	session, err := r.createSession(appID)
	if err != nil {
		return nil, err
	}
	r.session = session

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(shortcutsIface),
		dbus.WithMatchMember(activatedMember),
	); err != nil {
		return nil, fmt.Errorf("failed to subscribe to shortcut activations: %w", err)
	}
	conn.Signal(r.signalCh)
	go r.dispatch()

	logger.Debug("global shortcuts session created", "session", string(session))
	return r, nil
}

// createSession performs the CreateSession request/response handshake.
func (r *PortalRegistrar) createSession(appID string) (dbus.ObjectPath, error) {
	token := fmt.Sprintf("%s_shortcuts", strings.ReplaceAll(appID, ".", "_"))

	respCh := make(chan *dbus.Signal, 4)
	r.conn.Signal(respCh)
	defer r.conn.RemoveSignal(respCh)

	if err := r.conn.AddMatchSignal(
		dbus.WithMatchInterface(requestIface),
		dbus.WithMatchMember("Response"),
	); err != nil {
		return "", fmt.Errorf("failed to subscribe to portal responses: %w", err)
	}
	defer func() {
		_ = r.conn.RemoveMatchSignal(
			dbus.WithMatchInterface(requestIface),
			dbus.WithMatchMember("Response"),
		)
	}()

	portal := r.conn.Object(portalBusName, portalPath)
	var request dbus.ObjectPath
	err := portal.Call(shortcutsIface+".CreateSession", 0, map[string]dbus.Variant{
		"handle_token":         dbus.MakeVariant(token),
		"session_handle_token": dbus.MakeVariant(token),
	}).Store(&request)
	if err != nil {
		return "", fmt.Errorf("failed to create shortcuts session: %w", err)
	}

	for sig := range respCh {
		if sig.Path != request || len(sig.Body) < 2 {
			continue
		}
		code, _ := sig.Body[0].(uint32)
		if code != 0 {
			return "", fmt.Errorf("shortcuts session request denied (code %d)", code)
		}
		results, _ := sig.Body[1].(map[string]dbus.Variant)
		handle, ok := results["session_handle"]
		if !ok {
			return "", fmt.Errorf("shortcuts session response missing handle")
		}
		if path, ok := handle.Value().(string); ok {
			return dbus.ObjectPath(path), nil
		}
		if path, ok := handle.Value().(dbus.ObjectPath); ok {
			return path, nil
		}
		return "", fmt.Errorf("shortcuts session handle has unexpected type")
	}
	return "", fmt.Errorf("portal response channel closed")
}

// OnKeyDown binds the combination with the portal and starts dispatching
// its activations to fn.
func (r *PortalRegistrar) OnKeyDown(b Binding, fn func()) (Listener, error) {
	if b.IsZero() {
		return nil, fmt.Errorf("cannot register an empty hotkey")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("registrar is closed")
	}
	id := fmt.Sprintf("shortcut-%d", r.nextID.Add(1))
	r.callbacks[id] = fn
	r.mu.Unlock()

	shortcut := []shortcutEntry{{
		ID: id,
		Options: map[string]dbus.Variant{
			"description":       dbus.MakeVariant("Toggle menu bar section"),
			"preferred_trigger": dbus.MakeVariant(portalTrigger(b)),
		},
	}}

	portal := r.conn.Object(portalBusName, portalPath)
	call := portal.Call(shortcutsIface+".BindShortcuts", 0,
		r.session, shortcut, "", map[string]dbus.Variant{})
	if call.Err != nil {
		r.mu.Lock()
		delete(r.callbacks, id)
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to bind shortcut %s: %w", b, call.Err)
	}

	r.logger.Debug("hotkey registered", "binding", b.String(), "id", id)
	return &portalListener{registrar: r, id: id}, nil
}

// shortcutEntry is the (sa{sv}) tuple BindShortcuts expects.
type shortcutEntry struct {
	ID      string
	Options map[string]dbus.Variant
}

// portalTrigger renders a binding in the portal's trigger notation.
func portalTrigger(b Binding) string {
	var parts []string
	if b.mods&ModCtrl != 0 {
		parts = append(parts, "CTRL")
	}
	if b.mods&ModAlt != 0 {
		parts = append(parts, "ALT")
	}
	if b.mods&ModShift != 0 {
		parts = append(parts, "SHIFT")
	}
	if b.mods&ModSuper != 0 {
		parts = append(parts, "LOGO")
	}
	return strings.Join(append(parts, b.key), "+")
}

// dispatch routes Activated signals to bound callbacks.
func (r *PortalRegistrar) dispatch() {
	defer close(r.doneCh)

	for {
		select {
		case sig, ok := <-r.signalCh:
			if !ok {
				return
			}
			if sig.Name != shortcutsIface+"."+activatedMember || len(sig.Body) < 2 {
				continue
			}
			id, _ := sig.Body[1].(string)

			r.mu.Lock()
			fn := r.callbacks[id]
			r.mu.Unlock()

			if fn != nil {
				fn()
			}
		case <-r.stopCh:
			return
		}
	}
}

// Close stops signal dispatch and drops all bindings. Safe to call more
// than once.
func (r *PortalRegistrar) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.callbacks = make(map[string]func())
	r.mu.Unlock()

	close(r.stopCh)
	err := r.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(shortcutsIface),
		dbus.WithMatchMember(activatedMember),
	)
	r.conn.RemoveSignal(r.signalCh)
	<-r.doneCh

	// The session bus connection is shared, so it stays open.
	r.logger.Debug("global shortcuts registrar closed")
	return err
}

// portalListener deactivates a single bound shortcut.
type portalListener struct {
	registrar *PortalRegistrar
	id        string

	once sync.Once
}

// Invalidate stops dispatching activations for this shortcut.
func (l *portalListener) Invalidate() {
	l.once.Do(func() {
		l.registrar.mu.Lock()
		delete(l.registrar.callbacks, l.id)
		l.registrar.mu.Unlock()
	})
}
