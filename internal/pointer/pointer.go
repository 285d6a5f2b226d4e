// Package pointer delivers global pointer position events independent of
// in-process UI focus. A Source answers one-shot position queries; a
// Monitor polls a Source and pushes events to a handler.
package pointer

import (
	"log/slog"
	"sync"
	"time"
)

// Event is a pointer-moved observation. Coordinates increase downward
// from the top of the screen.
type Event struct {
	// Y is the pointer's global vertical position.
	Y float64
	// ScreenTopY is the top edge of the visible screen.
	ScreenTopY float64
}

// Source answers pointer position queries against the host system.
type Source interface {
	Position() (Event, error)
}

// Handler receives pointer events from a Monitor.
type Handler func(Event)

// Monitor polls a Source on a fixed interval and delivers events to a
// handler. It can be started and stopped repeatedly; both operations are
// idempotent.
type Monitor struct {
	source   Source
	interval time.Duration
	handler  Handler
	logger   *slog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewMonitor creates a Monitor. The handler is invoked from the polling
// goroutine after every successful position query.
func NewMonitor(source Source, interval time.Duration, handler Handler, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:   source,
		interval: interval,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins polling. A running monitor is left untouched.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	go m.poll(stopCh, doneCh)
	m.logger.Debug("pointer monitor started", "interval", m.interval)
}

// Stop halts polling and waits for the poll goroutine to exit. Stopping
// an already-stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	doneCh := m.doneCh
	m.mu.Unlock()

	<-doneCh
	m.logger.Debug("pointer monitor stopped")
}

// Running reports whether the monitor is currently polling.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// poll is the monitor loop.
func (m *Monitor) poll(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ev, err := m.source.Position()
			if err != nil {
				m.logger.Debug("pointer query failed", "error", err)
				continue
			}
			if m.handler != nil {
				m.handler(ev)
			}
		}
	}
}
