package menubar

import (
	"log/slog"
	"sync"
	"time"

	"github.com/john-rice/Ice/internal/pointer"
	"github.com/john-rice/Ice/internal/state"
)

// rehidePhase is the rehide watcher's lifecycle phase.
type rehidePhase int

const (
	// phaseIdle means the watcher is disarmed.
	phaseIdle rehidePhase = iota
	// phaseWatching means the pointer is being tracked but is still
	// inside the menu bar region.
	phaseWatching
	// phaseCountdown means the pointer left the region and the rehide
	// timer is running.
	phaseCountdown
)

// RehideWatcher hides a section again after the pointer has stayed out
// of the menu bar region for the configured interval. It is armed each
// time the section is shown and disarmed when the section hides.
type RehideWatcher struct {
	source pointer.Source
	region float64
	app    *state.AppState
	hide   func()
	logger *slog.Logger

	mu      sync.Mutex
	phase   rehidePhase
	monitor *pointer.Monitor
	timer   *time.Timer
}

// NewRehideWatcher creates a watcher that calls hide when the rehide
// countdown expires.
func NewRehideWatcher(source pointer.Source, poll time.Duration, region float64, app *state.AppState, hide func(), logger *slog.Logger) *RehideWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &RehideWatcher{
		source: source,
		region: region,
		app:    app,
		hide:   hide,
		logger: logger,
	}
	w.monitor = pointer.NewMonitor(source, poll, w.handleEvent, logger)
	return w
}

// Arm starts watching the pointer. The rehide settings are consulted
// fresh on every call: the watcher only arms when rehide is enabled and
// the strategy is timed, otherwise any previous arming is cancelled.
func (w *RehideWatcher) Arm() {
	settings := w.app.Rehide()
	if !settings.Enabled || settings.Strategy != state.RehideStrategyTimed {
		w.Stop()
		return
	}

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.phase = phaseWatching
	w.mu.Unlock()

	w.monitor.Start()
}

// Stop disarms the watcher. Safe to call at any time, repeatedly.
func (w *RehideWatcher) Stop() {
	w.mu.Lock()
	w.phase = phaseIdle
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.monitor.Stop()
}

// Armed reports whether the watcher is currently tracking the pointer.
func (w *RehideWatcher) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase != phaseIdle
}

func (w *RehideWatcher) inRegion(ev pointer.Event) bool {
	return ev.Y <= ev.ScreenTopY+w.region
}

func (w *RehideWatcher) handleEvent(ev pointer.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.phase {
	case phaseWatching:
		if !w.inRegion(ev) {
			interval := w.app.Rehide().Interval
			w.phase = phaseCountdown
			w.timer = time.AfterFunc(interval, w.expire)
			w.logger.Debug("rehide countdown started", "interval", interval)
		}
	case phaseCountdown:
		if w.inRegion(ev) {
			w.timer.Stop()
			w.timer = nil
			w.phase = phaseWatching
			w.logger.Debug("rehide countdown cancelled, pointer back in region")
		}
	}
}

// expire runs when the countdown timer fires.
func (w *RehideWatcher) expire() {
	// Check the pointer one last time: a late re-entry wins over the
	// timer.
	inside := false
	if ev, err := w.source.Position(); err == nil {
		inside = w.inRegion(ev)
	}

	w.mu.Lock()
	if w.phase != phaseCountdown {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	if inside {
		w.phase = phaseWatching
		w.mu.Unlock()
		return
	}
	w.phase = phaseIdle
	w.mu.Unlock()

	w.monitor.Stop()
	w.hide()
}
