package controlitem

import (
	"sync"

	"fyne.io/systray"
)

// SystrayItem is a ControlItem backed by a system tray menu entry. The
// entry carries a checkmark while its section is shown, and clicking it
// requests a toggle through the owning section rather than mutating the
// state directly.
type SystrayItem struct {
	mu       sync.Mutex
	item     *systray.MenuItem
	autosave string
	position int
	state    State
	onChange func(State)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSystrayItem wraps a systray menu item. onClick is invoked for every
// click on the entry; the caller routes it to the owning section's toggle.
func NewSystrayItem(item *systray.MenuItem, autosave string, position int, initial State, onClick func()) *SystrayItem {
	si := &SystrayItem{
		item:     item,
		autosave: autosave,
		position: position,
		state:    initial,
		stopCh:   make(chan struct{}),
	}
	si.applyState(initial)

	go func() {
		for {
			select {
			case _, ok := <-item.ClickedCh:
				if !ok {
					return
				}
				if onClick != nil {
					onClick()
				}
			case <-si.stopCh:
				return
			}
		}
	}()

	return si
}

// State returns the current visibility state.
func (i *SystrayItem) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// SetState transitions the item, updates the tray entry, and notifies
// the observer on change.
func (i *SystrayItem) SetState(s State) {
	i.mu.Lock()
	if i.state == s {
		i.mu.Unlock()
		return
	}
	i.state = s
	fn := i.onChange
	i.mu.Unlock()

	i.applyState(s)
	if fn != nil {
		fn(s)
	}
}

// applyState mirrors the state onto the tray entry's checkmark.
func (i *SystrayItem) applyState(s State) {
	if s == StateShown {
		i.item.Check()
	} else {
		i.item.Uncheck()
	}
}

// Autosave returns the stable persistence identity.
func (i *SystrayItem) Autosave() string {
	return i.autosave
}

// Position returns the item's slot in the menu bar strip.
func (i *SystrayItem) Position() int {
	return i.position
}

// OnStateChange registers the single state-change observer.
func (i *SystrayItem) OnStateChange(fn func(State)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onChange = fn
}

// Record returns the persisted form of the item.
func (i *SystrayItem) Record() Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Record{
		Autosave: i.autosave,
		Position: i.position,
		State:    i.state,
	}
}

// Close stops the click drain goroutine. Safe to call more than once.
func (i *SystrayItem) Close() {
	i.stopOnce.Do(func() {
		close(i.stopCh)
	})
}
