package menubar

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// VisibilityEvent describes a single section visibility change.
type VisibilityEvent struct {
	ID      string
	Section SectionName
	Hidden  bool
	Time    time.Time
}

// newVisibilityEvent stamps a change with a unique, sortable ID.
func newVisibilityEvent(section SectionName, hidden bool) VisibilityEvent {
	return VisibilityEvent{
		ID:      ulid.Make().String(),
		Section: section,
		Hidden:  hidden,
		Time:    time.Now(),
	}
}

// publisher fans visibility events out to subscribers.
type publisher struct {
	mu   sync.Mutex
	subs map[chan VisibilityEvent]struct{}
}

func newPublisher() *publisher {
	return &publisher{subs: make(map[chan VisibilityEvent]struct{})}
}

// subscribe returns a buffered event channel and a cancel function.
func (p *publisher) subscribe() (<-chan VisibilityEvent, func()) {
	ch := make(chan VisibilityEvent, 16)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

// publish delivers ev to all subscribers. Slow subscribers drop events
// rather than blocking the caller.
func (p *publisher) publish(ev VisibilityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
