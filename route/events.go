package route

import "sync"

type Cause string

const (
	CauseStart     Cause = "start"
	CauseRequest   Cause = "request"
	CauseReconcile Cause = "reconcile"
)

// Event is published after every successful apply that changed the host
// configuration.
type Event struct {
	State State
	Cause Cause
}

// bus fans events out to subscribers without blocking the engine.
type bus struct {
	mu   sync.Mutex
	subs []chan Event
}

func (b *bus) subscribe(size int) chan Event {
	ch := make(chan Event, size)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *bus) unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s)
			return
		}
	}
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscribers miss events rather than stall the engine.
		}
	}
}

func (b *bus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
