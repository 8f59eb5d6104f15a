// Package watch turns host device changes into inventory notifications.
package watch

import (
	"context"
	"sync"
	"time"

	"audioroute/audio"
	"audioroute/log"
)

const DefaultInterval = 3 * time.Second

// Source is anything that can report the current device inventory.
type Source interface {
	Inventory() (audio.Inventory, error)
}

// Monitor polls a Source and publishes the inventory to subscribers
// whenever it differs from the last one published. Hints trigger an
// immediate refresh instead of waiting for the next tick.
type Monitor struct {
	src      Source
	interval time.Duration
	hints    []<-chan struct{}
	refresh  chan struct{}

	mu     sync.Mutex
	subs   map[int]func(audio.Inventory)
	nextID int
	last   *audio.Inventory
}

func NewMonitor(src Source, interval time.Duration, hints ...<-chan struct{}) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		src:      src,
		interval: interval,
		hints:    hints,
		refresh:  make(chan struct{}, 1),
		subs:     map[int]func(audio.Inventory){},
	}
}

// Subscribe registers fn for inventory changes. Subscribers are called
// from the monitor goroutine and must not block.
func (m *Monitor) Subscribe(fn func(audio.Inventory)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Refresh asks the monitor to re-read the inventory now.
func (m *Monitor) Refresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	hint := merge(ctx, m.hints...)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-hint:
		case <-m.refresh:
		}
		m.Check()
	}
}

// Check reads the inventory once and publishes it if it changed. It
// reports whether subscribers were notified.
func (m *Monitor) Check() bool {
	inv, err := m.src.Inventory()
	if err != nil {
		log.Warnf("device inventory refresh failed: %v", err)
		return false
	}

	m.mu.Lock()
	if m.last != nil && m.last.Equal(inv) {
		m.mu.Unlock()
		return false
	}
	c := inv.Clone()
	m.last = &c
	fns := make([]func(audio.Inventory), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(inv.Clone())
	}
	return true
}

// merge returns a channel that receives whenever any source fires.
func merge(ctx context.Context, sources ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{}, 1)
	for _, s := range sources {
		if s == nil {
			continue
		}
		go func(ch <-chan struct{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}(s)
	}
	return out
}
