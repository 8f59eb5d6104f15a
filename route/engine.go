package route

import (
	"fmt"
	"sync"

	"audioroute/audio"
	"audioroute/log"
)

// Notifier delivers host device-inventory changes. The returned function
// cancels the subscription.
type Notifier interface {
	Subscribe(fn func(audio.Inventory)) (unsubscribe func())
}

// Engine owns the host session configuration for one call session. All
// state lives on a single goroutine; public methods post work to it and
// wait for the result, and inventory notifications are folded in before
// the next piece of work runs.
type Engine struct {
	host audio.Session
	bus  bus

	cmds      chan func()
	kick      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	pendMu  sync.Mutex
	pending *audio.Inventory

	unsubMu sync.Mutex
	unsub   func()

	// Owned by run.
	inv       audio.Inventory
	requested Route
	state     State
	applied   *audio.SessionConfig
}

func New(host audio.Session) *Engine {
	e := &Engine{
		host: host,
		cmds: make(chan func()),
		kick: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.done)
	for {
		select {
		case <-e.quit:
			return
		case <-e.kick:
			e.foldPending()
		case fn := <-e.cmds:
			e.foldPending()
			fn()
		}
	}
}

// do runs fn on the engine goroutine and waits for it to finish.
func (e *Engine) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case e.cmds <- func() { fn(); close(finished) }:
	case <-e.quit:
		return ErrClosed
	}
	<-finished
	return nil
}

// Start seeds the inventory from the host, subscribes to n and applies the
// default route when nothing has been requested yet. A failure to apply the
// default is returned but leaves the engine running; the next inventory
// change retries it.
func (e *Engine) Start(n Notifier) error {
	inv, err := e.host.Inventory()
	if err != nil {
		return fmt.Errorf("read device inventory: %w", err)
	}
	e.DeviceInventoryChanged(inv)

	if n != nil {
		e.unsubMu.Lock()
		e.unsub = n.Subscribe(e.DeviceInventoryChanged)
		e.unsubMu.Unlock()
	}

	var applyErr error
	if err := e.do(func() {
		if e.requested == 0 {
			e.requested = BuiltIn
			applyErr = e.apply(CauseStart)
		}
	}); err != nil {
		return err
	}
	return applyErr
}

// HasBluetoothDevice reports whether a paired and connected Bluetooth audio
// device is present.
func (e *Engine) HasBluetoothDevice() bool {
	var has bool
	if err := e.do(func() { has = e.inv.HasBluetooth() }); err != nil {
		return false
	}
	return has
}

// SetAudioRoute records r as the requested route and applies it. Requesting
// Bluetooth without an accessory succeeds with State.Fallback set. A host
// rejection returns an error matching ErrSessionConfiguration and leaves the
// active state as it was.
func (e *Engine) SetAudioRoute(r Route) (State, error) {
	if !r.Valid() {
		return e.State(), fmt.Errorf("%w: %d", ErrInvalidRoute, int(r))
	}
	routeRequestsTotal.WithLabelValues(r.String()).Inc()

	var st State
	var applyErr error
	if err := e.do(func() {
		e.requested = r
		applyErr = e.apply(CauseRequest)
		st = e.state
	}); err != nil {
		return State{}, err
	}
	return st, applyErr
}

// Inventory returns the engine's view of the host devices.
func (e *Engine) Inventory() audio.Inventory {
	var inv audio.Inventory
	if err := e.do(func() { inv = e.inv.Clone() }); err != nil {
		return audio.Inventory{}
	}
	return inv
}

// State returns the route decision in effect. A closed engine reports the
// zero State.
func (e *Engine) State() State {
	var st State
	if err := e.do(func() { st = e.state }); err != nil {
		return State{}
	}
	return st
}

// DeviceInventoryChanged hands the engine a new inventory. It never blocks:
// only the latest inventory is kept until the engine gets to it.
func (e *Engine) DeviceInventoryChanged(inv audio.Inventory) {
	c := inv.Clone()
	e.pendMu.Lock()
	e.pending = &c
	e.pendMu.Unlock()
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) Subscribe(size int) <-chan Event {
	return e.bus.subscribe(size)
}

func (e *Engine) Unsubscribe(ch <-chan Event) {
	e.bus.unsubscribe(ch)
}

// Close drops the notifier subscription and discards the session state.
// Subscriber channels are closed.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.unsubMu.Lock()
		if e.unsub != nil {
			e.unsub()
			e.unsub = nil
		}
		e.unsubMu.Unlock()

		close(e.quit)
		<-e.done
		e.bus.closeAll()
		activeRoute.Set(0)
	})
}

func (e *Engine) foldPending() {
	e.pendMu.Lock()
	inv := e.pending
	e.pending = nil
	e.pendMu.Unlock()
	if inv == nil {
		return
	}

	e.inv = *inv
	inventoryUpdatesTotal.Inc()
	if e.inv.HasBluetooth() {
		bluetoothAvailable.Set(1)
	} else {
		bluetoothAvailable.Set(0)
	}
	log.InventoryChanged(len(e.inv.Devices), e.inv.HasBluetooth())

	if e.requested == 0 {
		return
	}
	if err := e.apply(CauseReconcile); err != nil {
		log.Warnf("reconcile %s route failed, retrying on next device change: %v", e.requested, err)
	}
}

func (e *Engine) apply(cause Cause) error {
	active, cfg := decide(e.requested, e.inv)

	changedHost := false
	if e.applied == nil || *e.applied != cfg || !inEffect(cfg, e.inv) {
		if err := e.host.Apply(cfg); err != nil {
			routeApplyFailuresTotal.WithLabelValues(string(cause)).Inc()
			return &ApplyError{Route: e.requested, Err: err}
		}
		e.applied = &cfg
		if cfg.Output != "" {
			e.inv.DefaultOutput = cfg.Output
		}
		if cfg.Input != "" {
			e.inv.DefaultInput = cfg.Input
		}
		changedHost = true
	}

	next := State{Phase: RouteApplied, Requested: e.requested, Active: active}
	if next == e.state && !changedHost {
		return nil
	}
	e.state = next

	activeRoute.Set(float64(active))
	routeAppliesTotal.WithLabelValues(active.String(), string(cause)).Inc()
	if next.Fallback() {
		routeFallbacksTotal.Inc()
	}
	log.RouteApplied(next.Requested.String(), next.Active.String(), string(cause))
	e.bus.publish(Event{State: next, Cause: cause})
	return nil
}
