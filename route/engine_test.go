package route

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioroute/audio"
)

type fakeNotifier struct {
	mu   sync.Mutex
	subs map[int]func(audio.Inventory)
	next int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{subs: map[int]func(audio.Inventory){}}
}

func (n *fakeNotifier) Subscribe(fn func(audio.Inventory)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *fakeNotifier) publish(inv audio.Inventory) {
	n.mu.Lock()
	fns := make([]func(audio.Inventory), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(inv)
	}
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func startEngine(t *testing.T, host *audio.FakeSession) (*Engine, *fakeNotifier) {
	t.Helper()
	n := newFakeNotifier()
	e := New(host)
	t.Cleanup(e.Close)
	require.NoError(t, e.Start(n))
	return e, n
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for route event")
	}
	return Event{}
}

func TestStartAppliesBuiltInDefault(t *testing.T) {
	host := audio.NewFakeSession()
	e := New(host)
	defer e.Close()

	assert.Equal(t, State{}, e.State())
	require.NoError(t, e.Start(nil))

	st := e.State()
	assert.Equal(t, RouteApplied, st.Phase)
	assert.Equal(t, BuiltIn, st.Requested)
	assert.Equal(t, BuiltIn, st.Active)
}

func TestSetAudioRouteBeforeStart(t *testing.T) {
	host := audio.NewFakeSession()
	e := New(host)
	defer e.Close()

	st, err := e.SetAudioRoute(Speaker)
	require.NoError(t, err)
	assert.Equal(t, RouteApplied, st.Phase)
	assert.Equal(t, Speaker, st.Active)

	// Start must not override an explicit request with the default.
	require.NoError(t, e.Start(nil))
	assert.Equal(t, Speaker, e.State().Active)
}

func TestHasBluetoothMatchesInventory(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)

	assert.False(t, e.HasBluetoothDevice())

	n.publish(host.ConnectHeadset())
	assert.True(t, e.HasBluetoothDevice())

	inv := host.ConnectHeadset()
	for i := range inv.Devices {
		if inv.Devices[i].Category == audio.CategoryBluetooth {
			inv.Devices[i].Connected = false
		}
	}
	n.publish(inv)
	assert.False(t, e.HasBluetoothDevice(), "discoverable-only accessory must not count")

	n.publish(host.DisconnectHeadset())
	assert.False(t, e.HasBluetoothDevice())
}

func TestBluetoothAvailableImpliesRealizable(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)

	inv, _ := host.Inventory()
	inv.Devices = append(inv.Devices, audio.Device{
		ID: "bt-mic", Name: "Lapel mic", Direction: audio.Input, Category: audio.CategoryBluetooth, Connected: true,
	})
	n.publish(inv)
	require.True(t, e.HasBluetoothDevice())

	st, err := e.SetAudioRoute(Bluetooth)
	require.NoError(t, err)
	assert.Equal(t, Bluetooth, st.Active)
	assert.False(t, st.Fallback())
	assert.Equal(t, audio.SessionConfig{Output: audio.FakeEarpiece, Input: "bt-mic", Bluetooth: true},
		host.Applied()[len(host.Applied())-1])
}

func TestSetRouteDoesNotChangeInventory(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)
	n.publish(host.ConnectHeadset())

	before := e.HasBluetoothDevice()
	_, err := e.SetAudioRoute(BuiltIn)
	require.NoError(t, err)
	assert.Equal(t, before, e.HasBluetoothDevice())
}

func TestIdempotentSetAudioRoute(t *testing.T) {
	host := audio.NewFakeSession()
	e, _ := startEngine(t, host)

	first, err := e.SetAudioRoute(Speaker)
	require.NoError(t, err)
	applied := len(host.Applied())

	second, err := e.SetAudioRoute(Speaker)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, host.Applied(), applied, "repeating a route must not touch the host again")
}

func TestBluetoothFallbackLaw(t *testing.T) {
	host := audio.NewFakeSession()
	e, _ := startEngine(t, host)

	builtin, err := e.SetAudioRoute(BuiltIn)
	require.NoError(t, err)
	builtinCfg := host.Applied()[len(host.Applied())-1]

	_, err = e.SetAudioRoute(Speaker)
	require.NoError(t, err)

	st, err := e.SetAudioRoute(Bluetooth)
	require.NoError(t, err, "missing accessory is a fallback, not a failure")
	assert.Equal(t, builtin.Active, st.Active)
	assert.Equal(t, Bluetooth, st.Requested)
	assert.True(t, st.Fallback())
	assert.Equal(t, builtinCfg, host.Applied()[len(host.Applied())-1])
	assert.False(t, e.HasBluetoothDevice())
}

func TestScenarioBluetoothThenRemoval(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)
	events := e.Subscribe(8)

	n.publish(host.ConnectHeadset())
	st, err := e.SetAudioRoute(Bluetooth)
	require.NoError(t, err)
	assert.Equal(t, Bluetooth, st.Active)
	assert.False(t, st.Fallback())
	assert.Equal(t, CauseRequest, waitEvent(t, events).Cause)

	// Reconciliation law: no explicit call needed after the accessory goes.
	n.publish(host.DisconnectHeadset())
	ev := waitEvent(t, events)
	assert.Equal(t, CauseReconcile, ev.Cause)
	assert.Equal(t, BuiltIn, ev.State.Active)
	assert.Equal(t, Bluetooth, ev.State.Requested)
	assert.Equal(t, BuiltIn, e.State().Active)

	// The request is retained, so the accessory coming back restores it.
	n.publish(host.ConnectHeadset())
	ev = waitEvent(t, events)
	assert.Equal(t, Bluetooth, ev.State.Active)
	assert.Equal(t, audio.FakeHeadset, host.Applied()[len(host.Applied())-1].Output)
}

func TestInvalidRouteRejectedBeforeHost(t *testing.T) {
	host := audio.NewFakeSession()
	e, _ := startEngine(t, host)
	before := e.State()
	applied := len(host.Applied())

	_, err := e.SetAudioRoute(Route(42))
	assert.ErrorIs(t, err, ErrInvalidRoute)
	assert.Equal(t, before, e.State())
	assert.Len(t, host.Applied(), applied)
}

func TestSessionConfigurationFailureKeepsState(t *testing.T) {
	host := audio.NewFakeSession()
	e, _ := startEngine(t, host)
	before := e.State()

	host.FailNext(1)
	_, err := e.SetAudioRoute(Speaker)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionConfiguration)
	assert.ErrorIs(t, err, audio.ErrFakeRejected)
	var ae *ApplyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, Speaker, ae.Route)
	assert.Equal(t, before, e.State())

	// A later attempt goes through.
	st, err := e.SetAudioRoute(Speaker)
	require.NoError(t, err)
	assert.Equal(t, Speaker, st.Active)
}

func TestReconcileFailureRetriedOnNextNotification(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)
	n.publish(host.ConnectHeadset())
	_, err := e.SetAudioRoute(Bluetooth)
	require.NoError(t, err)

	host.FailNext(1)
	n.publish(host.DisconnectHeadset())
	assert.Equal(t, Bluetooth, e.State().Active, "failed reconcile keeps prior state")

	inv, _ := host.Inventory()
	n.publish(inv)
	assert.Equal(t, BuiltIn, e.State().Active)
}

func TestHostDriftIsReverted(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)
	_, err := e.SetAudioRoute(BuiltIn)
	require.NoError(t, err)
	applied := len(host.Applied())

	// The OS moves output to the speaker on its own.
	n.publish(host.SetDefaults(audio.FakeSpeaker, audio.FakeMic))
	require.Len(t, host.Applied(), applied+1)
	assert.Equal(t, audio.FakeEarpiece, host.Applied()[applied].Output)
	assert.Equal(t, BuiltIn, e.State().Active)
}

func TestUnrelatedInventoryChangeIsNoop(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)
	_, err := e.SetAudioRoute(Speaker)
	require.NoError(t, err)
	applied := len(host.Applied())

	n.publish(host.ConnectHeadset())
	assert.Len(t, host.Applied(), applied)
	assert.Equal(t, Speaker, e.State().Active)
}

func TestCloseUnsubscribesAndDiscardsState(t *testing.T) {
	host := audio.NewFakeSession()
	n := newFakeNotifier()
	e := New(host)
	require.NoError(t, e.Start(n))
	events := e.Subscribe(1)
	assert.Equal(t, 1, n.count())

	e.Close()
	e.Close()
	assert.Equal(t, 0, n.count())
	assert.Equal(t, State{}, e.State())
	assert.False(t, e.HasBluetoothDevice())
	_, err := e.SetAudioRoute(Speaker)
	assert.ErrorIs(t, err, ErrClosed)

	_, open := <-events
	assert.False(t, open, "subscriber channel should be closed")
}

func TestStartFailsWhenDefaultRejected(t *testing.T) {
	host := audio.NewFakeSession()
	host.FailNext(1)
	n := newFakeNotifier()
	e := New(host)
	defer e.Close()

	err := e.Start(n)
	assert.ErrorIs(t, err, ErrSessionConfiguration)
	assert.Equal(t, Uninitialized, e.State().Phase)

	// The next inventory change retries the default.
	inv, _ := host.Inventory()
	n.publish(inv)
	assert.Equal(t, RouteApplied, e.State().Phase)
	assert.Equal(t, BuiltIn, e.State().Active)
}

func TestConcurrentRequestsAndNotifications(t *testing.T) {
	host := audio.NewFakeSession()
	e, n := startEngine(t, host)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r := []Route{BuiltIn, Speaker, Bluetooth}[j%3]
				_, err := e.SetAudioRoute(r)
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%2 == 0 {
					n.publish(host.ConnectHeadset())
				} else {
					n.publish(host.DisconnectHeadset())
				}
			}
		}()
	}
	wg.Wait()

	// Whatever the interleaving, the active route must be supportable.
	st := e.State()
	if st.Active == Bluetooth {
		assert.True(t, e.HasBluetoothDevice())
	}
}
