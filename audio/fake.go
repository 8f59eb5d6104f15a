package audio

import (
	"errors"
	"sync"
)

// Fake device IDs used by FakeSession's default inventory.
const (
	FakeEarpiece   = "fake:earpiece"
	FakeSpeaker    = "fake:speaker"
	FakeMic        = "fake:mic"
	FakeHeadset    = "fake:bt-headset"
	FakeHeadsetMic = "fake:bt-headset-mic"
)

var ErrFakeRejected = errors.New("fake session rejected configuration")

// FakeSession is an in-memory host session. Apply moves the defaults the
// way a real sound server would.
type FakeSession struct {
	mu      sync.Mutex
	inv     Inventory
	applied []SessionConfig
	failN   int
	closed  bool
}

func NewFakeSession() *FakeSession {
	return &FakeSession{inv: Inventory{
		Devices: []Device{
			{ID: FakeEarpiece, Name: "Phone Earpiece", Direction: Output, Category: CategoryBuiltIn, Connected: true},
			{ID: FakeSpeaker, Name: "Speaker", Direction: Output, Category: CategorySpeaker, Connected: true},
			{ID: FakeMic, Name: "Built in microphone", Direction: Input, Category: CategoryBuiltIn, Connected: true},
		},
		DefaultOutput: FakeEarpiece,
		DefaultInput:  FakeMic,
	}}
}

func (f *FakeSession) Inventory() (Inventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inv.Clone(), nil
}

func (f *FakeSession) Apply(cfg SessionConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return ErrFakeRejected
	}
	f.applied = append(f.applied, cfg)
	if cfg.Output != "" {
		f.inv.DefaultOutput = cfg.Output
	}
	if cfg.Input != "" {
		f.inv.DefaultInput = cfg.Input
	}
	return nil
}

func (f *FakeSession) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *FakeSession) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FailNext makes the next n Apply calls fail.
func (f *FakeSession) FailNext(n int) {
	f.mu.Lock()
	f.failN = n
	f.mu.Unlock()
}

// Applied returns every configuration accepted so far.
func (f *FakeSession) Applied() []SessionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SessionConfig, len(f.applied))
	copy(out, f.applied)
	return out
}

// ConnectHeadset adds a connected Bluetooth headset with a microphone.
func (f *FakeSession) ConnectHeadset() Inventory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(FakeHeadset, FakeHeadsetMic)
	f.inv.Devices = append(f.inv.Devices,
		Device{ID: FakeHeadset, Name: "BT Headset", Direction: Output, Category: CategoryBluetooth, Connected: true},
		Device{ID: FakeHeadsetMic, Name: "BT Headset", Direction: Input, Category: CategoryBluetooth, Connected: true},
	)
	return f.inv.Clone()
}

// DisconnectHeadset removes the headset. Like a real sound server, the
// defaults move back to built-in devices when they pointed at it.
func (f *FakeSession) DisconnectHeadset() Inventory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(FakeHeadset, FakeHeadsetMic)
	if f.inv.DefaultOutput == FakeHeadset {
		f.inv.DefaultOutput = FakeEarpiece
	}
	if f.inv.DefaultInput == FakeHeadsetMic {
		f.inv.DefaultInput = FakeMic
	}
	return f.inv.Clone()
}

// SetDefaults simulates the host changing routes on its own.
func (f *FakeSession) SetDefaults(output, input string) Inventory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inv.DefaultOutput = output
	f.inv.DefaultInput = input
	return f.inv.Clone()
}

func (f *FakeSession) removeLocked(ids ...string) {
	kept := f.inv.Devices[:0]
	for _, d := range f.inv.Devices {
		drop := false
		for _, id := range ids {
			if d.ID == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, d)
		}
	}
	f.inv.Devices = kept
}
