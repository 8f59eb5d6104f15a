package route

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"audioroute/audio"
)

func TestDecide(t *testing.T) {
	plain, _ := audio.NewFakeSession().Inventory()
	withBT := audio.NewFakeSession().ConnectHeadset()

	tests := []struct {
		name       string
		requested  Route
		inv        audio.Inventory
		wantActive Route
		wantCfg    audio.SessionConfig
	}{
		{
			name: "builtin", requested: BuiltIn, inv: plain, wantActive: BuiltIn,
			wantCfg: audio.SessionConfig{Output: audio.FakeEarpiece, Input: audio.FakeMic},
		},
		{
			name: "speaker leaves input to host", requested: Speaker, inv: plain, wantActive: Speaker,
			wantCfg: audio.SessionConfig{Output: audio.FakeSpeaker, SpeakerOverride: true},
		},
		{
			name: "bluetooth present", requested: Bluetooth, inv: withBT, wantActive: Bluetooth,
			wantCfg: audio.SessionConfig{Output: audio.FakeHeadset, Input: audio.FakeHeadsetMic, Bluetooth: true},
		},
		{
			name: "bluetooth absent falls back", requested: Bluetooth, inv: plain, wantActive: BuiltIn,
			wantCfg: audio.SessionConfig{Output: audio.FakeEarpiece, Input: audio.FakeMic},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, cfg := decide(tt.requested, tt.inv)
			assert.Equal(t, tt.wantActive, active)
			assert.Equal(t, tt.wantCfg, cfg)
		})
	}
}

func TestDecidePlaybackOnlyAccessory(t *testing.T) {
	inv := audio.Inventory{Devices: []audio.Device{
		{ID: "ear", Direction: audio.Output, Category: audio.CategoryBuiltIn, Connected: true},
		{ID: "mic", Direction: audio.Input, Category: audio.CategoryBuiltIn, Connected: true},
		{ID: "a2dp", Direction: audio.Output, Category: audio.CategoryBluetooth, Connected: true},
	}}
	active, cfg := decide(Bluetooth, inv)
	assert.Equal(t, Bluetooth, active)
	assert.Equal(t, audio.SessionConfig{Output: "a2dp", Input: "mic", Bluetooth: true}, cfg)
}

func TestDecideMicrophoneOnlyAccessory(t *testing.T) {
	inv := audio.Inventory{Devices: []audio.Device{
		{ID: "ear", Direction: audio.Output, Category: audio.CategoryBuiltIn, Connected: true},
		{ID: "mic", Direction: audio.Input, Category: audio.CategoryBuiltIn, Connected: true},
		{ID: "bt-mic", Direction: audio.Input, Category: audio.CategoryBluetooth, Connected: true},
	}}
	assert.True(t, inv.HasBluetooth())

	active, cfg := decide(Bluetooth, inv)
	assert.Equal(t, Bluetooth, active)
	assert.Equal(t, audio.SessionConfig{Output: "ear", Input: "bt-mic", Bluetooth: true}, cfg)
}

func TestDecideIgnoresDisconnectedAccessory(t *testing.T) {
	inv := audio.Inventory{Devices: []audio.Device{
		{ID: "ear", Direction: audio.Output, Category: audio.CategoryBuiltIn, Connected: true},
		{ID: "paired-only", Direction: audio.Output, Category: audio.CategoryBluetooth, Connected: false},
	}}
	active, _ := decide(Bluetooth, inv)
	assert.Equal(t, BuiltIn, active)
}

func TestDecideSpeakerWithoutSpeakerDevice(t *testing.T) {
	inv := audio.Inventory{Devices: []audio.Device{
		{ID: "ear", Direction: audio.Output, Category: audio.CategoryBuiltIn, Connected: true},
	}}
	active, cfg := decide(Speaker, inv)
	assert.Equal(t, Speaker, active)
	assert.Equal(t, "ear", cfg.Output)
	assert.True(t, cfg.SpeakerOverride)
}

func TestInEffect(t *testing.T) {
	inv := audio.Inventory{DefaultOutput: "a", DefaultInput: "b"}
	assert.True(t, inEffect(audio.SessionConfig{Output: "a", Input: "b"}, inv))
	assert.True(t, inEffect(audio.SessionConfig{Output: "a"}, inv))
	assert.False(t, inEffect(audio.SessionConfig{Output: "c"}, inv))
	assert.False(t, inEffect(audio.SessionConfig{Output: "a", Input: "c"}, inv))
}
