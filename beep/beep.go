// Package beep plays a short chime on the output that just became active.
package beep

import (
	"math"

	"audioroute/route"
)

var disabled bool

func Disable() { disabled = true }

const sampleRate = 44100

// Kind selects the chime for a route change.
type Kind int

const (
	KindBuiltIn Kind = iota
	KindSpeaker
	KindBluetooth
	KindFallback
	KindError
)

type tone struct {
	freq   float64
	dur    float64
	volume float64
	decay  float64
}

var tones = map[Kind][]tone{
	// Earpiece: low and quiet
	KindBuiltIn: {{freq: 700, dur: 0.2, volume: 0.3, decay: 40}},
	// Speaker: bright single tick
	KindSpeaker: {{freq: 1200, dur: 0.2, volume: 0.5, decay: 60}},
	// Bluetooth: rising pair
	KindBluetooth: {{freq: 900, dur: 0.08, volume: 0.5, decay: 40}, {freq: 1350, dur: 0.2, volume: 0.5, decay: 40}},
	// Requested route unavailable
	KindFallback: {{freq: 900, dur: 0.08, volume: 0.5, decay: 40}, {freq: 600, dur: 0.2, volume: 0.5, decay: 40}},
	// Host rejected the configuration
	KindError: {{freq: 350, dur: 0.08, volume: 0.6, decay: 30}, {freq: 350, dur: 0.08, volume: 0.6, decay: 30}},
}

// ForRoute picks the chime announcing r as the active route.
func ForRoute(r route.Route) Kind {
	switch r {
	case route.Speaker:
		return KindSpeaker
	case route.Bluetooth:
		return KindBluetooth
	}
	return KindBuiltIn
}

// gap between tones of one chime, in seconds
const gap = 0.05

func generateTick(freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

// samples renders a chime as mono 16-bit PCM.
func samples(k Kind) []int16 {
	ts, ok := tones[k]
	if !ok {
		return nil
	}
	silence := make([]int16, int(float64(sampleRate)*gap))
	var out []int16
	for i, t := range ts {
		if i > 0 {
			out = append(out, silence...)
		}
		out = append(out, generateTick(t.freq, t.dur, t.volume, t.decay)...)
	}
	return out
}

// Play queues the chime for k without blocking.
func Play(k Kind) {
	if disabled {
		return
	}
	go play(samples(k))
}
