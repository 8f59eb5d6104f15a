//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
)

// BluetoothChecker is only consulted by the PulseAudio backend.
type BluetoothChecker interface {
	Usable(mac string) bool
}

// On these platforms miniaudio routes per stream, so the session keeps the
// selection and reports it back as the default.
type malgoSession struct {
	ctx *malgo.AllocatedContext

	mu       sync.Mutex
	selected SessionConfig
}

func NewSession(_ BluetoothChecker) (Session, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoSession{ctx: ctx}, nil
}

func classifyName(name string) Category {
	lower := strings.ToLower(name)
	switch {
	case IsBluetooth(name):
		return CategoryBluetooth
	case strings.Contains(lower, "speaker"):
		return CategorySpeaker
	}
	return CategoryBuiltIn
}

func (m *malgoSession) list(kind malgo.DeviceType, dir Direction) ([]Device, string, error) {
	infos, err := m.ctx.Devices(kind)
	if err != nil {
		return nil, "", fmt.Errorf("malgo devices: %w", err)
	}
	var devices []Device
	def := ""
	for _, d := range infos {
		dev := Device{
			ID:        hex.EncodeToString(d.ID[:]),
			Name:      d.Name(),
			Direction: dir,
			Category:  classifyName(d.Name()),
			Connected: true,
		}
		if d.IsDefault != 0 {
			def = dev.ID
		}
		devices = append(devices, dev)
	}
	return devices, def, nil
}

func (m *malgoSession) Inventory() (Inventory, error) {
	outputs, defOut, err := m.list(malgo.Playback, Output)
	if err != nil {
		return Inventory{}, err
	}
	inputs, defIn, err := m.list(malgo.Capture, Input)
	if err != nil {
		return Inventory{}, err
	}

	inv := Inventory{DefaultOutput: defOut, DefaultInput: defIn}
	inv.Devices = append(inv.Devices, outputs...)
	if inv.Find(CategorySpeaker, Output) == nil {
		if b := inv.Find(CategoryBuiltIn, Output); b != nil {
			sp := *b
			sp.Category = CategorySpeaker
			inv.Devices = append(inv.Devices, sp)
		}
	}
	inv.Devices = append(inv.Devices, inputs...)

	m.mu.Lock()
	if m.selected.Output != "" {
		inv.DefaultOutput = m.selected.Output
	}
	if m.selected.Input != "" {
		inv.DefaultInput = m.selected.Input
	}
	m.mu.Unlock()
	return inv, nil
}

func (m *malgoSession) Apply(cfg SessionConfig) error {
	for _, id := range []string{cfg.Output, cfg.Input} {
		if id == "" {
			continue
		}
		if _, err := hex.DecodeString(id); err != nil {
			return fmt.Errorf("invalid device ID: %w", err)
		}
	}
	m.mu.Lock()
	m.selected = cfg
	m.mu.Unlock()
	return nil
}

func (m *malgoSession) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}
