package audio

import (
	"slices"
	"strings"
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Category partitions devices into the three kinds a route can target.
type Category int

const (
	CategoryBuiltIn Category = iota
	CategorySpeaker
	CategoryBluetooth
)

func (c Category) String() string {
	switch c {
	case CategorySpeaker:
		return "speaker"
	case CategoryBluetooth:
		return "bluetooth"
	default:
		return "builtin"
	}
}

type Device struct {
	ID        string // opaque platform-specific identifier
	Name      string
	Direction Direction
	Category  Category
	Connected bool
}

// Inventory is a snapshot of the devices the host reports, plus the
// devices the host currently routes to by default.
type Inventory struct {
	Devices       []Device
	DefaultOutput string
	DefaultInput  string
}

// HasBluetooth reports whether a connected Bluetooth device is present.
// Discovered-but-disconnected accessories do not count.
func (inv Inventory) HasBluetooth() bool {
	for _, d := range inv.Devices {
		if d.Category == CategoryBluetooth && d.Connected {
			return true
		}
	}
	return false
}

// Find returns the first connected device of the given category and
// direction, or nil.
func (inv Inventory) Find(c Category, dir Direction) *Device {
	for i := range inv.Devices {
		d := &inv.Devices[i]
		if d.Category == c && d.Direction == dir && d.Connected {
			return d
		}
	}
	return nil
}

func (inv Inventory) Equal(o Inventory) bool {
	return inv.DefaultOutput == o.DefaultOutput &&
		inv.DefaultInput == o.DefaultInput &&
		slices.Equal(inv.Devices, o.Devices)
}

func (inv Inventory) Clone() Inventory {
	inv.Devices = slices.Clone(inv.Devices)
	return inv
}

// SessionConfig is what the host session is told to do: which devices to
// route to and which overrides to hold. Empty Input leaves input routing to
// the host default.
type SessionConfig struct {
	Output          string
	Input           string
	SpeakerOverride bool
	Bluetooth       bool
}

// Session is the host audio-session subsystem. It is the source of truth
// for which devices exist and which route is active.
type Session interface {
	Inventory() (Inventory, error)
	Apply(cfg SessionConfig) error
	Close()
}
