//go:build linux

package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// PulseAudio reports port availability as unknown/no/yes.
const portUnavailable = 1

// BluetoothChecker confirms that a Bluetooth accessory is paired and
// connected, not merely known to the sound server.
type BluetoothChecker interface {
	Usable(mac string) bool
}

type pulseSession struct {
	client *pulse.Client
	bt     BluetoothChecker

	mu sync.Mutex
}

func NewSession(bt BluetoothChecker) (Session, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("audioroute"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseSession{client: c, bt: bt}, nil
}

// portID joins a sink or source name with one of its ports.
func portID(name, port string) string {
	if port == "" {
		return name
	}
	return name + "#" + port
}

func splitPortID(id string) (name, port string) {
	name, port, _ = strings.Cut(id, "#")
	return name, port
}

func classifyPort(port string) (Category, bool) {
	p := strings.ToLower(port)
	switch {
	case strings.Contains(p, "speaker"):
		return CategorySpeaker, true
	case strings.Contains(p, "headphone"), strings.Contains(p, "headset"),
		strings.Contains(p, "handset"), strings.Contains(p, "earpiece"):
		return CategoryBuiltIn, true
	}
	return CategoryBuiltIn, false
}

// macFromPulseName extracts the accessory address from names like
// "bluez_sink.AA_BB_CC_DD_EE_FF.a2dp_sink" or "bluez_output.AA_BB_CC_DD_EE_FF.1".
func macFromPulseName(name string) string {
	if !strings.HasPrefix(name, "bluez_") {
		return ""
	}
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.ReplaceAll(parts[1], "_", ":")
}

func (p *pulseSession) bluetoothConnected(name string) bool {
	if p.bt == nil {
		return true
	}
	mac := macFromPulseName(name)
	return mac == "" || p.bt.Usable(mac)
}

// pulseNode is the part of a sink or source the inventory is built from.
type pulseNode struct {
	name       string
	desc       string
	ports      []pulsePort
	activePort string
}

type pulsePort struct {
	name      string
	desc      string
	available uint32
}

func isBluetoothNode(n pulseNode) bool {
	return strings.HasPrefix(n.name, "bluez_") || IsBluetooth(n.desc)
}

// buildInventory maps sinks and sources onto devices. Classified sink
// ports become one device each; connected is asked about Bluetooth nodes
// only.
func buildInventory(sinks, sources []pulseNode, defaultSink, defaultSource string, connected func(name string) bool) Inventory {
	var inv Inventory

	for _, s := range sinks {
		if isBluetoothNode(s) {
			inv.Devices = append(inv.Devices, Device{
				ID:        s.name,
				Name:      s.desc,
				Direction: Output,
				Category:  CategoryBluetooth,
				Connected: connected(s.name),
			})
			continue
		}
		classified := false
		for _, port := range s.ports {
			cat, ok := classifyPort(port.name)
			if !ok || port.available == portUnavailable {
				continue
			}
			classified = true
			inv.Devices = append(inv.Devices, Device{
				ID:        portID(s.name, port.name),
				Name:      s.desc + " (" + port.desc + ")",
				Direction: Output,
				Category:  cat,
				Connected: true,
			})
		}
		if !classified {
			inv.Devices = append(inv.Devices, Device{
				ID:        s.name,
				Name:      s.desc,
				Direction: Output,
				Category:  CategoryBuiltIn,
				Connected: true,
			})
		}
	}

	// Speakers are always routable: without a dedicated speaker port the
	// built-in output doubles as the loudspeaker, and a host with only a
	// speaker plays built-in audio through it.
	builtIn := inv.Find(CategoryBuiltIn, Output)
	speaker := inv.Find(CategorySpeaker, Output)
	switch {
	case speaker == nil && builtIn != nil:
		sp := *builtIn
		sp.Category = CategorySpeaker
		inv.Devices = append(inv.Devices, sp)
	case builtIn == nil && speaker != nil:
		b := *speaker
		b.Category = CategoryBuiltIn
		inv.Devices = append(inv.Devices, b)
	}

	for _, s := range sources {
		if strings.HasSuffix(s.name, ".monitor") {
			continue
		}
		d := Device{
			ID:        s.name,
			Name:      s.desc,
			Direction: Input,
			Category:  CategoryBuiltIn,
			Connected: true,
		}
		if isBluetoothNode(s) {
			d.Category = CategoryBluetooth
			d.Connected = connected(s.name)
		}
		inv.Devices = append(inv.Devices, d)
	}

	inv.DefaultOutput = defaultSink
	for _, s := range sinks {
		if s.name != defaultSink || s.activePort == "" || isBluetoothNode(s) {
			continue
		}
		if _, ok := classifyPort(s.activePort); ok {
			inv.DefaultOutput = portID(s.name, s.activePort)
		}
	}
	inv.DefaultInput = defaultSource
	return inv
}

func (p *pulseSession) Inventory() (Inventory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sinkList proto.GetSinkInfoListReply
	if err := p.client.RawRequest(&proto.GetSinkInfoList{}, &sinkList); err != nil {
		return Inventory{}, fmt.Errorf("pulse list sinks: %w", err)
	}
	var sourceList proto.GetSourceInfoListReply
	if err := p.client.RawRequest(&proto.GetSourceInfoList{}, &sourceList); err != nil {
		return Inventory{}, fmt.Errorf("pulse list sources: %w", err)
	}

	sinks := make([]pulseNode, 0, len(sinkList))
	for _, s := range sinkList {
		n := pulseNode{name: s.SinkName, desc: s.Device, activePort: s.ActivePortName}
		for _, port := range s.Ports {
			n.ports = append(n.ports, pulsePort{name: port.Name, desc: port.Description, available: uint32(port.Available)})
		}
		sinks = append(sinks, n)
	}
	sources := make([]pulseNode, 0, len(sourceList))
	for _, s := range sourceList {
		sources = append(sources, pulseNode{name: s.SourceName, desc: s.Device})
	}

	var defaultSink, defaultSource string
	if sink, err := p.client.DefaultSink(); err == nil && sink != nil {
		defaultSink = sink.ID()
	}
	if source, err := p.client.DefaultSource(); err == nil && source != nil {
		defaultSource = source.ID()
	}
	return buildInventory(sinks, sources, defaultSink, defaultSource, p.bluetoothConnected), nil
}

func (p *pulseSession) Apply(cfg SessionConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Output != "" {
		sink, port := splitPortID(cfg.Output)
		if err := p.client.RawRequest(&proto.SetDefaultSink{SinkName: sink}, nil); err != nil {
			return fmt.Errorf("pulse set default sink %s: %w", sink, err)
		}
		if port != "" {
			req := &proto.SetSinkPort{SinkIndex: proto.Undefined, SinkName: sink, Port: port}
			if err := p.client.RawRequest(req, nil); err != nil {
				return fmt.Errorf("pulse set sink port %s: %w", port, err)
			}
		}
	}
	if cfg.Input != "" {
		source, _ := splitPortID(cfg.Input)
		if err := p.client.RawRequest(&proto.SetDefaultSource{SourceName: source}, nil); err != nil {
			return fmt.Errorf("pulse set default source %s: %w", source, err)
		}
	}
	return nil
}

func (p *pulseSession) Close() {
	p.client.Close()
}
