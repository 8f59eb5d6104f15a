//go:build linux

package audio

import (
	"testing"
)

func TestClassifyPort(t *testing.T) {
	tests := []struct {
		port   string
		want   Category
		wantOK bool
	}{
		{"analog-output-speaker", CategorySpeaker, true},
		{"[Out] Speaker", CategorySpeaker, true},
		{"analog-output-headphones", CategoryBuiltIn, true},
		{"[Out] Headset", CategoryBuiltIn, true},
		{"handset-output", CategoryBuiltIn, true},
		{"Earpiece", CategoryBuiltIn, true},
		{"hdmi-output-0", CategoryBuiltIn, false},
		{"analog-output-lineout", CategoryBuiltIn, false},
	}
	for _, tt := range tests {
		got, ok := classifyPort(tt.port)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("classifyPort(%q) = %v, %v, want %v, %v", tt.port, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMacFromPulseName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"bluez_sink.AA_BB_CC_DD_EE_FF.a2dp_sink", "AA:BB:CC:DD:EE:FF"},
		{"bluez_output.11_22_33_44_55_66.1", "11:22:33:44:55:66"},
		{"bluez_input.11_22_33_44_55_66.0", "11:22:33:44:55:66"},
		{"bluez_card", ""},
		{"alsa_output.pci-0000_00_1f.3.analog-stereo", ""},
	}
	for _, tt := range tests {
		if got := macFromPulseName(tt.name); got != tt.want {
			t.Errorf("macFromPulseName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

const (
	laptopSink   = "alsa_output.pci-0000_00_1f.3.analog-stereo"
	laptopSource = "alsa_input.pci-0000_00_1f.3.analog-stereo"
	hdmiSink     = "alsa_output.pci-0000_01_00.1.hdmi-stereo"
	budsSink     = "bluez_output.AA_BB_CC_DD_EE_FF.1"
	budsSource   = "bluez_input.AA_BB_CC_DD_EE_FF.0"
)

func laptop(headphones uint32, active string) pulseNode {
	return pulseNode{
		name: laptopSink,
		desc: "Built-in Audio",
		ports: []pulsePort{
			{name: "analog-output-speaker", desc: "Speakers"},
			{name: "analog-output-headphones", desc: "Headphones", available: headphones},
		},
		activePort: active,
	}
}

var (
	micSource     = pulseNode{name: laptopSource, desc: "Built-in Audio"}
	monitorSource = pulseNode{name: laptopSink + ".monitor", desc: "Monitor of Built-in Audio"}
	budsOut       = pulseNode{name: budsSink, desc: "Buds"}
	budsIn        = pulseNode{name: budsSource, desc: "Buds"}
)

func allConnected(string) bool { return true }

// summary flattens an inventory to "category/direction/id" triples for
// comparison.
func summary(inv Inventory) []string {
	out := make([]string, 0, len(inv.Devices))
	for _, d := range inv.Devices {
		s := d.Category.String() + "/" + d.Direction.String() + "/" + d.ID
		if !d.Connected {
			s += " (disconnected)"
		}
		out = append(out, s)
	}
	return out
}

func TestBuildInventory(t *testing.T) {
	tests := []struct {
		name          string
		sinks         []pulseNode
		sources       []pulseNode
		defaultSink   string
		connected     func(string) bool
		want          []string
		wantDefault   string
		wantDefaultIn string
	}{
		{
			name:        "headphones plugged",
			sinks:       []pulseNode{laptop(2, "analog-output-headphones")},
			sources:     []pulseNode{micSource, monitorSource},
			defaultSink: laptopSink,
			want: []string{
				"speaker/output/" + laptopSink + "#analog-output-speaker",
				"builtin/output/" + laptopSink + "#analog-output-headphones",
				"builtin/input/" + laptopSource,
			},
			wantDefault:   laptopSink + "#analog-output-headphones",
			wantDefaultIn: laptopSource,
		},
		{
			name:        "headphones unplugged",
			sinks:       []pulseNode{laptop(portUnavailable, "analog-output-speaker")},
			sources:     []pulseNode{micSource},
			defaultSink: laptopSink,
			want: []string{
				"speaker/output/" + laptopSink + "#analog-output-speaker",
				"builtin/output/" + laptopSink + "#analog-output-speaker",
				"builtin/input/" + laptopSource,
			},
			wantDefault:   laptopSink + "#analog-output-speaker",
			wantDefaultIn: laptopSource,
		},
		{
			name: "no speaker port",
			sinks: []pulseNode{{
				name:  hdmiSink,
				desc:  "HDMI",
				ports: []pulsePort{{name: "hdmi-output-0", desc: "HDMI"}},
			}},
			defaultSink: hdmiSink,
			want: []string{
				"builtin/output/" + hdmiSink,
				"speaker/output/" + hdmiSink,
			},
			wantDefault: hdmiSink,
		},
		{
			name:        "bluetooth accessory",
			sinks:       []pulseNode{laptop(0, "analog-output-speaker"), budsOut},
			sources:     []pulseNode{micSource, budsIn},
			defaultSink: budsSink,
			want: []string{
				"speaker/output/" + laptopSink + "#analog-output-speaker",
				"builtin/output/" + laptopSink + "#analog-output-headphones",
				"bluetooth/output/" + budsSink,
				"builtin/input/" + laptopSource,
				"bluetooth/input/" + budsSource,
			},
			wantDefault:   budsSink,
			wantDefaultIn: laptopSource,
		},
		{
			name:        "bluetooth not usable per bluez",
			sinks:       []pulseNode{laptop(0, "analog-output-speaker"), budsOut},
			sources:     []pulseNode{budsIn},
			defaultSink: laptopSink,
			connected:   func(name string) bool { return macFromPulseName(name) != "AA:BB:CC:DD:EE:FF" },
			want: []string{
				"speaker/output/" + laptopSink + "#analog-output-speaker",
				"builtin/output/" + laptopSink + "#analog-output-headphones",
				"bluetooth/output/" + budsSink + " (disconnected)",
				"bluetooth/input/" + budsSource + " (disconnected)",
			},
			wantDefault: laptopSink + "#analog-output-speaker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connected := tt.connected
			if connected == nil {
				connected = allConnected
			}
			defaultIn := ""
			if len(tt.sources) > 0 {
				defaultIn = tt.sources[0].name
			}
			inv := buildInventory(tt.sinks, tt.sources, tt.defaultSink, defaultIn, connected)

			got := summary(inv)
			if len(got) != len(tt.want) {
				t.Fatalf("devices = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("device %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if inv.DefaultOutput != tt.wantDefault {
				t.Errorf("DefaultOutput = %q, want %q", inv.DefaultOutput, tt.wantDefault)
			}
			if tt.wantDefaultIn != "" && inv.DefaultInput != tt.wantDefaultIn {
				t.Errorf("DefaultInput = %q, want %q", inv.DefaultInput, tt.wantDefaultIn)
			}
		})
	}
}

func TestBuildInventoryUnplugIsAChange(t *testing.T) {
	plugged := buildInventory([]pulseNode{laptop(2, "analog-output-headphones")}, []pulseNode{micSource},
		laptopSink, laptopSource, allConnected)
	unplugged := buildInventory([]pulseNode{laptop(portUnavailable, "analog-output-speaker")}, []pulseNode{micSource},
		laptopSink, laptopSource, allConnected)

	if plugged.Equal(unplugged) {
		t.Fatal("unplugging headphones must change the inventory")
	}
	if d := unplugged.Find(CategoryBuiltIn, Output); d == nil || d.ID != laptopSink+"#analog-output-speaker" {
		t.Errorf("built-in output after unplug = %+v", d)
	}
}
