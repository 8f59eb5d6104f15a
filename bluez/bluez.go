// Package bluez reads Bluetooth audio accessory state from BlueZ over the
// system D-Bus.
package bluez

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	busName       = "org.bluez"
	adapterIface  = "org.bluez.Adapter1"
	deviceIface   = "org.bluez.Device1"
	propsIface    = "org.freedesktop.DBus.Properties"
	objMgrIface   = "org.freedesktop.DBus.ObjectManager"
	propsSignal   = propsIface + ".PropertiesChanged"
	addedSignal   = objMgrIface + ".InterfacesAdded"
	removedSignal = objMgrIface + ".InterfacesRemoved"
)

// Short UUIDs of the audio profiles an accessory may offer.
var audioProfiles = map[string]string{
	"00001108": "hsp",
	"0000110b": "a2dp",
	"0000111e": "hfp",
}

// Device is a paired Bluetooth accessory known to BlueZ.
type Device struct {
	Address   string
	Name      string
	Paired    bool
	Connected bool
	Profiles  []string
}

// Audio reports whether the accessory offers any audio profile.
func (d Device) Audio() bool { return len(d.Profiles) > 0 }

// Usable reports whether the accessory can carry audio right now.
func (d Device) Usable() bool { return d.Paired && d.Connected && d.Audio() }

// macFromPath extracts the address from a device object path on any adapter.
func macFromPath(path dbus.ObjectPath) string {
	s := string(path)
	i := strings.LastIndex(s, "/dev_")
	if i < 0 || !strings.HasPrefix(s, "/org/bluez/") {
		return ""
	}
	mac := s[i+len("/dev_"):]
	if strings.Contains(mac, "/") {
		return ""
	}
	return strings.ReplaceAll(mac, "_", ":")
}

// Client wraps a system bus connection for BlueZ queries.
type Client struct {
	conn *dbus.Conn

	mu       sync.Mutex
	watching bool
}

// Dial connects to the system bus and checks that BlueZ is running.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	for _, n := range names {
		if n == busName {
			return &Client{conn: conn}, nil
		}
	}
	conn.Close()
	return nil, fmt.Errorf("org.bluez not found on system bus, is bluetooth.service running?")
}

func (c *Client) Close() {
	c.conn.Close()
}

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

func (c *Client) managedObjects() (managedObjects, error) {
	var objs managedObjects
	err := c.conn.Object(busName, "/").Call(objMgrIface+".GetManagedObjects", 0).Store(&objs)
	if err != nil {
		return nil, fmt.Errorf("bluez managed objects: %w", err)
	}
	return objs, nil
}

// AdapterPowered reports whether any adapter is on.
func (c *Client) AdapterPowered() (bool, error) {
	objs, err := c.managedObjects()
	if err != nil {
		return false, err
	}
	return adapterPowered(objs)
}

// Devices lists every accessory BlueZ knows about on every adapter, sorted
// by address.
func (c *Client) Devices() ([]Device, error) {
	objs, err := c.managedObjects()
	if err != nil {
		return nil, err
	}
	return parseObjects(objs), nil
}

// AudioDevices lists accessories that are paired, connected and offer audio.
func (c *Client) AudioDevices() ([]Device, error) {
	all, err := c.Devices()
	if err != nil {
		return nil, err
	}
	var out []Device
	for _, d := range all {
		if d.Usable() {
			out = append(out, d)
		}
	}
	return out, nil
}

// Usable answers whether the accessory at mac is paired and connected on
// any adapter. Lookup failures count as not usable.
func (c *Client) Usable(mac string) bool {
	devs, err := c.Devices()
	if err != nil {
		return false
	}
	return usable(devs, mac)
}

func usable(devs []Device, mac string) bool {
	for _, d := range devs {
		if strings.EqualFold(d.Address, mac) && d.Paired && d.Connected {
			return true
		}
	}
	return false
}

func adapterPowered(objs managedObjects) (bool, error) {
	found := false
	for _, ifaces := range objs {
		props, ok := ifaces[adapterIface]
		if !ok {
			continue
		}
		found = true
		if on, _ := props["Powered"].Value().(bool); on {
			return true, nil
		}
	}
	if !found {
		return false, errors.New("no bluetooth adapter found")
	}
	return false, nil
}

func parseObjects(objs managedObjects) []Device {
	var out []Device
	for path, ifaces := range objs {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		d := Device{Address: macFromPath(path)}
		if v, ok := props["Address"].Value().(string); ok {
			d.Address = v
		}
		if v, ok := props["Alias"].Value().(string); ok {
			d.Name = v
		} else if v, ok := props["Name"].Value().(string); ok {
			d.Name = v
		}
		d.Paired, _ = props["Paired"].Value().(bool)
		d.Connected, _ = props["Connected"].Value().(bool)
		uuids, _ := props["UUIDs"].Value().([]string)
		d.Profiles = profiles(uuids)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func profiles(uuids []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, u := range uuids {
		short := strings.ToLower(u)
		if len(short) > 8 {
			short = short[:8]
		}
		p, ok := audioProfiles[short]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
