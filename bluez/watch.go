package bluez

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Watch returns a channel that receives a hint whenever an accessory
// appears, disappears or changes connection state. The channel is closed
// when ctx is done.
func (c *Client) Watch(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watching {
		return nil, fmt.Errorf("bluez: already watching")
	}

	rules := []string{
		"type='signal',interface='" + propsIface + "',member='PropertiesChanged',path_namespace='/org/bluez'",
		"type='signal',interface='" + objMgrIface + "',member='InterfacesAdded'",
		"type='signal',interface='" + objMgrIface + "',member='InterfacesRemoved'",
	}
	for _, r := range rules {
		if err := c.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, r).Err; err != nil {
			return nil, fmt.Errorf("add match: %w", err)
		}
	}
	c.watching = true

	sigs := make(chan *dbus.Signal, 16)
	c.conn.Signal(sigs)

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-sigs:
				if !ok {
					return
				}
				if !relevant(sig) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// relevant filters signals down to Device1 changes that affect routing.
func relevant(sig *dbus.Signal) bool {
	switch sig.Name {
	case propsSignal:
		// Body: [interface string, changed map[string]Variant, invalidated []string]
		if len(sig.Body) < 2 {
			return false
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != deviceIface {
			return false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return false
		}
		for _, k := range []string{"Connected", "Paired", "UUIDs"} {
			if _, ok := changed[k]; ok {
				return true
			}
		}
		return false

	case addedSignal:
		if len(sig.Body) < 2 {
			return false
		}
		ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
		if !ok {
			return false
		}
		_, ok = ifaces[deviceIface]
		return ok

	case removedSignal:
		if len(sig.Body) < 2 {
			return false
		}
		ifaces, ok := sig.Body[1].([]string)
		if !ok {
			return false
		}
		for _, i := range ifaces {
			if i == deviceIface {
				return true
			}
		}
	}
	return false
}
