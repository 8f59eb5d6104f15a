package main

import (
	"errors"

	"audioroute/audio"
	"audioroute/route"
)

// IPCRequest is sent from the CLI client to the daemon.
type IPCRequest struct {
	Command string `json:"command"`         // "status" | "set" | "bluetooth"
	Route   string `json:"route,omitempty"` // "builtin", "speaker", "bluetooth" or 1..3
}

// IPCDevice is one entry of the daemon's device inventory.
type IPCDevice struct {
	Name      string `json:"name"`
	Direction string `json:"direction"` // "input" | "output"
	Category  string `json:"category"`  // "builtin" | "speaker" | "bluetooth"
	Connected bool   `json:"connected"`
	Default   bool   `json:"default,omitempty"`
}

// IPCResponse is sent from the daemon back to the CLI client.
type IPCResponse struct {
	Requested string      `json:"requested,omitempty"`
	Active    string      `json:"active,omitempty"`
	Fallback  bool        `json:"fallback,omitempty"`
	Bluetooth bool        `json:"bluetooth"`
	Devices   []IPCDevice `json:"devices,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"` // "invalid_route" | "session_configuration"
}

const (
	errKindInvalidRoute = "invalid_route"
	errKindSessionConf  = "session_configuration"
)

func stateFields(resp *IPCResponse, st route.State) {
	if st.Phase != route.RouteApplied {
		return
	}
	resp.Requested = st.Requested.String()
	resp.Active = st.Active.String()
	resp.Fallback = st.Fallback()
}

func deviceList(inv audio.Inventory) []IPCDevice {
	devs := make([]IPCDevice, 0, len(inv.Devices))
	for _, d := range inv.Devices {
		devs = append(devs, IPCDevice{
			Name:      d.Name,
			Direction: d.Direction.String(),
			Category:  d.Category.String(),
			Connected: d.Connected,
			Default:   d.ID == inv.DefaultOutput || d.ID == inv.DefaultInput,
		})
	}
	return devs
}

func errorFields(resp *IPCResponse, err error) {
	if err == nil {
		return
	}
	resp.Error = err.Error()
	switch {
	case errors.Is(err, route.ErrInvalidRoute):
		resp.ErrorKind = errKindInvalidRoute
	case errors.Is(err, route.ErrSessionConfiguration):
		resp.ErrorKind = errKindSessionConf
	}
}
