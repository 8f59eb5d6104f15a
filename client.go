package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

const ipcTimeout = 5 * time.Second

func ipcCall(sock string, req IPCRequest) (IPCResponse, error) {
	conn, err := net.DialTimeout("unix", sock, ipcTimeout)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to daemon: %w (is `audioroute daemon` running?)", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(ipcTimeout))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// daemonRunning reports whether a daemon answers on sock.
func daemonRunning(sock string) bool {
	_, err := ipcCall(sock, IPCRequest{Command: "status"})
	return err == nil
}

func runStatus(sock string, w io.Writer) error {
	resp, err := ipcCall(sock, IPCRequest{Command: "status"})
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func runBluetooth(sock string, w io.Writer) error {
	resp, err := ipcCall(sock, IPCRequest{Command: "bluetooth"})
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	fmt.Fprintln(w, resp.Bluetooth)
	return nil
}

func runSet(sock, name string, w io.Writer) error {
	resp, err := ipcCall(sock, IPCRequest{Command: "set", Route: name})
	if err != nil {
		return err
	}
	return setResult(resp, w)
}

// setResult turns a set response into the user-facing outcome: a plain
// confirmation, a fallback notice, or an error.
func setResult(resp IPCResponse, w io.Writer) error {
	switch resp.ErrorKind {
	case errKindInvalidRoute:
		return fmt.Errorf("%s (use builtin, speaker or bluetooth)", resp.Error)
	case errKindSessionConf:
		return fmt.Errorf("could not change audio route: %s", resp.Error)
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	if resp.Fallback {
		fmt.Fprintf(w, "%s unavailable, using %s\n", resp.Requested, resp.Active)
		return nil
	}
	fmt.Fprintf(w, "audio route: %s\n", resp.Active)
	return nil
}
