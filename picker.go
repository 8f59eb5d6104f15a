package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"audioroute/route"
)

type pickerItem struct {
	route route.Route
	label string
}

func pickerItems(bluetooth bool) []pickerItem {
	bt := "Bluetooth"
	if !bluetooth {
		bt += " (no accessory, falls back to built-in)"
	}
	return []pickerItem{
		{route.BuiltIn, "Built-in (earpiece / headset)"},
		{route.Speaker, "Speaker"},
		{route.Bluetooth, bt},
	}
}

type keyAction int

const (
	keyNone keyAction = iota
	keyConfirm
	keyCancel
)

// pickerKey applies one read from the raw terminal to the cursor.
func pickerKey(buf []byte, cursor, n int) (int, keyAction) {
	if len(buf) == 1 {
		switch buf[0] {
		case 13: // Enter
			return cursor, keyConfirm
		case 3, 'q': // Ctrl+C
			return cursor, keyCancel
		case 'j': // vim down
			if cursor < n-1 {
				cursor++
			}
		case 'k': // vim up
			if cursor > 0 {
				cursor--
			}
		case '1', '2', '3':
			if i := int(buf[0] - '1'); i < n {
				return i, keyConfirm
			}
		}
	} else if len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A': // Up arrow
			if cursor > 0 {
				cursor--
			}
		case 'B': // Down arrow
			if cursor < n-1 {
				cursor++
			}
		}
	}
	return cursor, keyNone
}

func renderPicker(w io.Writer, items []pickerItem, cursor int, active string) {
	fmt.Fprint(w, "\r\x1b[J") // clear from cursor to end
	fmt.Fprint(w, "Select audio route (↑/↓, Enter to confirm):\r\n\r\n")
	for i, it := range items {
		mark := ""
		if it.route.String() == active {
			mark = " (active)"
		}
		if i == cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", it.label, mark)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", it.label, mark)
		}
	}
}

// selectRoute shows the route list in raw mode. ok is false when the user
// cancels.
func selectRoute(bluetooth bool, active string) (r route.Route, ok bool, err error) {
	items := pickerItems(bluetooth)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return 0, false, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	for i, it := range items {
		if it.route.String() == active {
			cursor = i
		}
	}
	renderPicker(os.Stdout, items, cursor, active)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return 0, false, fmt.Errorf("reading input: %w", err)
		}

		var action keyAction
		cursor, action = pickerKey(buf[:n], cursor, len(items))
		switch action {
		case keyConfirm:
			fmt.Print("\r\n")
			return items[cursor].route, true, nil
		case keyCancel:
			fmt.Print("\r\n")
			return 0, false, nil
		}

		// Redraw: move up to overwrite
		fmt.Printf("\x1b[%dA", len(items)+2)
		renderPicker(os.Stdout, items, cursor, active)
	}
}

func runPick(sock string, w io.Writer) error {
	status, err := ipcCall(sock, IPCRequest{Command: "status"})
	if err != nil {
		return err
	}
	r, ok, err := selectRoute(status.Bluetooth, status.Active)
	if err != nil || !ok {
		return err
	}
	return runSet(sock, r.String(), w)
}
