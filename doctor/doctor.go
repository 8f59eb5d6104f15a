package doctor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"audioroute/audio"
	"audioroute/beep"
	"audioroute/bluez"
	"audioroute/route"
	"audioroute/shutdown"
)

// Bluetooth is the part of the BlueZ client the checks need.
type Bluetooth interface {
	AdapterPowered() (bool, error)
	AudioDevices() ([]bluez.Device, error)
}

// Doctor walks through the host session, BlueZ and every route, asking the
// user to confirm each chime.
type Doctor struct {
	Host audio.Session
	// BT is nil when BlueZ could not be reached; BTErr says why.
	BT    Bluetooth
	BTErr error

	In    io.Reader
	Out   io.Writer
	Chime func(beep.Kind)

	reader *bufio.Reader
}

// Run executes interactive diagnostic checks against the real host and
// returns an exit code (0=all pass, 1=any fail).
func Run(host audio.Session, bt Bluetooth, btErr error) int {
	setupInterruptHandler()
	d := &Doctor{Host: host, BT: bt, BTErr: btErr, In: os.Stdin, Out: os.Stdout, Chime: beep.Play}
	return d.Run()
}

func (d *Doctor) Run() int {
	d.reader = bufio.NewReader(d.In)

	d.printf("audioroute doctor - audio route diagnostics\n")
	d.printf("===========================================\n")

	inv, ok := d.checkSession()
	allPass := ok
	if !d.checkBluetooth(inv) {
		allPass = false
	}
	if ok && !d.checkRoutes(inv) {
		allPass = false
	}

	d.printf("\n")
	if allPass {
		d.printf("All checks passed!\n")
		return 0
	}
	d.printf("Some checks failed. See details above.\n")
	return 1
}

func (d *Doctor) printf(format string, args ...interface{}) {
	fmt.Fprintf(d.Out, format, args...)
}

func (d *Doctor) confirm(question string) bool {
	d.printf("%s [y/n]: ", question)
	answer, _ := d.reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (d *Doctor) checkSession() (audio.Inventory, bool) {
	d.printf("\n[1/3] Host audio session\n")

	inv, err := d.Host.Inventory()
	if err != nil {
		d.printf("  FAIL: cannot read devices: %v\n", err)
		return inv, false
	}
	for _, dev := range inv.Devices {
		mark := " "
		if dev.ID == inv.DefaultOutput || dev.ID == inv.DefaultInput {
			mark = "*"
		}
		state := ""
		if !dev.Connected {
			state = " (not connected)"
		}
		d.printf("  %s %-6s %-9s %s%s\n", mark, dev.Direction, dev.Category, dev.Name, state)
	}
	if inv.Find(audio.CategoryBuiltIn, audio.Output) == nil {
		d.printf("  FAIL: no built-in output found\n")
		return inv, false
	}
	d.printf("  PASS: %d devices\n", len(inv.Devices))
	return inv, true
}

func (d *Doctor) checkBluetooth(inv audio.Inventory) bool {
	d.printf("\n[2/3] Bluetooth\n")

	if d.BT == nil {
		// Not fatal: routing still works without BlueZ.
		d.printf("  SKIP: bluez unavailable: %v\n", d.BTErr)
		return true
	}
	powered, err := d.BT.AdapterPowered()
	if err != nil {
		d.printf("  FAIL: cannot read adapter: %v\n", err)
		return false
	}
	if !powered {
		d.printf("  SKIP: adapter is powered off\n")
		return true
	}
	devs, err := d.BT.AudioDevices()
	if err != nil {
		d.printf("  FAIL: cannot list accessories: %v\n", err)
		return false
	}
	for _, dev := range devs {
		d.printf("    %s %s (%s)\n", dev.Address, dev.Name, strings.Join(dev.Profiles, ", "))
	}
	if len(devs) > 0 && !inv.HasBluetooth() {
		d.printf("  FAIL: accessory connected but the sound server has no bluetooth device\n")
		return false
	}
	d.printf("  PASS: %d audio accessories connected\n", len(devs))
	return true
}

func (d *Doctor) checkRoutes(orig audio.Inventory) bool {
	d.printf("\n[3/3] Routes\n")

	e := route.New(d.Host)
	defer e.Close()
	defer d.restore(e, orig)

	if err := e.Start(nil); err != nil {
		d.printf("  FAIL: default route: %v\n", err)
		return false
	}

	allPass := true
	for _, r := range []route.Route{route.BuiltIn, route.Speaker, route.Bluetooth} {
		st, err := e.SetAudioRoute(r)
		if err != nil {
			d.printf("  FAIL: %s: %v\n", r, err)
			allPass = false
			continue
		}
		if st.Fallback() {
			if st.Active != route.BuiltIn {
				d.printf("  FAIL: %s fell back to %s, want builtin\n", r, st.Active)
				allPass = false
				continue
			}
			d.printf("  PASS: %s unavailable, fell back to %s\n", r, st.Active)
			continue
		}
		if d.Chime != nil {
			d.Chime(beep.ForRoute(st.Active))
		}
		if !d.confirm(fmt.Sprintf("  Did you hear a chime from the %s?", st.Active)) {
			d.printf("  FAIL: %s not confirmed\n", r)
			allPass = false
			continue
		}
		d.printf("  PASS: %s\n", r)
	}
	return allPass
}

// restore routes back to what the host defaults were before the walk.
func (d *Doctor) restore(e *route.Engine, orig audio.Inventory) {
	if _, err := e.SetAudioRoute(impliedRoute(orig)); err != nil {
		d.printf("  Warning: could not restore previous route: %v\n", err)
	}
}

// impliedRoute names the route the default output in inv belongs to. An
// output that is both built-in and speaker counts as built-in.
func impliedRoute(inv audio.Inventory) route.Route {
	r := route.BuiltIn
	for _, dev := range inv.Devices {
		if dev.ID != inv.DefaultOutput || dev.Direction != audio.Output {
			continue
		}
		switch dev.Category {
		case audio.CategoryBuiltIn:
			return route.BuiltIn
		case audio.CategorySpeaker:
			r = route.Speaker
		case audio.CategoryBluetooth:
			r = route.Bluetooth
		}
	}
	return r
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
