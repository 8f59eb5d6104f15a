package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"audioroute/audio"
	"audioroute/beep"
	"audioroute/log"
	"audioroute/route"
	"audioroute/watch"
)

// runTestMode drives the engine against an in-memory host from a script on
// in, one command per line:
//
//	SET <route>       request a route
//	STATUS            print requested/active/fallback/bluetooth
//	HAS_BT            print whether a Bluetooth accessory is usable
//	BT_CONNECT        plug in a Bluetooth headset
//	BT_DISCONNECT     remove it
//	DRIFT             let the host move output to another built-in device
//	FAIL_NEXT <n>     make the next n host applies fail
//	SLEEP <ms>
//	QUIT
func runTestMode(in io.Reader, out io.Writer) int {
	beep.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.SessionStart("fake", "")

	host := audio.NewFakeSession()
	mon := watch.NewMonitor(host, time.Hour)
	eng := route.New(host)
	defer eng.Close()

	if err := eng.Start(mon); err != nil {
		fmt.Fprintf(out, "ERROR %v\n", err)
	}
	mon.Check()

	requests := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch fields[0] {
		case "SET":
			requests++
			r, err := route.Parse(arg)
			if err != nil {
				fmt.Fprintf(out, "ERROR %v\n", err)
				continue
			}
			st, err := eng.SetAudioRoute(r)
			if err != nil {
				fmt.Fprintf(out, "ERROR %v\n", err)
				continue
			}
			fmt.Fprintf(out, "OK %s\n", formatState(st))
		case "STATUS":
			fmt.Fprintf(out, "STATUS %s bluetooth=%t\n", formatState(eng.State()), eng.HasBluetoothDevice())
		case "HAS_BT":
			fmt.Fprintf(out, "HAS_BT %t\n", eng.HasBluetoothDevice())
		case "BT_CONNECT":
			host.ConnectHeadset()
			mon.Check()
		case "BT_DISCONNECT":
			host.DisconnectHeadset()
			mon.Check()
		case "DRIFT":
			inv, _ := host.Inventory()
			moved := audio.FakeSpeaker
			if inv.DefaultOutput == audio.FakeSpeaker {
				moved = audio.FakeEarpiece
			}
			host.SetDefaults(moved, inv.DefaultInput)
			mon.Check()
		case "FAIL_NEXT":
			n, _ := strconv.Atoi(arg)
			host.FailNext(n)
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			log.SessionEnd(requests)
			return 0
		default:
			fmt.Fprintf(out, "ERROR unknown command %q\n", fields[0])
		}
	}
	log.SessionEnd(requests)
	return 0
}

func formatState(st route.State) string {
	if st.Phase != route.RouteApplied {
		return "requested=none active=none fallback=false"
	}
	return fmt.Sprintf("requested=%s active=%s fallback=%t", st.Requested, st.Active, st.Fallback())
}
