package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"audioroute/audio"
	"audioroute/bluez"
	"audioroute/doctor"
	"audioroute/log"
	"audioroute/login"
	"audioroute/shutdown"
)

var version = "dev"

const usage = `usage: audioroute [flags] <command>

commands:
  daemon           own the audio session and serve requests
  status           print the current route and devices
  set <route>      switch to builtin, speaker or bluetooth
  bluetooth        print whether a bluetooth accessory is usable
  pick             choose a route interactively
  watch            live view of the route
  doctor           run interactive diagnostics
  autostart <on|off|status>
                   start the daemon at login

flags:`

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	if cfg.Version {
		fmt.Printf("audioroute %s\n", version)
		return 0
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	if cfg.Test {
		return runTestMode(os.Stdin, os.Stdout)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 1
	}

	switch args[0] {
	case "daemon":
		initCrashLog()
		err = runDaemon(ctx, cfg)
	case "status":
		err = runStatus(cfg.Socket, os.Stdout)
	case "set":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: audioroute set <builtin|speaker|bluetooth>")
			return 1
		}
		err = runSet(cfg.Socket, args[1], os.Stdout)
	case "bluetooth":
		err = runBluetooth(cfg.Socket, os.Stdout)
	case "pick":
		err = runPick(cfg.Socket, os.Stdout)
	case "watch":
		err = runWatch(cfg.Socket)
	case "doctor":
		return runDoctor(cfg)
	case "autostart":
		err = runAutostart(args[1:], globalFlags(), os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		return 1
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// initCrashLog sends runtime crash output to crash_log.txt in the log dir.
func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func runDoctor(cfg *Config) int {
	// A running daemon would treat every route the doctor sets as drift.
	if daemonRunning(cfg.Socket) {
		fmt.Printf("audioroute daemon is running on %s, stop it before running doctor\n", cfg.Socket)
		return 1
	}

	h, err := openHost(cfg)
	if err != nil {
		fmt.Printf("Error initializing audio: %v\n", err)
		return 1
	}
	defer h.Close()

	var bt doctor.Bluetooth
	if h.bt != nil {
		bt = h.bt
	}
	return doctor.Run(h.session, bt, h.btErr)
}

// globalFlags returns the flags given before the subcommand.
func globalFlags() []string {
	return os.Args[1 : len(os.Args)-flag.NArg()]
}

func runAutostart(args, flags []string, w io.Writer) error {
	action := "status"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "on":
		if err := login.Enable(flags); err != nil {
			return err
		}
		fmt.Fprintln(w, "audioroute daemon will start at login")
	case "off":
		if err := login.Disable(); err != nil {
			return err
		}
		fmt.Fprintln(w, "audioroute daemon will no longer start at login")
	case "status":
		fmt.Fprintf(w, "start at login: %t\n", login.Enabled())
	default:
		return fmt.Errorf("unknown autostart action %q (use on, off or status)", action)
	}
	return nil
}

// The BlueZ client backs both the session's connection check and doctor.
var (
	_ audio.BluetoothChecker = (*bluez.Client)(nil)
	_ doctor.Bluetooth       = (*bluez.Client)(nil)
)
