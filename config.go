package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/vimeo/dials"
	"github.com/vimeo/dials/sources/env"
	"github.com/vimeo/dials/sources/flag"

	"audioroute/watch"
)

type Config struct {
	Socket       string        `dialsdesc:"Daemon socket path" dialsflag:"socket" dialsenv:"AUDIOROUTE_SOCKET"`
	LogPath      string        `dialsdesc:"Log directory (default: XDG state dir, use ./ for current dir)" dialsflag:"log-path" dialsenv:"AUDIOROUTE_LOG_PATH"`
	PollInterval time.Duration `dialsdesc:"Device inventory poll interval" dialsflag:"poll-interval" dialsenv:"AUDIOROUTE_POLL_INTERVAL"`
	MetricsAddr  string        `dialsdesc:"Serve prometheus metrics on this address (e.g. localhost:9464)" dialsflag:"metrics-addr" dialsenv:"AUDIOROUTE_METRICS_ADDR"`
	Chime        bool          `dialsdesc:"Play a chime on the new output after each route change" dialsflag:"chime" dialsenv:"AUDIOROUTE_CHIME"`
	Fake         bool          `dialsdesc:"Use an in-memory audio session instead of the sound server" dialsflag:"fake" dialsenv:"AUDIOROUTE_FAKE"`
	Test         bool          `dialsdesc:"Test mode (headless, stdin-driven)" dialsflag:"test" dialsenv:"AUDIOROUTE_TEST"`
	Version      bool          `dialsdesc:"Print version and exit" dialsflag:"version" dialsenv:"AUDIOROUTE_VERSION"`
}

func socketPath() string {
	return filepath.Join(xdg.RuntimeDir, "audioroute.sock")
}

func defaultConfig() *Config {
	return &Config{
		Socket:       socketPath(),
		PollInterval: watch.DefaultInterval,
		Chime:        true,
	}
}

// loadConfig layers environment variables and then command-line flags over
// the defaults. Positional arguments are left in flag.Args.
func loadConfig(ctx context.Context) (*Config, error) {
	cfg := defaultConfig()
	flagSrc, err := flag.NewCmdLineSet(flag.DefaultFlagNameConfig(), cfg)
	if err != nil {
		return nil, err
	}
	d, err := dials.Config(ctx, cfg, &env.Source{}, flagSrc)
	if err != nil {
		return nil, err
	}
	return d.View(), nil
}
