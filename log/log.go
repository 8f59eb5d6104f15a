package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

var (
	diagLog   zerolog.Logger
	diagFile  *os.File
	routeFile *os.File
	logMu     sync.Mutex
	logReady  bool
	pid       int
	dir       string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -log-path flag
	if flagPath != "" {
		return absPath(flagPath)
	}

	// Priority 2: AUDIOROUTE_LOG_PATH environment variable
	if envPath := os.Getenv("AUDIOROUTE_LOG_PATH"); envPath != "" {
		return absPath(envPath)
	}

	// Priority 3: XDG state directory
	return filepath.Join(xdg.StateHome, "audioroute", "logs"), nil
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	routePath := filepath.Join(dir, "route_log.txt")
	routeFile, err = os.OpenFile(routePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if routeFile != nil {
		routeFile.Close()
		routeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// RouteApplied records a route decision in the diagnostics log and appends
// a line to route_log.txt.
func RouteApplied(requested, active, cause string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("requested", requested).
		Str("active", active).
		Str("cause", cause).
		Bool("fallback", requested != active).
		Msg("route_applied")

	logMu.Lock()
	defer logMu.Unlock()
	if routeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s->%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, requested, active, cause)
	routeFile.WriteString(line)
}

func InventoryChanged(devices int, bluetooth bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("devices", devices).
		Bool("bluetooth", bluetooth).
		Msg("inventory_changed")
}

func SessionStart(backend, socket string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Str("socket", socket).
		Msg("session_start")
}

func SessionEnd(requests int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("requests", requests).
		Msg("session_end")
}
