// Package login installs the daemon as a per-user service that starts at
// login.
package login

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
)

const Label = "audioroute"

var ErrUnsupported = errors.New("start at login is not supported on this platform")

// daemonArgs is the command line the service runs: the daemon subcommand
// with flags before it.
func daemonArgs(exe string, flags []string) []string {
	args := append([]string{exe}, flags...)
	return append(args, "daemon")
}

// forwardedEnv lists the AUDIOROUTE_* variables set in the current
// environment, sorted as os.Environ returns them.
func forwardedEnv() [][2]string {
	var env [][2]string
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, "AUDIOROUTE_") && v != "" {
			env = append(env, [2]string{k, v})
		}
	}
	return env
}

func systemdUnit(args []string, env [][2]string) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	b.WriteString("Description=audioroute audio route daemon\n")
	b.WriteString("After=pipewire-pulse.service pulseaudio.service\n\n")
	b.WriteString("[Service]\n")
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = systemdQuote(a)
	}
	fmt.Fprintf(&b, "ExecStart=%s\n", strings.Join(quoted, " "))
	for _, kv := range env {
		fmt.Fprintf(&b, "Environment=%s\n", systemdQuote(kv[0]+"="+kv[1]))
	}
	b.WriteString("Restart=on-failure\n\n")
	b.WriteString("[Install]\n")
	b.WriteString("WantedBy=default.target\n")
	return b.String()
}

func systemdQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"\\") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func launchdPlist(args []string, env [][2]string) string {
	var prog strings.Builder
	for _, a := range args {
		fmt.Fprintf(&prog, "\t\t<string>%s</string>\n", html.EscapeString(a))
	}
	var vars strings.Builder
	for _, kv := range env {
		fmt.Fprintf(&vars, "\t\t<key>%s</key>\n\t\t<string>%s</string>\n", html.EscapeString(kv[0]), html.EscapeString(kv[1]))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.%s.daemon</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<dict>
		<key>SuccessfulExit</key>
		<false/>
	</dict>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
%s	</dict>
</dict>
</plist>
`, Label, prog.String(), vars.String())
}
