// Package shutdown ties process termination signals to contexts.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context returns a copy of parent that is canceled on the first
// termination signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// Notify relays termination signals to ch.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}
