//go:build linux

package main

import (
	"context"

	"audioroute/log"
	"audioroute/watch"
)

const backendName = "pulse"

// platformHints watches the ALSA device nodes so card hotplug is picked up
// before the next poll.
func platformHints(ctx context.Context) []<-chan struct{} {
	ch, err := watch.DevNodes(ctx, watch.SoundDevDir)
	if err != nil {
		log.Warnf("device node watch disabled: %v", err)
		return nil
	}
	return []<-chan struct{}{ch}
}
