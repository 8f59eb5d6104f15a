//go:build !linux

package main

import "context"

const backendName = "miniaudio"

// Device changes are only seen by polling here.
func platformHints(context.Context) []<-chan struct{} {
	return nil
}
