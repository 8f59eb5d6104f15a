package route

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRoute         = errors.New("invalid route value")
	ErrSessionConfiguration = errors.New("audio session configuration failed")
	ErrClosed               = errors.New("route engine closed")
)

// ApplyError is returned when the host rejects a route configuration.
// It matches ErrSessionConfiguration with errors.Is.
type ApplyError struct {
	Route Route
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %s route: %v", e.Route, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

func (e *ApplyError) Is(target error) bool {
	return target == ErrSessionConfiguration
}
