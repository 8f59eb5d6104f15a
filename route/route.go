// Package route decides which physical audio route a call session uses and
// keeps the host audio session consistent with that decision as devices come
// and go.
package route

import (
	"fmt"
	"strconv"
	"strings"
)

// Route is a logical audio route. The numeric values match the ones the
// mobile bridges expose.
type Route int

const (
	BuiltIn   Route = 1
	Speaker   Route = 2
	Bluetooth Route = 3
)

var names = map[Route]string{
	BuiltIn:   "builtin",
	Speaker:   "speaker",
	Bluetooth: "bluetooth",
}

func (r Route) Valid() bool {
	_, ok := names[r]
	return ok
}

func (r Route) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return "route(" + strconv.Itoa(int(r)) + ")"
}

// FromInt converts a bridge value into a Route.
func FromInt(v int) (Route, error) {
	r := Route(v)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRoute, v)
	}
	return r, nil
}

// Parse accepts route names and their numeric values.
func Parse(s string) (Route, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "builtin", "built-in", "built_in", "earpiece":
		return BuiltIn, nil
	case "speaker", "loudspeaker":
		return Speaker, nil
	case "bluetooth", "bt":
		return Bluetooth, nil
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return FromInt(v)
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRoute, s)
}

func (r Route) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoute, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Route) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

type Phase int

const (
	Uninitialized Phase = iota
	RouteApplied
)

func (p Phase) String() string {
	if p == RouteApplied {
		return "applied"
	}
	return "uninitialized"
}

// State is the route decision in effect. Active can differ from Requested
// when the requested device is not available.
type State struct {
	Phase     Phase
	Requested Route
	Active    Route
}

// Fallback reports whether the session is running on a substitute route.
func (s State) Fallback() bool {
	return s.Phase == RouteApplied && s.Active != s.Requested
}
