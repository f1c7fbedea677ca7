package machine

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
)

// ErrUnsupported is returned for a realtime command the controller firmware
// has no equivalent for.
var ErrUnsupported = errors.New("not supported by controller")

// Realtime is a command handled ahead of any queued lines.
type Realtime int

const (
	RealtimeStatus Realtime = iota
	RealtimeHold
	RealtimeResume
	RealtimeReset
)

func (r Realtime) String() string {
	switch r {
	case RealtimeStatus:
		return "status"
	case RealtimeHold:
		return "hold"
	case RealtimeResume:
		return "resume"
	case RealtimeReset:
		return "reset"
	}
	return "unknown"
}

// An Adapter is the connection to a table controller.
type Adapter interface {
	Probes() []ProbeResult
	ResetProbes()

	// State delivers every status report; CurrentState is the latest.
	State() chan State
	CurrentState() State

	// SendRealtime bypasses the line queue. It returns ErrUnsupported if the
	// firmware cannot do r.
	SendRealtime(r Realtime) error

	// Write and ReadFrom return once every line has been acknowledged.
	Write([]byte) (int, error)
	ReadFrom(io.Reader) (int64, error)
}

// State is one controller status report.
type State struct {
	Status string
	MPos   coord.Point
	WCO    coord.Point
}

// WPos is the position in work coordinates.
func (s State) WPos() coord.Point { return s.MPos.Sub(s.WCO) }

func (s State) Idle() bool { return s.Status == "Idle" }
