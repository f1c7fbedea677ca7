package link

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/machine"
)

// reply is the meaning of one line from the controller to the writer.
type reply int

const (
	replyOther reply = iota

	// replyAck accepts the oldest unacknowledged line.
	replyAck

	// replyAckError rejects the oldest unacknowledged line.
	replyAckError

	// replyFault is an error for the oldest line; its ack still follows.
	replyFault

	// replyReset means the controller restarted or halted and will not
	// acknowledge anything in flight.
	replyReset
)

// A Dialect is the line protocol of one controller firmware.
type Dialect struct {
	Name string

	// BufferSize is the controller receive buffer in bytes. MaxLines, if
	// set, also limits the number of unacknowledged lines.
	BufferSize int
	MaxLines   int

	classify func(line []byte) reply

	// dropComments strips comments before sending. Marlin does not
	// acknowledge a line that is only a comment.
	dropComments bool

	// realtime is written as-is, ahead of queued lines.
	realtime map[machine.Realtime][]byte

	// resetHalts means the reset command leaves the controller unable to
	// acknowledge lines already sent.
	resetHalts bool

	// statusLines are queued, while nothing else is, to get a position
	// report when the firmware has no realtime status command.
	statusLines [][]byte

	// touchLines follow each G38 line when the firmware does not report
	// the contact point on its own. The first one echoes touchMarker.
	touchLines [][]byte

	// spjsBuffer is the Serial Port JSON Server buffer algorithm.
	spjsBuffer string
}

// touchMarker is echoed ahead of the position report for a G38 contact.
const touchMarker = "PRB"

// Grbl acks with "ok" or "error:<code>", reports status as
// <Idle|MPos:..|WCO:..> on '?' and contact points as [PRB:x,y,z:1].
var Grbl = &Dialect{
	Name:       "grbl",
	BufferSize: 128,
	classify:   classifyGrbl,
	realtime: map[machine.Realtime][]byte{
		machine.RealtimeStatus: {'?'},
		machine.RealtimeHold:   {'!'},
		machine.RealtimeResume: {'~'},
		machine.RealtimeReset:  {0x18},
	},
	spjsBuffer: "grbl",
}

// Marlin runs one line at a time. Errors are printed ahead of the "ok" for
// the line, and M114 answers with X:.. Y:.. Z:.. E:.. Count ...
//
// Reset needs EMERGENCY_PARSER for M112 to skip the queue. G38 needs
// G38_PROBE_TARGET and machine moves need CNC_COORDINATE_SYSTEMS.
var Marlin = &Dialect{
	Name:         "marlin",
	BufferSize:   128,
	MaxLines:     1,
	classify:     classifyMarlin,
	dropComments: true,
	realtime: map[machine.Realtime][]byte{
		machine.RealtimeReset: []byte("M112\n"),
	},
	resetHalts:  true,
	statusLines: [][]byte{[]byte("M400\n"), []byte("M114\n")},
	touchLines:  [][]byte{[]byte("M118 " + touchMarker + "\n"), []byte("M114\n")},
	spjsBuffer:  "marlin",
}

var dialects = []*Dialect{Marlin, Grbl}

// DialectByName returns the dialect called name.
func DialectByName(name string) (*Dialect, error) {
	for _, d := range dialects {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, errors.Errorf("unknown controller dialect '%s'", name)
}

func (d *Dialect) String() string { return d.Name }

func classifyGrbl(line []byte) reply {
	switch {
	case bytes.Equal(line, []byte("ok")):
		return replyAck
	case bytes.HasPrefix(bytes.ToLower(line), []byte("error:")):
		return replyAckError
	case bytes.HasPrefix(line, []byte("Grbl")):
		return replyReset
	}
	return replyOther
}

func classifyMarlin(line []byte) reply {
	switch {
	case bytes.Equal(line, []byte("ok")), bytes.HasPrefix(line, []byte("ok ")):
		return replyAck
	case bytes.HasPrefix(line, []byte("Error:")):
		if bytes.Contains(line, []byte("halted")) || bytes.Contains(line, []byte("kill()")) {
			return replyReset
		}
		return replyFault
	case bytes.HasPrefix(line, []byte("echo:Unknown command")):
		return replyFault
	case bytes.Equal(line, []byte("start")):
		return replyReset
	}
	return replyOther
}

// clean returns line as it is sent, ending in a newline, or nil if there is
// nothing to send.
func (d *Dialect) clean(line []byte) []byte {
	if !d.dropComments {
		if len(bytes.TrimSpace(line)) == 0 {
			return nil
		}
		return line
	}
	if i := bytes.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	return append(line[:len(line):len(line)], '\n')
}

// followUp returns the lines to send after line.
func (d *Dialect) followUp(line []byte) [][]byte {
	if len(d.touchLines) == 0 || !bytes.HasPrefix(bytes.TrimSpace(line), []byte("G38")) {
		return nil
	}
	return d.touchLines
}

// report is a parsed line that is not an acknowledgement.
type report struct {
	state    *machine.State
	probe    *machine.ProbeResult
	position *coord.Point
	touch    bool
}

func parseReport(prev machine.State, line string) (r report, err error) {
	line = strings.TrimSpace(line)
	switch {
	case line == touchMarker:
		r.touch = true
	case strings.HasPrefix(line, "<"):
		r.state, err = parseStatus(prev, line)
	case strings.HasPrefix(line, "[PRB:"):
		r.probe, err = parseProbe(line)
	case strings.HasPrefix(line, "X:"):
		var p coord.Point
		p, err = parsePosition(line)
		if err == nil {
			r.position = &p
		}
	}
	return r, err
}

// reportHandler turns reports into states and contact points. Bare position
// reports are contact points when they follow touchMarker, and idle states
// otherwise. It is used from one goroutine.
type reportHandler struct {
	touched bool
}

func (h *reportHandler) handle(prev machine.State, line string) (*machine.State, *machine.ProbeResult, error) {
	r, err := parseReport(prev, line)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case r.touch:
		h.touched = true
	case r.position != nil && h.touched:
		h.touched = false
		return nil, &machine.ProbeResult{Point: *r.position, Valid: true}, nil
	case r.position != nil:
		return &machine.State{Status: "Idle", MPos: *r.position}, nil, nil
	}
	return r.state, r.probe, nil
}
