package link

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/plasmapost/machine"
	"github.com/mastercactapus/plasmapost/spjs"
)

// spjsBatch is the most lines sent in one sendjson command.
const spjsBatch = 100

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "cmd_" + strconv.FormatInt(id, 36)
}

// ErrQueueWiped is returned when the server drops queued lines.
var ErrQueueWiped = errors.New("spjs queue wiped")

// SPJSAdapter talks to a controller through Serial Port JSON Server, which
// does the flow control.
type SPJSAdapter struct {
	sp      *spjs.SPJS
	port    string
	baud    int
	dialect *Dialect

	Log logrus.FieldLogger

	cmds    chan adapterMessage
	aborts  chan struct{}
	waiting map[string]chan error
	reports reportHandler

	// jobs is the number of ReadFrom calls in progress.
	jobs int32

	mx    sync.Mutex
	last  machine.State
	state chan machine.State

	probes      []machine.ProbeResult
	getProbes   chan []machine.ProbeResult
	resetProbes chan struct{}
}

var _ machine.Adapter = &SPJSAdapter{}

type adapterMessage struct {
	spjs.JSON
	wait chan error
}

// NewSPJSAdapter uses port on the server, opening it at baud with the
// buffer algorithm for d if needed.
func NewSPJSAdapter(sp *spjs.SPJS, port string, baud int, d *Dialect) *SPJSAdapter {
	adapter := &SPJSAdapter{
		sp:          sp,
		port:        port,
		baud:        baud,
		dialect:     d,
		Log:         logrus.StandardLogger(),
		waiting:     make(map[string]chan error, 100),
		cmds:        make(chan adapterMessage, 1000),
		aborts:      make(chan struct{}),
		state:       make(chan machine.State),
		getProbes:   make(chan []machine.ProbeResult),
		resetProbes: make(chan struct{}),
	}
	go adapter.loop()

	return adapter
}

func (adapter *SPJSAdapter) Probes() []machine.ProbeResult { return <-adapter.getProbes }

func (adapter *SPJSAdapter) ResetProbes() { adapter.resetProbes <- struct{}{} }

func (adapter *SPJSAdapter) State() chan machine.State { return adapter.state }

func (adapter *SPJSAdapter) CurrentState() machine.State {
	adapter.mx.Lock()
	defer adapter.mx.Unlock()
	return adapter.last
}

func (adapter *SPJSAdapter) setMachineState(state machine.State) {
	adapter.mx.Lock()
	adapter.last = state
	adapter.mx.Unlock()
	select {
	case adapter.state <- state:
	default:
	}
}

// handleData takes one frame from the port, which may hold several lines.
func (adapter *SPJSAdapter) handleData(data string) {
	for _, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		state, prb, err := adapter.reports.handle(adapter.CurrentState(), line)
		if err != nil {
			adapter.Log.WithError(err).Error("parse report")
			continue
		}
		if state != nil {
			adapter.setMachineState(*state)
		}
		if prb != nil {
			adapter.probes = append(adapter.probes, *prb)
		}
	}
}

// fail ends every wait with err.
func (adapter *SPJSAdapter) fail(err error) {
	for key, ch := range adapter.waiting {
		ch <- err
		delete(adapter.waiting, key)
	}
}

func (adapter *SPJSAdapter) loop() {
	for {
		select {
		case adapter.getProbes <- adapter.probes:
		case <-adapter.resetProbes:
			adapter.probes = nil
		case resp := <-adapter.sp.Messages():
			switch msg := resp.(type) {
			case *spjs.DataFrame:
				if msg.Port == adapter.port {
					adapter.handleData(msg.Data)
				}
			case *spjs.CmdStatus:
				switch msg.Cmd {
				case "WipedQueue":
					adapter.fail(ErrQueueWiped)
				case "Complete":
					if ch := adapter.waiting[msg.ID]; ch != nil {
						ch <- nil
						delete(adapter.waiting, msg.ID)
					}
				}
			case *spjs.ErrorMessage:
				adapter.Log.WithField("port", adapter.port).Error(msg.Error)
			case *spjs.SerialPortList:
				port, ok := msg.Find(adapter.port)
				if !ok {
					adapter.Log.WithField("port", adapter.port).Warn("port not listed by spjs")
					break
				}
				if !port.IsOpen {
					adapter.Log.WithField("port", adapter.port).Info("opening port")
					adapter.sp.Open(adapter.port, adapter.baud, adapter.dialect.spjsBuffer)
				}
			}
		case <-adapter.aborts:
			adapter.fail(ErrReset)
		case msg := <-adapter.cmds:
			adapter.sp.SendJSON(msg.JSON)
			if msg.wait != nil {
				adapter.waiting[msg.Data[len(msg.Data)-1].ID] = msg.wait
			}
		}
	}
}

// ReadFrom queues every line and returns when the server reports the last
// one complete.
func (adapter *SPJSAdapter) ReadFrom(r io.Reader) (n int64, err error) {
	atomic.AddInt32(&adapter.jobs, 1)
	defer atomic.AddInt32(&adapter.jobs, -1)

	polled := len(adapter.dialect.statusLines) > 0
	if polled {
		state := adapter.CurrentState()
		state.Status = "Run"
		adapter.setMachineState(state)
	}

	n, err = adapter.queue(r)
	if err != nil || !polled {
		return n, err
	}
	_, err = adapter.queue(bytes.NewReader(bytes.Join(adapter.dialect.statusLines, nil)))
	return n, err
}

// queue sends the lines of r in batches and waits for the last one.
func (adapter *SPJSAdapter) queue(r io.Reader) (n int64, err error) {
	scan := bufio.NewScanner(r)
	var wait chan error
	for {
		var j spjs.JSON
		j.Port = adapter.port
		for scan.Scan() {
			n += int64(len(scan.Bytes())) + 1
			line := adapter.dialect.clean(scan.Bytes())
			if line == nil {
				continue
			}
			j.Data = append(j.Data, spjs.Data{
				Data: string(bytes.TrimSpace(line)) + "\n",
				ID:   nextID(),
			})
			for _, extra := range adapter.dialect.followUp(line) {
				j.Data = append(j.Data, spjs.Data{Data: string(extra), ID: nextID()})
			}
			if len(j.Data) >= spjsBatch {
				break
			}
		}
		if len(j.Data) == 0 {
			break
		}
		wait = make(chan error, 1)
		adapter.cmds <- adapterMessage{JSON: j, wait: wait}
	}
	if err := scan.Err(); err != nil {
		return n, err
	}

	if wait == nil {
		return n, nil
	}

	return n, <-wait
}

// SendRealtime sends the dialect's command on its own; the server passes
// realtime characters straight through. Status lines for dialects without a
// realtime status are queued, and skipped while a job is streaming.
func (adapter *SPJSAdapter) SendRealtime(r machine.Realtime) error {
	d := adapter.dialect
	if data, ok := d.realtime[r]; ok {
		adapter.sp.Send(adapter.port, string(data))
		if r == machine.RealtimeReset && d.resetHalts {
			adapter.aborts <- struct{}{}
		}
		return nil
	}
	if r == machine.RealtimeStatus && len(d.statusLines) > 0 {
		if atomic.LoadInt32(&adapter.jobs) > 0 {
			return nil
		}
		j := spjs.JSON{Port: adapter.port}
		for _, l := range d.statusLines {
			j.Data = append(j.Data, spjs.Data{Data: string(l), ID: nextID()})
		}
		adapter.cmds <- adapterMessage{JSON: j}
		return nil
	}
	return errors.Wrapf(machine.ErrUnsupported, "%s on %s", r, d)
}

func (adapter *SPJSAdapter) Write(p []byte) (int, error) {
	n, err := adapter.ReadFrom(bytes.NewReader(p))
	return int(n), err
}
