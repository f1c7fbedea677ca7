package link

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/mastercactapus/plasmapost/machine"
)

// StatusInterval is how often a SerialAdapter asks for a status report.
const StatusInterval = 500 * time.Millisecond

// SerialAdapter talks to a controller over a direct connection.
type SerialAdapter struct {
	*Conn

	Log logrus.FieldLogger

	mx     sync.Mutex
	last   machine.State
	state  chan machine.State
	done   chan struct{}
	probes []machine.ProbeResult

	reports reportHandler
}

var _ machine.Adapter = &SerialAdapter{}

// OpenSerial opens a serial port and starts an adapter speaking d on it.
func OpenSerial(name string, baud int, d *Dialect) (*SerialAdapter, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, err
	}
	return NewSerialAdapter(port, d), nil
}

func NewSerialAdapter(rw io.ReadWriter, d *Dialect) *SerialAdapter {
	adapter := &SerialAdapter{
		Conn: NewConn(rw, d),
		Log:  logrus.StandardLogger(),

		state: make(chan machine.State),
		done:  make(chan struct{}),
	}
	go adapter.pollLoop()
	go adapter.readLoop()

	return adapter
}

// Close stops the adapter and closes the connection.
func (adapter *SerialAdapter) Close() error {
	err := adapter.Conn.Close()
	adapter.mx.Lock()
	select {
	case <-adapter.done:
	default:
		close(adapter.done)
	}
	adapter.mx.Unlock()
	return err
}

func (adapter *SerialAdapter) Probes() []machine.ProbeResult {
	adapter.mx.Lock()
	defer adapter.mx.Unlock()
	return append([]machine.ProbeResult(nil), adapter.probes...)
}

func (adapter *SerialAdapter) ResetProbes() {
	adapter.mx.Lock()
	adapter.probes = nil
	adapter.mx.Unlock()
}

func (adapter *SerialAdapter) State() chan machine.State { return adapter.state }

func (adapter *SerialAdapter) CurrentState() machine.State {
	adapter.mx.Lock()
	state := adapter.last
	adapter.mx.Unlock()
	return state
}

func (adapter *SerialAdapter) setState(state machine.State) {
	adapter.mx.Lock()
	adapter.last = state
	adapter.mx.Unlock()
	select {
	case adapter.state <- state:
	default:
	}
}

// ReadFrom streams r. Dialects that report position by queued lines cannot
// be polled while it runs; the state reads "Run" until the status asked for
// after the last line comes back.
func (adapter *SerialAdapter) ReadFrom(r io.Reader) (int64, error) {
	if len(adapter.Dialect().statusLines) == 0 {
		return adapter.Conn.ReadFrom(r)
	}

	state := adapter.CurrentState()
	state.Status = "Run"
	adapter.setState(state)

	n, err := adapter.Conn.ReadFrom(r)
	if err != nil {
		return n, err
	}
	return n, adapter.queryStatus()
}

func (adapter *SerialAdapter) Write(p []byte) (int, error) {
	n, err := adapter.ReadFrom(bytes.NewReader(p))
	return int(n), err
}

// poll requests a status report. Nothing is sent while a job is streaming
// for dialects that would have to queue the request.
func (adapter *SerialAdapter) poll() error {
	err := adapter.SendRealtime(machine.RealtimeStatus)
	if err == errBusy {
		return nil
	}
	return err
}

func (adapter *SerialAdapter) pollLoop() {
	t := time.NewTicker(StatusInterval)
	defer t.Stop()
	for {
		err := adapter.poll()
		if err == io.ErrClosedPipe {
			return
		}
		if err != nil {
			adapter.Log.WithError(err).Warn("status request")
		}
		select {
		case <-adapter.done:
			return
		case <-t.C:
		}
	}
}

func (adapter *SerialAdapter) readLoop() {
	buf := make([]byte, 1024)
	for {
		n, err := adapter.Read(buf)
		if err == io.ErrClosedPipe || err == io.EOF {
			return
		}
		if err != nil {
			adapter.Log.WithError(err).Error("read from port")
			continue
		}
		adapter.handle(string(buf[:n]))
	}
}

// handle runs on the read goroutine, so a report is recorded before the
// acknowledgement after it reaches the writer.
func (adapter *SerialAdapter) handle(data string) {
	state, prb, err := adapter.reports.handle(adapter.CurrentState(), data)
	if err != nil {
		adapter.Log.WithError(err).Error("parse report")
		return
	}
	if state != nil {
		adapter.setState(*state)
	}
	if prb != nil {
		adapter.mx.Lock()
		adapter.probes = append(adapter.probes, *prb)
		adapter.mx.Unlock()
	}
}
