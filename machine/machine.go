package machine

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/plasmapost/gcode"
)

// ErrNotIdle is returned when a job is started while the controller is busy.
var ErrNotIdle = errors.New("controller is not idle")

type Machine struct {
	Adapter

	Log logrus.FieldLogger
}

func NewMachine(a Adapter) *Machine {
	return &Machine{
		Adapter: a,
		Log:     logrus.StandardLogger(),
	}
}

func (m *Machine) runProgram(p *gcode.Program) error {
	_, err := m.Adapter.ReadFrom(p.Reader())
	return err
}

// RequestStatus asks for a status report, delivered on State.
func (m *Machine) RequestStatus() error { return m.SendRealtime(RealtimeStatus) }

// Hold pauses motion.
func (m *Machine) Hold() error { return m.SendRealtime(RealtimeHold) }

// Resume continues after Hold.
func (m *Machine) Resume() error { return m.SendRealtime(RealtimeResume) }

// Reset aborts everything queued on the controller.
func (m *Machine) Reset() error { return m.SendRealtime(RealtimeReset) }

// Run streams a program and returns after the last line is acknowledged.
// progress, if set, is called with the number of lines handed to the adapter.
//
// Cancelling ctx stops streaming; lines already queued on the controller
// still run unless Reset is called.
func (m *Machine) Run(ctx context.Context, r io.Reader, progress func(lines int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stat := m.CurrentState()
	if !stat.Idle() {
		return errors.Wrapf(ErrNotIdle, "status '%s'", stat.Status)
	}

	m.Log.WithField("wpos", stat.WPos()).Info("starting job")
	n, err := m.Adapter.ReadFrom(&jobReader{ctx: ctx, r: r, progress: progress})
	if err != nil {
		return errors.Wrap(err, "stream job")
	}
	m.Log.WithField("bytes", n).Info("job complete")
	return nil
}

type jobReader struct {
	ctx      context.Context
	r        io.Reader
	lines    int
	progress func(int)
}

func (j *jobReader) Read(p []byte) (int, error) {
	if err := j.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := j.r.Read(p)
	if j.progress != nil {
		for _, b := range p[:n] {
			if b == '\n' {
				j.lines++
			}
		}
		j.progress(j.lines)
	}
	return n, err
}
