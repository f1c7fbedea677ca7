package machine

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/plasmapost/coord"
)

type fakeAdapter struct {
	state    State
	realtime []Realtime
	sent     bytes.Buffer
	probes   []ProbeResult

	// probe is the result reported for each G38.2 line.
	probe  func(n int) ProbeResult
	nProbe int
}

var _ Adapter = &fakeAdapter{}

func (a *fakeAdapter) Probes() []ProbeResult { return a.probes }
func (a *fakeAdapter) ResetProbes()          { a.probes = nil }
func (a *fakeAdapter) State() chan State     { return nil }
func (a *fakeAdapter) CurrentState() State   { return a.state }

func (a *fakeAdapter) SendRealtime(r Realtime) error {
	a.realtime = append(a.realtime, r)
	return nil
}
func (a *fakeAdapter) Write(p []byte) (int, error) {
	n, err := a.ReadFrom(bytes.NewReader(p))
	return int(n), err
}
func (a *fakeAdapter) ReadFrom(r io.Reader) (int64, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return 0, err
	}
	a.sent.Write(data)
	if a.probe != nil {
		for _, l := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(l, "G38.2") {
				a.nProbe++
				a.probes = append(a.probes, a.probe(a.nProbe))
			}
		}
	}
	return int64(len(data)), nil
}

func TestMachine_Run(t *testing.T) {
	a := &fakeAdapter{state: State{Status: "Idle"}}
	m := NewMachine(a)

	var lines int
	err := m.Run(context.Background(), strings.NewReader("G90\nG21\nG0 X1.000\n"), func(n int) { lines = n })
	require.NoError(t, err)
	assert.Equal(t, "G90\nG21\nG0 X1.000\n", a.sent.String())
	assert.Equal(t, 3, lines)
}

func TestMachine_RunNotIdle(t *testing.T) {
	a := &fakeAdapter{state: State{Status: "Run"}}
	err := NewMachine(a).Run(context.Background(), strings.NewReader("G90\n"), nil)
	assert.True(t, errors.Is(err, ErrNotIdle))
	assert.Contains(t, err.Error(), "status 'Run'")
	assert.Empty(t, a.sent.String())
}

func TestMachine_RunCancelled(t *testing.T) {
	a := &fakeAdapter{state: State{Status: "Idle"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMachine(a).Run(ctx, strings.NewReader("G90\n"), nil)
	assert.Equal(t, context.Canceled, err)
}

func TestMachine_Realtime(t *testing.T) {
	a := &fakeAdapter{}
	m := NewMachine(a)
	require.NoError(t, m.Hold())
	require.NoError(t, m.Resume())
	require.NoError(t, m.Reset())
	require.NoError(t, m.RequestStatus())
	assert.Equal(t, []Realtime{RealtimeHold, RealtimeResume, RealtimeReset, RealtimeStatus}, a.realtime)
}

func TestState_WPos(t *testing.T) {
	s := State{MPos: coord.Point{X: 5, Z: -2}, WCO: coord.Point{X: 1, Z: -12}}
	assert.Equal(t, coord.Point{X: 4, Z: 10}, s.WPos())
}
