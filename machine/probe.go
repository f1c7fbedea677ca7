package machine

import (
	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/gcode"
)

// ProbeResult is one touch-off of the sheet surface. It encodes as the
// probe file read by meshlevel.ReadProbes.
type ProbeResult struct {
	coord.Point
	Valid bool
}

// ProbeOptions configure a straight Z probe with the torch's ohmic or
// float switch sensing.
type ProbeOptions struct {
	ZeroZAxis bool

	// Offset is the Z assigned at the touch point when ZeroZAxis is set.
	Offset float64

	FeedRate  float64
	MaxTravel float64
}

func (opt ProbeOptions) validate() error {
	if opt.FeedRate <= 0 {
		return errors.New("probe feed rate must be positive")
	}
	if opt.MaxTravel >= 0 {
		return errors.New("probe max travel must be negative")
	}
	return nil
}

// ProbeZ probes straight down from the current location.
func (m *Machine) ProbeZ(opt ProbeOptions) (*ProbeResult, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	stat := m.CurrentState()
	if !stat.Idle() && stat.Status != "Hold:0" {
		return nil, errors.Wrapf(ErrNotIdle, "status '%s'", stat.Status)
	}

	m.Adapter.ResetProbes()
	var p gcode.Program
	opt.probeCommand(&p, opt.ZeroZAxis, stat.MPos.Z)
	err := m.runProgram(&p)
	if err != nil {
		return nil, err
	}
	res := m.Adapter.Probes()
	if len(res) == 0 {
		return nil, errors.New("no probe data returned")
	}

	return &res[0], nil
}

func machineMove(p *gcode.Program, axes ...gcode.Token) {
	p.WriteLine(gcode.Command("G53 G0", axes...))
}

// probeCommand probes down by MaxTravel then lifts to the machine Z lift.
func (opt ProbeOptions) probeCommand(p *gcode.Program, zero bool, lift float64) {
	p.WriteLine(gcode.Command("G91"))
	p.WriteLine(gcode.Command("G38.2",
		gcode.PositionFormat.Token('Z', opt.MaxTravel),
		gcode.FeedFormat.Token('F', opt.FeedRate),
	))
	p.WriteLine(gcode.Command("G90"))
	if zero {
		p.WriteLine(gcode.Command("G92", gcode.PositionFormat.Token('Z', opt.Offset)))
	}
	machineMove(p, gcode.PositionFormat.Token('Z', lift))
}
