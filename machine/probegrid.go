package machine

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/gcode"
)

// ProbeGridOptions configure a grid of Z probes over the sheet, starting at
// the current position and covering DistanceX by DistanceY.
type ProbeGridOptions struct {
	ProbeOptions

	DistanceX, DistanceY float64

	// Spacing is the largest distance between neighbouring probes.
	Spacing float64
}

func (opt ProbeGridOptions) validate() error {
	if err := opt.ProbeOptions.validate(); err != nil {
		return err
	}
	if opt.DistanceX <= 0 || opt.DistanceY <= 0 {
		return errors.New("probe grid size must be positive")
	}
	if opt.Spacing <= 0 {
		return errors.New("probe grid spacing must be positive")
	}
	return nil
}

// ProbeZGrid probes the corners and center from the current height, then
// the full grid lifting only to just above the highest point found.
func (m *Machine) ProbeZGrid(opt ProbeGridOptions) ([]ProbeResult, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	stat := m.CurrentState()
	if !stat.Idle() {
		return nil, errors.Wrapf(ErrNotIdle, "status '%s'", stat.Status)
	}

	m.ResetProbes()
	err := m.runProgram(opt.quickGrid(stat.MPos.X, stat.MPos.Y, stat.MPos.Z))
	if err != nil {
		return nil, errors.Wrap(err, "quick probe")
	}

	quick := m.Probes()
	if len(quick) == 0 {
		return nil, errors.New("no probe data returned")
	}

	maxZ := quick[0].Z
	for _, p := range quick[1:] {
		maxZ = math.Max(maxZ, p.Z)
	}
	maxZ += 0.2
	m.Log.WithField("clearance", maxZ).Info("probing grid")

	m.ResetProbes()
	err = m.runProgram(opt.fullGrid(stat.MPos.X, stat.MPos.Y, stat.MPos.Z, maxZ))
	if err != nil {
		return nil, errors.Wrap(err, "grid probe")
	}

	return m.Probes(), nil
}

func (opt ProbeGridOptions) probeAt(p *gcode.Program, x, y, lift float64) {
	machineMove(p,
		gcode.PositionFormat.Token('X', x),
		gcode.PositionFormat.Token('Y', y),
	)
	opt.probeCommand(p, false, lift)
}

// quickGrid probes the start point, then the far corners and center, and
// returns to the start.
func (opt ProbeGridOptions) quickGrid(x, y, z float64) *gcode.Program {
	var p gcode.Program
	opt.probeCommand(&p, opt.ZeroZAxis, z)

	opt.probeAt(&p, x, y+opt.DistanceY, z)
	opt.probeAt(&p, x+opt.DistanceX/2, y+opt.DistanceY/2, z)
	opt.probeAt(&p, x+opt.DistanceX, y, z)
	opt.probeAt(&p, x+opt.DistanceX, y+opt.DistanceY, z)
	machineMove(&p,
		gcode.PositionFormat.Token('X', x),
		gcode.PositionFormat.Token('Y', y),
	)

	return &p
}

// gridSize returns how many intervals to use on each axis so no two
// neighbouring probes are more than Spacing apart.
func (opt ProbeGridOptions) gridSize() (nx, ny int) {
	step := math.Sqrt(opt.Spacing * opt.Spacing / 2)
	nx = int(math.Ceil(opt.DistanceX / step))
	ny = int(math.Ceil(opt.DistanceY / step))
	return nx, ny
}

// fullGrid probes every grid point in a serpentine order, travelling at
// height, and returns to the start.
func (opt ProbeGridOptions) fullGrid(x, y, z, height float64) *gcode.Program {
	opt.MaxTravel += z - height
	nx, ny := opt.gridSize()

	var p gcode.Program
	machineMove(&p, gcode.PositionFormat.Token('Z', height))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			dx := opt.DistanceX / float64(nx) * float64(i)
			if j%2 != 0 {
				dx = opt.DistanceX - dx
			}
			opt.probeAt(&p, x+dx, y+opt.DistanceY/float64(ny)*float64(j), height)
		}
	}
	machineMove(&p, gcode.PositionFormat.Token('Z', z))
	machineMove(&p,
		gcode.PositionFormat.Token('X', x),
		gcode.PositionFormat.Token('Y', y),
	)

	return &p
}
