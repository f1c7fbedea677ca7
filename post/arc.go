package post

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
)

// ErrLinearize is returned for an arc the controller cannot take as G2/G3.
// The caller should resubmit it as linear moves.
var ErrLinearize = errors.New("arc must be linearized")

// ArcOffset is an encoded arc: the center relative to the arc start and
// the motion command.
type ArcOffset struct {
	I, J    float64
	Command string
}

// EncodeArc encodes an arc in the XY plane. I/J are center minus start.
func EncodeArc(plane coord.Plane, start, center, end coord.Point, clockwise bool) (ArcOffset, error) {
	if plane != coord.PlaneXY {
		return ArcOffset{}, ErrLinearize
	}
	res := ArcOffset{
		I:       center.X - start.X,
		J:       center.Y - start.Y,
		Command: "G3",
	}
	if clockwise {
		res.Command = "G2"
	}
	return res, nil
}

// Accept reports if the arc is within the limits.
func (l ArcLimits) Accept(a coord.Arc) bool {
	if a.Chord() < l.MinChord {
		return false
	}
	r := a.Radius()
	if r < l.MinRadius || r > l.MaxRadius {
		return false
	}
	sweep := a.Sweep() * 180 / math.Pi
	return sweep >= l.MinSweep && sweep <= l.MaxSweep
}
