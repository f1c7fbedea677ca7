package post

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/gcode"
)

// Rapid moves to target at travel speed.
func (t *Translator) Rapid(target coord.Point) error {
	err := t.rapid(target, t.compensate(target))
	if err != nil {
		return err
	}
	t.pos = target
	return nil
}

// rapid writes the G0 line(s) to reach out. pos is not updated.
func (t *Translator) rapid(target, out coord.Point) error {
	if !t.cfg.SplitRapid {
		tokens := t.changed(out, 'X', 'Y', 'Z')
		if len(tokens) == 0 {
			return nil
		}
		return t.move("G0", t.withFeed(tokens, t.cfg.Speeds.TravelXY))
	}

	z := func() error {
		tokens := t.changed(out, 'Z')
		if len(tokens) == 0 {
			return nil
		}
		return t.move("G0", t.withFeed(tokens, t.cfg.Speeds.TravelZ))
	}
	xy := func() error {
		tokens := t.changed(out, 'X', 'Y')
		if len(tokens) == 0 {
			return nil
		}
		return t.move("G0", t.withFeed(tokens, t.cfg.Speeds.TravelXY))
	}

	// lift before travelling, travel before lowering
	first, second := xy, z
	if target.Z > t.pos.Z {
		first, second = z, xy
	}
	err := first()
	if err != nil {
		return err
	}
	return second()
}

// Linear cuts to target. The requested feed is ignored; the configured cut
// speed is always used.
func (t *Translator) Linear(target coord.Point, feed float64) error {
	if t.cfg.Subdivide.Enabled {
		dist := t.pos.Distance(target)
		if dist > t.cfg.Subdivide.Step {
			n := int(math.Ceil(dist / t.cfg.Subdivide.Step))
			for _, p := range t.pos.Split(target, n) {
				err := t.linear(p)
				if err != nil {
					return err
				}
			}
			return nil
		}
	}
	return t.linear(target)
}

func (t *Translator) linear(target coord.Point) error {
	tokens := t.changed(t.compensate(target), 'X', 'Y', 'Z')
	if len(tokens) > 0 {
		err := t.move("G1", t.withFeed(tokens, t.cfg.Speeds.Cut))
		if err != nil {
			return err
		}
	}
	t.pos = target
	return nil
}

// Circular cuts an arc from the current position to end. It returns
// ErrLinearize, writing nothing, if the arc cannot be sent as G2/G3.
func (t *Translator) Circular(clockwise bool, plane coord.Plane, center, end coord.Point, feed float64) error {
	arc := coord.Arc{
		Plane:     plane,
		Start:     t.pos,
		Center:    center,
		End:       end,
		Clockwise: clockwise,
	}
	offset, err := EncodeArc(plane, arc.Start, center, end, clockwise)
	if err == nil {
		err = t.checkArc(arc)
	}
	if err != nil {
		t.stats.Linearized++
		t.Log.WithFields(logrus.Fields{
			"plane":  plane,
			"radius": arc.Radius(),
			"sweep":  arc.Sweep(),
		}).WithError(err).Debug("rejecting arc")
		return err
	}

	tokens := t.changed(t.compensate(end), 'X', 'Y', 'Z')
	tokens = append(tokens,
		gcode.PositionFormat.Token('I', offset.I),
		gcode.PositionFormat.Token('J', offset.J),
	)
	err = t.move(offset.Command, t.withFeed(tokens, t.cfg.Speeds.Cut))
	if err != nil {
		return err
	}
	t.pos = end
	return nil
}

// checkArc applies the geometric limits and rejects helical arcs, including
// ones that would become helical through surface compensation.
func (t *Translator) checkArc(a coord.Arc) error {
	if !t.cfg.Arcs.Accept(a) {
		return ErrLinearize
	}
	if gcode.PositionFormat.Format(a.Start.Z) != gcode.PositionFormat.Format(a.End.Z) {
		return ErrLinearize
	}
	start, end := t.compensate(a.Start), t.compensate(a.End)
	if gcode.PositionFormat.Format(start.Z) != gcode.PositionFormat.Format(end.Z) {
		return ErrLinearize
	}
	return nil
}
