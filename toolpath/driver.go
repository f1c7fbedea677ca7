package toolpath

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/post"
)

// DefaultSegmentLength is used when a Driver has no SegmentLength.
const DefaultSegmentLength = 0.5

// Driver feeds events to a Translator the way a CAM host would: arcs the
// translator rejects are sent again as straight cuts.
type Driver struct {
	Translator *post.Translator

	// SegmentLength is the longest straight move used to replace an arc.
	SegmentLength float64

	Log logrus.FieldLogger
}

func NewDriver(tr *post.Translator, segLen float64) *Driver {
	return &Driver{
		Translator:    tr,
		SegmentLength: segLen,
		Log:           logrus.StandardLogger(),
	}
}

func (d *Driver) segmentLength() float64 {
	if d.SegmentLength > 0 {
		return d.SegmentLength
	}
	return DefaultSegmentLength
}

// Handle passes one event on.
func (d *Driver) Handle(ev post.Event) error {
	err := d.Translator.Handle(ev)
	if !errors.Is(err, post.ErrLinearize) {
		return err
	}

	c, ok := ev.(post.Circular)
	if !ok {
		return err
	}
	arc := coord.Arc{
		Plane:     c.Plane,
		Start:     d.Translator.Position(),
		Center:    c.Center,
		End:       c.End,
		Clockwise: c.Clockwise,
	}
	points := arc.Segment(d.segmentLength())
	if d.Log != nil {
		d.Log.WithFields(logrus.Fields{
			"plane":    c.Plane,
			"segments": len(points),
		}).Debug("linearizing arc")
	}
	for _, p := range points {
		err = d.Translator.Linear(p, c.Feed)
		if err != nil {
			return err
		}
	}
	return nil
}

// Feed passes every event on in order, stopping at the first error.
func (d *Driver) Feed(events []post.Event) error {
	for i, ev := range events {
		err := d.Handle(ev)
		if err != nil {
			return errors.Wrapf(err, "event %d (%T)", i+1, ev)
		}
	}
	return nil
}
