package post

import (
	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/gcode"
)

// Open starts a program.
func (t *Translator) Open() error {
	t.modal.Reset()
	t.torch = false
	t.started = false

	return t.emit(gcode.Comment("plasmapost " + string(t.cfg.Machine)))
}

// setup puts the controller in a known state. It runs before the first section.
func (t *Translator) setup() error {
	err := t.emit(
		gcode.Command("G90"),
		gcode.Command("G21"),
	)
	if err != nil {
		return err
	}
	err = t.homeZ()
	if err != nil {
		return err
	}
	t.started = true
	return nil
}

// SectionStart begins an operation. Every axis is written again on the
// next move.
func (t *Translator) SectionStart(name string, bounds coord.Bounds) error {
	if !t.started {
		err := t.setup()
		if err != nil {
			return err
		}
	}
	t.modal.Reset()
	t.section = name
	t.stats.Sections++

	lines := []gcode.Line{gcode.Comment("Section: " + name)}
	if bounds.Valid() {
		f := gcode.PositionFormat
		lines = append(lines,
			gcode.Comment("X: "+f.Format(bounds.Min.X)+" - "+f.Format(bounds.Max.X)),
			gcode.Comment("Y: "+f.Format(bounds.Min.Y)+" - "+f.Format(bounds.Max.Y)),
			gcode.Comment("Z: "+f.Format(bounds.Min.Z)+" - "+f.Format(bounds.Max.Z)),
		)
	}
	lines = append(lines, gcode.Message(t.cfg.Commands.Status, name))

	return t.emit(lines...)
}

// SectionEnd finishes an operation.
func (t *Translator) SectionEnd() error {
	t.modal.Reset()
	t.section = ""
	return nil
}

// Dwell pauses for the given time. G4 P is in milliseconds. Non-positive
// times, and times that round to 0ms, write nothing.
func (t *Translator) Dwell(seconds float64) error {
	ms := gcode.FeedFormat.Token('P', seconds*1000)
	if seconds <= 0 || ms.Value == "0" {
		return nil
	}
	return t.emit(gcode.Command("G4", ms))
}

// Parameter writes host metadata as a comment.
func (t *Translator) Parameter(name, value string) error {
	return t.emit(gcode.Comment(name + ": " + value))
}

// Close ends the program. The torch-off command is always written, even if
// the torch is already off.
func (t *Translator) Close() error {
	err := t.emit(
		gcode.Command(t.cfg.Commands.Barrier),
		gcode.Command(t.cfg.Commands.CutterOff),
	)
	if err != nil {
		return err
	}
	t.torch = false

	safe := t.pos.WithZ(t.cfg.SafeZ)
	err = t.rapid(safe, safe)
	if err != nil {
		return err
	}
	t.pos = safe

	home := coord.Point{Z: t.cfg.SafeZ}
	err = t.rapid(home, home)
	if err != nil {
		return err
	}
	t.pos = home

	return t.emit(gcode.Message(t.cfg.Commands.Status, "Done"))
}
