package post

import (
	"github.com/mastercactapus/plasmapost/gcode"
)

var cutterLetters = map[CutterField]byte{
	FieldVoltage:       'V',
	FieldDelay:         'D',
	FieldCutHeight:     'H',
	FieldInitialHeight: 'P',
	FieldHeightStep:    'S',
}

func (c Cutter) value(f CutterField) float64 {
	switch f {
	case FieldVoltage:
		return c.Voltage
	case FieldDelay:
		return c.Delay
	case FieldCutHeight:
		return c.CutHeight
	case FieldInitialHeight:
		return c.InitialHeight
	case FieldHeightStep:
		return c.HeightStep
	}
	return 0
}

// activation builds the torch-on line from the configured fields.
func (t *Translator) activation() gcode.Line {
	tokens := make([]gcode.Token, 0, len(t.cfg.Cutter.Fields))
	for _, f := range t.cfg.Cutter.Fields {
		format := gcode.PositionFormat
		if f == FieldVoltage {
			format = gcode.FeedFormat
		}
		tokens = append(tokens, format.Token(cutterLetters[f], t.cfg.Cutter.value(f)))
	}
	return gcode.Command(t.cfg.Commands.CutterOn, tokens...)
}

// homeZ homes Z and redefines its origin to ZHomeOffset.
func (t *Translator) homeZ() error {
	err := t.emit(
		gcode.Command("G28", gcode.Token{Letter: 'Z'}),
		gcode.Command("G92", gcode.PositionFormat.Token('Z', t.cfg.ZHomeOffset)),
	)
	if err != nil {
		return err
	}
	t.modal.Reset('Z')
	t.pos.Z = t.cfg.ZHomeOffset
	return nil
}

// Power switches the torch. Nothing is written if it is already in the
// requested state.
func (t *Translator) Power(on bool) error {
	if on == t.torch {
		return nil
	}

	err := t.emit(gcode.Command(t.cfg.Commands.Barrier))
	if err != nil {
		return err
	}

	if !on {
		err = t.emit(gcode.Command(t.cfg.Commands.CutterOff))
		if err != nil {
			return err
		}
		t.torch = false
		t.Log.WithField("section", t.section).Debug("torch off")
		return nil
	}

	if t.cfg.RehomeBeforePierce {
		err = t.homeZ()
		if err != nil {
			return err
		}
	}
	err = t.emit(t.activation())
	if err != nil {
		return err
	}
	t.torch = true
	t.stats.Pierces++
	t.Log.WithField("section", t.section).Debug("torch on")
	return nil
}
