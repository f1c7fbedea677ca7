package post

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/gcode"
	"github.com/mastercactapus/plasmapost/meshlevel"
)

// Stats counts what a Translator has done.
type Stats struct {
	Lines      int
	Sections   int
	Pierces    int
	Linearized int
}

// Translator turns host events into controller lines. It handles exactly one
// program and must only be used from one goroutine.
type Translator struct {
	Log logrus.FieldLogger

	cfg     Config
	out     gcode.Writer
	surface meshlevel.ZOffsetter

	modal *gcode.Modal
	pos   coord.Point
	torch bool

	// started is set once the program setup block has been written.
	started bool
	section string

	stats Stats
}

// New returns a Translator writing to out.
func New(cfg Config, out gcode.Writer) (*Translator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	t := &Translator{
		Log:     logrus.StandardLogger(),
		cfg:     cfg,
		out:     out,
		surface: cfg.Surface,
		modal:   gcode.NewModal(),
	}
	if t.surface == nil {
		t.surface = meshlevel.None
	}
	return t, nil
}

// Position returns the current commanded position.
func (t *Translator) Position() coord.Point { return t.pos }

// TorchOn reports the current cutter power state.
func (t *Translator) TorchOn() bool { return t.torch }

func (t *Translator) Stats() Stats { return t.stats }

// Handle dispatches a single event.
func (t *Translator) Handle(ev Event) error {
	switch e := ev.(type) {
	case Open:
		return t.Open()
	case Close:
		return t.Close()
	case SectionStart:
		return t.SectionStart(e.Name, e.Bounds)
	case SectionEnd:
		return t.SectionEnd()
	case Rapid:
		return t.Rapid(e.Target)
	case Linear:
		return t.Linear(e.Target, e.Feed)
	case Circular:
		return t.Circular(e.Clockwise, e.Plane, e.Center, e.End, e.Feed)
	case Power:
		return t.Power(e.On)
	case Dwell:
		return t.Dwell(e.Seconds)
	case Parameter:
		return t.Parameter(e.Name, e.Value)
	}
	return errors.Errorf("unhandled event %T", ev)
}

func (t *Translator) emit(lines ...gcode.Line) error {
	for _, l := range lines {
		err := t.out.WriteLine(l)
		if err != nil {
			return errors.Wrapf(err, "write '%s'", l.String())
		}
		t.stats.Lines++
	}
	return nil
}

// compensate returns p with the surface offset at p applied to Z.
func (t *Translator) compensate(p coord.Point) coord.Point {
	ok, dz := t.surface.OffsetZ(p.X, p.Y)
	if ok {
		p.Z += dz
	}
	return p
}

// changed returns the tokens for the listed axes of p that differ from the
// last values written. They are recorded by move once the line is out.
func (t *Translator) changed(p coord.Point, axes ...byte) []gcode.Token {
	res := make([]gcode.Token, 0, len(axes)+1)
	for _, a := range axes {
		var v float64
		switch a {
		case 'X':
			v = p.X
		case 'Y':
			v = p.Y
		case 'Z':
			v = p.Z
		}
		if tok, ok := t.modal.Pending(a, v); ok {
			res = append(res, tok)
		}
	}
	return res
}

// move writes a motion line and records its words as the last written.
func (t *Translator) move(cmd string, tokens []gcode.Token) error {
	err := t.emit(gcode.Command(cmd, tokens...))
	if err != nil {
		return err
	}
	t.modal.Commit(tokens...)
	return nil
}

// withFeed appends the F word if it changed.
func (t *Translator) withFeed(tokens []gcode.Token, feed float64) []gcode.Token {
	if tok, ok := t.modal.Pending('F', feed); ok {
		tokens = append(tokens, tok)
	}
	return tokens
}
