package vm

import (
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/gcode"
)

// arcTolerance is how far the start and end radius of an arc may differ.
const arcTolerance = 0.01

// Machine replays controller output and tracks what the table would do.
type Machine struct {
	pos coord.Point
	wco coord.Point

	modal [256]float64

	feed    float64
	torch   bool
	status  string
	pierces int
	dwell   float64

	cutLength    float64
	travelLength float64
}

func NewMachine() *Machine {
	m := &Machine{}

	m.modal[gcode.ModalGroupMotion] = 0
	m.modal[gcode.ModalGroupPlaneSelection] = 17
	m.modal[gcode.ModalGroupDistanceMode] = 90
	m.modal[gcode.ModalGroupUnits] = 21
	m.modal[gcode.ModalGroupStopping] = 0
	m.modal[gcode.ModalGroupTorch] = 5

	return m
}

func (m Machine) Inches() bool         { return m.modal[gcode.ModalGroupUnits] == 20 }
func (m Machine) RelativeMotion() bool { return m.modal[gcode.ModalGroupDistanceMode] == 91 }

func (m Machine) WPos() coord.Point {
	return m.pos.Sub(m.wco)
}
func (m Machine) MPos() coord.Point {
	return m.pos
}
func (m Machine) WCO() coord.Point {
	return m.wco
}

func (m Machine) Feed() float64         { return m.feed }
func (m Machine) TorchOn() bool         { return m.torch }
func (m Machine) Status() string        { return m.status }
func (m Machine) Pierces() int          { return m.pierces }
func (m Machine) Dwell() float64        { return m.dwell }
func (m Machine) CutLength() float64    { return m.cutLength }
func (m Machine) TravelLength() float64 { return m.travelLength }

func isSupported(g gcode.Word) bool {
	switch g.W {
	case 'X', 'Y', 'Z', 'I', 'J', 'F', 'P', 'V', 'D', 'H', 'S':
		return true
	case 'G':
		switch g.Arg {
		case 0, 1, 2, 3, 4, 17, 18, 19, 20, 21, 28, 90, 91, 92:
			return true
		}
	case 'M':
		switch g.Arg {
		case 2, 3, 5, 117, 400:
			return true
		}
	}
	return false
}

func applyBlock(p coord.Point, b gcode.Block, mul float64) coord.Point {
	for _, g := range b {
		switch g.W {
		case 'X':
			p.X = g.Arg * mul
		case 'Y':
			p.Y = g.Arg * mul
		case 'Z':
			p.Z = g.Arg * mul
		}
	}

	return p
}

func hasAxis(b gcode.Block) bool {
	for _, g := range b {
		if g.IsAxis() {
			return true
		}
	}
	return false
}

// Run applies one block. text is the message of an M117 block.
func (m *Machine) Run(b gcode.Block, text string) error {
	err := b.Validate()
	if err != nil {
		return err
	}
	for _, g := range b {
		if !isSupported(g) {
			return errors.New("unsupported code: " + g.String())
		}
		mg := g.ModalGroup()
		if mg != gcode.ModalGroupNone && mg != gcode.ModalGroupNonModal && mg != gcode.ModalGroupFeedRate {
			m.modal[mg] = g.Arg
		}
	}

	mul := 1.0
	if m.Inches() {
		mul = 25.4
	}
	if ok, f := b.Arg('F'); ok {
		m.feed = f * mul
	}

	switch {
	case b.Has('M', 3):
		if !m.torch {
			m.pierces++
		}
		m.torch = true
	case b.Has('M', 5):
		m.torch = false
	case b.Has('M', 117):
		m.status = text
	case b.Has('G', 4):
		// P is milliseconds, S is seconds
		_, p := b.Arg('P')
		_, s := b.Arg('S')
		m.dwell += p/1000 + s
	case b.Has('G', 28):
		m.home(b)
		return nil
	case b.Has('G', 92):
		wpos := applyBlock(m.WPos(), b.Args(), mul)
		m.wco = m.pos.Sub(wpos)
		return nil
	}

	if !hasAxis(b) && !b.Has('G', 2) && !b.Has('G', 3) {
		return nil
	}
	return m.move(b.Args(), mul)
}

// home moves the listed axes, or all of them, to machine zero.
func (m *Machine) home(b gcode.Block) {
	all := !hasAxis(b)
	if ok, _ := b.Arg('X'); ok || all {
		m.pos.X = 0
	}
	if ok, _ := b.Arg('Y'); ok || all {
		m.pos.Y = 0
	}
	if ok, _ := b.Arg('Z'); ok || all {
		m.pos.Z = 0
	}
}

func (m *Machine) move(args gcode.Block, mul float64) error {
	start := m.WPos()
	var end coord.Point
	if m.RelativeMotion() {
		end = start.Add(applyBlock(coord.Point{}, args, mul))
	} else {
		end = applyBlock(start, args, mul)
	}

	motion := m.modal[gcode.ModalGroupMotion]
	if motion != 0 && m.feed <= 0 {
		return errors.New("feed rate not set")
	}

	dist := start.Distance(end)
	switch motion {
	case 2, 3:
		if m.modal[gcode.ModalGroupPlaneSelection] != 17 {
			return errors.New("arcs are only supported in the XY plane")
		}
		hasI, i := args.Arg('I')
		hasJ, j := args.Arg('J')
		if !hasI && !hasJ {
			return errors.New("arc without I/J offsets")
		}
		arc := coord.Arc{
			Start:     start,
			Center:    coord.Point{X: start.X + i*mul, Y: start.Y + j*mul, Z: start.Z},
			End:       end,
			Clockwise: motion == 2,
		}
		endRadius := math.Hypot(end.X-arc.Center.X, end.Y-arc.Center.Y)
		if math.Abs(endRadius-arc.Radius()) > arcTolerance {
			return errors.Errorf("arc radius mismatch: start %g end %g", arc.Radius(), endRadius)
		}
		dist = arc.Length()
	}

	if motion == 0 {
		m.travelLength += dist
	} else if m.torch {
		m.cutLength += dist
	}
	m.pos = end.Add(m.wco)
	return nil
}

type texter interface {
	Text() string
}

type liner interface {
	Line() int
}

// Replay runs every block from r. If r is a *gcode.Parser, messages and
// line numbers are used.
func (m *Machine) Replay(r gcode.Reader) error {
	for {
		b, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		var text string
		if t, ok := r.(texter); ok {
			text = t.Text()
		}
		err = m.Run(b, text)
		if err != nil {
			if l, ok := r.(liner); ok {
				return errors.Wrapf(err, "line %d", l.Line())
			}
			return err
		}
	}
}
