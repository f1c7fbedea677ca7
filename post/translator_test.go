package post

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/gcode"
)

func newTranslator(t *testing.T, m Machine, mod ...func(*Config)) (*Translator, *gcode.Program) {
	t.Helper()
	cfg, err := DefaultConfig(m)
	require.NoError(t, err)
	for _, fn := range mod {
		fn(&cfg)
	}
	var prog gcode.Program
	tr, err := New(cfg, &prog)
	require.NoError(t, err)
	return tr, &prog
}

// since returns the lines written after the first n.
func since(prog *gcode.Program, n int) []string {
	return prog.Strings()[n:]
}

func startSection(t *testing.T, tr *Translator, prog *gcode.Program) int {
	t.Helper()
	require.NoError(t, tr.Open())
	require.NoError(t, tr.SectionStart("part", coord.Bounds{}))
	return len(prog.Lines)
}

func TestTranslator_Program(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)

	require.NoError(t, tr.Open())
	require.NoError(t, tr.Parameter("document", "bracket (rev b)"))
	require.NoError(t, tr.SectionStart("profile1", coord.NewBounds(coord.Point{}, coord.Point{X: 10, Y: 10})))
	require.NoError(t, tr.Rapid(coord.Point{X: 10, Y: 0, Z: 5}))
	require.NoError(t, tr.Power(true))
	require.NoError(t, tr.Dwell(0.25))
	require.NoError(t, tr.Circular(false, coord.PlaneXY, coord.Point{Z: 5}, coord.Point{Y: 10, Z: 5}, 1200))
	require.NoError(t, tr.Linear(coord.Point{X: 10, Y: 10, Z: 5}, 1200))
	require.NoError(t, tr.Power(false))
	require.NoError(t, tr.SectionEnd())
	require.NoError(t, tr.Close())

	assert.Equal(t, []string{
		"; plasmapost plain",
		"; document: bracket rev b",
		"G90",
		"G21",
		"G28 Z",
		"G92 Z0.000",
		"; Section: profile1",
		"; X: 0.000 - 10.000",
		"; Y: 0.000 - 10.000",
		"; Z: 0.000 - 0.000",
		"M117 profile1",
		"G0 X10.000 Y0.000 Z5.000 F6000",
		"M400",
		"M3 V120 D0.500 H1.500",
		"G4 P250",
		"G3 X0.000 Y10.000 I-10.000 J0.000 F3000",
		"G1 X10.000",
		"M400",
		"M5",
		"M400",
		"M5",
		"G0 X10.000 Y10.000 Z20.000 F6000",
		"G0 X0.000 Y0.000",
		"M117 Done",
	}, prog.Strings())

	assert.Equal(t, coord.Point{Z: 20}, tr.Position())
	assert.Equal(t, Stats{Lines: 24, Sections: 1, Pierces: 1}, tr.Stats())
}

func TestTranslator_ModalSuppression(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Rapid(coord.Point{X: 1, Y: 2, Z: 3}))
	require.NoError(t, tr.Rapid(coord.Point{X: 1, Y: 2, Z: 3}))
	require.NoError(t, tr.Rapid(coord.Point{X: 1.0002, Y: 5, Z: 3}))
	require.NoError(t, tr.Rapid(coord.Point{X: 0, Y: 5, Z: 3}))
	require.NoError(t, tr.Rapid(coord.Point{X: 0, Y: 5, Z: 3}))

	assert.Equal(t, []string{
		"G0 X1.000 Y2.000 Z3.000 F6000",
		"G0 Y5.000",
		"G0 X0.000",
	}, since(prog, n))
}

func TestTranslator_SectionEndResetsCache(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Rapid(coord.Point{X: 1, Y: 2, Z: 3}))
	require.NoError(t, tr.SectionEnd())
	require.NoError(t, tr.Rapid(coord.Point{X: 1, Y: 2, Z: 3}))

	assert.Equal(t, []string{
		"G0 X1.000 Y2.000 Z3.000 F6000",
		"G0 X1.000 Y2.000 Z3.000 F6000",
	}, since(prog, n))
}

func TestTranslator_SetupOnce(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	require.NoError(t, tr.Open())
	require.NoError(t, tr.SectionStart("a", coord.Bounds{}))
	require.NoError(t, tr.SectionEnd())
	require.NoError(t, tr.SectionStart("b", coord.Bounds{Min: coord.Point{X: 1}}))

	var g90, homes int
	for _, s := range prog.Strings() {
		switch s {
		case "G90":
			g90++
		case "G28 Z":
			homes++
		}
	}
	assert.Equal(t, 1, g90)
	assert.Equal(t, 1, homes)

	// invalid bounds are left out of the banner
	assert.Equal(t, []string{"; Section: b", "M117 b"}, prog.Strings()[len(prog.Lines)-2:])
}

func TestTranslator_LinearUsesCutSpeed(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Linear(coord.Point{X: 5}, 50))
	require.NoError(t, tr.Linear(coord.Point{X: 6}, 9000))

	assert.Equal(t, []string{
		"G1 X5.000 Y0.000 Z0.000 F3000",
		"G1 X6.000",
	}, since(prog, n))
}

func TestTranslator_LinearNoChange(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Rapid(coord.Point{X: 5}))
	require.NoError(t, tr.Linear(coord.Point{X: 5}, 1000))
	require.NoError(t, tr.Linear(coord.Point{X: 5, Y: 1}, 1000))

	assert.Equal(t, []string{
		"G0 X5.000 Y0.000 Z0.000 F6000",
		"G1 Y1.000 F3000",
	}, since(prog, n))
}

func TestTranslator_Subdivide(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain, func(cfg *Config) {
		cfg.Subdivide = Subdivide{Enabled: true, Step: 10}
	})
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Rapid(coord.Point{}))
	require.NoError(t, tr.Linear(coord.Point{X: 25}, 0))
	require.NoError(t, tr.Linear(coord.Point{X: 30}, 0))

	assert.Equal(t, []string{
		"G0 X0.000 Y0.000 Z0.000 F6000",
		"G1 X8.333 F3000",
		"G1 X16.667",
		"G1 X25.000",
		"G1 X30.000",
	}, since(prog, n))
	assert.Equal(t, coord.Point{X: 30}, tr.Position())
}

type slope struct{}

func (slope) OffsetZ(x, y float64) (bool, float64) {
	if x < 0 {
		return false, 0
	}
	return true, x / 100
}

func TestTranslator_Surface(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain, func(cfg *Config) {
		cfg.Surface = slope{}
	})
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Rapid(coord.Point{X: 100, Z: 1}))
	require.NoError(t, tr.Linear(coord.Point{X: 200, Z: 1}, 0))

	assert.Equal(t, []string{
		"G0 X100.000 Y0.000 Z2.000 F6000",
		"G1 X200.000 Z3.000 F3000",
	}, since(prog, n))
	assert.Equal(t, coord.Point{X: 200, Z: 1}, tr.Position(), "position is uncompensated")

	// start and end offsets differ
	err := tr.Circular(false, coord.PlaneXY, coord.Point{X: 200, Y: 10, Z: 1}, coord.Point{X: 210, Y: 10, Z: 1}, 0)
	assert.True(t, errors.Is(err, ErrLinearize))
}

func TestTranslator_SplitRapid(t *testing.T) {
	tr, prog := newTranslator(t, MachineTHC)
	n := startSection(t, tr, prog)

	// setup homed Z to 10
	require.NoError(t, tr.Rapid(coord.Point{X: 100, Y: 50, Z: 15}))
	require.NoError(t, tr.Rapid(coord.Point{X: 50, Y: 50, Z: 1}))
	require.NoError(t, tr.Rapid(coord.Point{X: 50, Y: 50, Z: 3}))
	require.NoError(t, tr.Rapid(coord.Point{X: 0, Y: 50, Z: 3}))

	assert.Equal(t, []string{
		"G0 Z15.000 F1000",
		"G0 X100.000 Y50.000 F6000",
		"G0 X50.000",
		"G0 Z1.000 F1000",
		"G0 Z3.000",
		"G0 X0.000 F6000",
	}, since(prog, n))
}

func TestTranslator_PowerIdempotent(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Power(false))
	assert.Empty(t, since(prog, n), "already off")

	require.NoError(t, tr.Power(true))
	require.NoError(t, tr.Power(true))
	assert.True(t, tr.TorchOn())

	assert.Equal(t, []string{
		"M400",
		"M3 V120 D0.500 H1.500",
	}, since(prog, n))
}

func TestTranslator_PowerTHC(t *testing.T) {
	tr, prog := newTranslator(t, MachineTHC)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Rapid(coord.Point{X: 5, Y: 5, Z: 10}))
	require.NoError(t, tr.Power(true))
	require.NoError(t, tr.Linear(coord.Point{X: 6, Y: 5, Z: 10}, 0))

	assert.Equal(t, []string{
		"G0 X5.000 Y5.000 F6000",
		"G0 Z10.000 F1000",
		"M400",
		"G28 Z",
		"G92 Z10.000",
		"M3 V120 D0.500 H1.500 P3.800 S0.100",
		"G1 X6.000 Z10.000 F3000",
	}, since(prog, n))
}

func TestTranslator_CloseDeactivatesOnce(t *testing.T) {
	for _, on := range []bool{false, true} {
		tr, prog := newTranslator(t, MachinePlain)
		n := startSection(t, tr, prog)

		require.NoError(t, tr.Rapid(coord.Point{X: 1, Y: 1, Z: 1}))
		require.NoError(t, tr.Power(on))
		m := len(prog.Lines)
		require.NoError(t, tr.Close())

		var off int
		for _, s := range since(prog, m) {
			if s == "M5" {
				off++
			}
		}
		assert.Equal(t, 1, off, "torch on=%t", on)
		assert.False(t, tr.TorchOn())
		assert.Equal(t, "M117 Done", prog.Strings()[len(prog.Lines)-1])
		assert.True(t, len(since(prog, n)) > 0)
	}
}

func TestTranslator_Dwell(t *testing.T) {
	tr, prog := newTranslator(t, MachinePlain)
	n := startSection(t, tr, prog)

	require.NoError(t, tr.Dwell(0))
	require.NoError(t, tr.Dwell(0.0004))
	require.NoError(t, tr.Dwell(1.5))
	require.NoError(t, tr.Dwell(0.0126))

	// milliseconds
	assert.Equal(t, []string{"G4 P1500", "G4 P13"}, since(prog, n))
}

func TestTranslator_Handle(t *testing.T) {
	events := []Event{
		Open{},
		SectionStart{Name: "a"},
		Rapid{Target: coord.Point{X: 10}},
		Power{On: true},
		Circular{Center: coord.Point{}, End: coord.Point{Y: 10}},
		Linear{Target: coord.Point{Y: 20}},
		Dwell{Seconds: 1},
		Parameter{Name: "k", Value: "v"},
		Power{On: false},
		SectionEnd{},
		Close{},
	}

	direct, want := newTranslator(t, MachinePlain)
	require.NoError(t, direct.Open())
	require.NoError(t, direct.SectionStart("a", coord.Bounds{}))
	require.NoError(t, direct.Rapid(coord.Point{X: 10}))
	require.NoError(t, direct.Power(true))
	require.NoError(t, direct.Circular(false, coord.PlaneXY, coord.Point{}, coord.Point{Y: 10}, 0))
	require.NoError(t, direct.Linear(coord.Point{Y: 20}, 0))
	require.NoError(t, direct.Dwell(1))
	require.NoError(t, direct.Parameter("k", "v"))
	require.NoError(t, direct.Power(false))
	require.NoError(t, direct.SectionEnd())
	require.NoError(t, direct.Close())

	tr, prog := newTranslator(t, MachinePlain)
	for _, ev := range events {
		require.NoError(t, tr.Handle(ev))
	}
	assert.Equal(t, want.Strings(), prog.Strings())

	assert.Error(t, tr.Handle(nil))
}

type failWriter struct{}

func (failWriter) WriteLine(gcode.Line) error { return errors.New("disk full") }

func TestTranslator_WriteError(t *testing.T) {
	cfg, err := DefaultConfig(MachinePlain)
	require.NoError(t, err)
	tr, err := New(cfg, failWriter{})
	require.NoError(t, err)

	err = tr.Open()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "plasmapost")
}

// flakyWriter fails while down is set.
type flakyWriter struct {
	gcode.Program
	down bool
}

func (w *flakyWriter) WriteLine(l gcode.Line) error {
	if w.down {
		return errors.New("disk full")
	}
	return w.Program.WriteLine(l)
}

func TestTranslator_FailedWriteResendsWords(t *testing.T) {
	cfg, err := DefaultConfig(MachinePlain)
	require.NoError(t, err)
	w := &flakyWriter{}
	tr, err := New(cfg, w)
	require.NoError(t, err)
	n := startSection(t, tr, &w.Program)

	w.down = true
	assert.Error(t, tr.Rapid(coord.Point{X: 5, Y: 5, Z: 5}))
	assert.Error(t, tr.Linear(coord.Point{X: 6, Y: 5, Z: 5}, 0))

	w.down = false
	require.NoError(t, tr.Rapid(coord.Point{X: 5, Y: 5, Z: 5}))
	require.NoError(t, tr.Linear(coord.Point{X: 6, Y: 5, Z: 5}, 0))

	assert.Equal(t, []string{
		"G0 X5.000 Y5.000 Z5.000 F6000",
		"G1 X6.000 F3000",
	}, since(&w.Program, n))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg, err := DefaultConfig(MachinePlain)
	require.NoError(t, err)
	cfg.Speeds.Cut = 0

	_, err = New(cfg, &gcode.Program{})
	assert.Error(t, err)
}
