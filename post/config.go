package post

import (
	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/meshlevel"
)

// Machine names a preset configuration for one kind of table.
type Machine string

const (
	// MachinePlain uses a single rapid speed and a short torch-on command.
	MachinePlain Machine = "plain"

	// MachineTHC has separate XY and Z rapid speeds, re-homes Z before every
	// pierce and passes every torch height control parameter.
	MachineTHC Machine = "thc"
)

// CutterField is a parameter of the torch activation command.
type CutterField string

const (
	FieldVoltage       CutterField = "voltage"
	FieldDelay         CutterField = "delay"
	FieldCutHeight     CutterField = "cut_height"
	FieldInitialHeight CutterField = "initial_height"
	FieldHeightStep    CutterField = "height_step"
)

// Commands are the controller codes used for fixed actions.
type Commands struct {
	CutterOn  string
	CutterOff string

	// Barrier waits for all queued moves to finish.
	Barrier string

	// Status updates the controller display.
	Status string
}

// Cutter holds the torch height control parameters.
type Cutter struct {
	Voltage       float64 // arc voltage target, V
	Delay         float64 // pierce delay, s
	CutHeight     float64 // mm
	InitialHeight float64 // pierce height, mm
	HeightStep    float64 // THC correction step, mm

	// Fields lists, in order, what the activation command carries.
	Fields []CutterField
}

// Speeds are in mm/min.
type Speeds struct {
	Cut float64

	// TravelXY is also the combined rapid speed when rapids are not split.
	TravelXY float64
	TravelZ  float64
}

// ArcLimits decide which arcs are written as G2/G3. Sweep is in degrees.
type ArcLimits struct {
	MinChord  float64
	MinRadius float64
	MaxRadius float64
	MinSweep  float64
	MaxSweep  float64
}

// Subdivide splits long linear moves into steps of at most Step mm.
type Subdivide struct {
	Enabled bool
	Step    float64
}

// Config configures a Translator.
type Config struct {
	Machine Machine

	Commands  Commands
	Cutter    Cutter
	Speeds    Speeds
	Arcs      ArcLimits
	Subdivide Subdivide

	// SplitRapid writes Z and XY rapids as separate lines, each at its own speed.
	SplitRapid bool

	// RehomeBeforePierce homes Z before every torch activation.
	RehomeBeforePierce bool

	// ZHomeOffset is the Z work coordinate assigned after homing.
	ZHomeOffset float64

	// SafeZ is the height used at the end of the program.
	SafeZ float64

	// Surface, if set, offsets emitted Z to follow the sheet.
	Surface meshlevel.ZOffsetter
}

// DefaultConfig returns the preset for m.
func DefaultConfig(m Machine) (Config, error) {
	cfg := Config{
		Machine: m,
		Commands: Commands{
			CutterOn:  "M3",
			CutterOff: "M5",
			Barrier:   "M400",
			Status:    "M117",
		},
		Cutter: Cutter{
			Voltage:       120,
			Delay:         0.5,
			CutHeight:     1.5,
			InitialHeight: 3.8,
			HeightStep:    0.1,
		},
		Speeds: Speeds{
			Cut:      3000,
			TravelXY: 6000,
			TravelZ:  1000,
		},
		Arcs: ArcLimits{
			MinChord:  0.25,
			MinRadius: 0.01,
			MaxRadius: 1000,
			MinSweep:  0.01,
			MaxSweep:  180,
		},
		Subdivide: Subdivide{Step: 10},
		SafeZ:     20,
	}

	switch m {
	case MachinePlain:
		cfg.Cutter.Fields = []CutterField{FieldVoltage, FieldDelay, FieldCutHeight}
	case MachineTHC:
		cfg.SplitRapid = true
		cfg.RehomeBeforePierce = true
		cfg.ZHomeOffset = 10
		cfg.Cutter.Fields = []CutterField{FieldVoltage, FieldDelay, FieldCutHeight, FieldInitialHeight, FieldHeightStep}
	default:
		return Config{}, errors.Errorf("unknown machine '%s'", m)
	}

	return cfg, nil
}

// Validate checks that every value is usable.
func (cfg Config) Validate() error {
	if cfg.Commands.CutterOn == "" || cfg.Commands.CutterOff == "" {
		return errors.New("cutter on/off commands are required")
	}
	if cfg.Commands.Barrier == "" {
		return errors.New("barrier command is required")
	}
	if cfg.Commands.Status == "" {
		return errors.New("status command is required")
	}

	if cfg.Speeds.Cut <= 0 {
		return errors.New("cut speed must be positive")
	}
	if cfg.Speeds.TravelXY <= 0 {
		return errors.New("XY travel speed must be positive")
	}
	if cfg.SplitRapid && cfg.Speeds.TravelZ <= 0 {
		return errors.New("Z travel speed must be positive")
	}

	seen := make(map[CutterField]bool, len(cfg.Cutter.Fields))
	for _, f := range cfg.Cutter.Fields {
		if _, ok := cutterLetters[f]; !ok {
			return errors.Errorf("unknown cutter field '%s'", f)
		}
		if seen[f] {
			return errors.Errorf("cutter field '%s' listed twice", f)
		}
		seen[f] = true
	}
	if cfg.Cutter.Delay < 0 || cfg.Cutter.CutHeight < 0 || cfg.Cutter.InitialHeight < 0 || cfg.Cutter.HeightStep < 0 {
		return errors.New("cutter delay and heights must not be negative")
	}

	a := cfg.Arcs
	if a.MinChord < 0 || a.MinRadius < 0 || a.MinSweep < 0 {
		return errors.New("arc minimums must not be negative")
	}
	if a.MaxRadius <= 0 || a.MaxRadius < a.MinRadius {
		return errors.Errorf("arc radius range %g - %g is invalid", a.MinRadius, a.MaxRadius)
	}
	if a.MaxSweep <= 0 || a.MaxSweep > 360 || a.MaxSweep < a.MinSweep {
		return errors.Errorf("arc sweep range %g - %g is invalid", a.MinSweep, a.MaxSweep)
	}

	if cfg.Subdivide.Enabled && cfg.Subdivide.Step <= 0 {
		return errors.New("subdivide step must be positive")
	}

	return nil
}
