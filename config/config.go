// Package config loads translator settings from TOML or YAML files.
//
// A file names a machine preset and overrides any of its values:
//
//	machine = "thc"
//	safe_z = 25
//
//	[speeds]
//	cut = 2500
//
// Keys that are not understood are an error.
package config

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mastercactapus/plasmapost/post"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.Errorf("unknown config format for '%s'", path)
}

type Commands struct {
	CutterOn  string `toml:"cutter_on" yaml:"cutter_on"`
	CutterOff string `toml:"cutter_off" yaml:"cutter_off"`
	Barrier   string `toml:"barrier" yaml:"barrier"`
	Status    string `toml:"status" yaml:"status"`
}

type Cutter struct {
	Voltage       float64  `toml:"voltage" yaml:"voltage"`
	Delay         float64  `toml:"delay" yaml:"delay"`
	CutHeight     float64  `toml:"cut_height" yaml:"cut_height"`
	InitialHeight float64  `toml:"initial_height" yaml:"initial_height"`
	HeightStep    float64  `toml:"height_step" yaml:"height_step"`
	Fields        []string `toml:"fields" yaml:"fields"`
}

type Speeds struct {
	Cut      float64 `toml:"cut" yaml:"cut"`
	TravelXY float64 `toml:"travel_xy" yaml:"travel_xy"`
	TravelZ  float64 `toml:"travel_z" yaml:"travel_z"`
}

type Arcs struct {
	MinChord  float64 `toml:"min_chord" yaml:"min_chord"`
	MinRadius float64 `toml:"min_radius" yaml:"min_radius"`
	MaxRadius float64 `toml:"max_radius" yaml:"max_radius"`
	MinSweep  float64 `toml:"min_sweep" yaml:"min_sweep"`
	MaxSweep  float64 `toml:"max_sweep" yaml:"max_sweep"`
}

type Subdivide struct {
	Enabled bool    `toml:"enabled" yaml:"enabled"`
	Step    float64 `toml:"step" yaml:"step"`
}

// Surface points at a probe result file used for height compensation.
type Surface struct {
	// Probes is a JSON probe grid. Relative paths are resolved against the
	// directory of the config file.
	Probes string `toml:"probes" yaml:"probes"`

	// Reference is the Z that means "no offset". The first probe is used
	// when unset.
	Reference *float64 `toml:"reference" yaml:"reference"`
}

// File is the on-disk layout.
type File struct {
	Machine string `toml:"machine" yaml:"machine"`

	Commands  Commands  `toml:"commands" yaml:"commands"`
	Cutter    Cutter    `toml:"cutter" yaml:"cutter"`
	Speeds    Speeds    `toml:"speeds" yaml:"speeds"`
	Arcs      Arcs      `toml:"arcs" yaml:"arcs"`
	Subdivide Subdivide `toml:"subdivide" yaml:"subdivide"`
	Surface   Surface   `toml:"surface" yaml:"surface"`

	SplitRapid         bool    `toml:"split_rapid" yaml:"split_rapid"`
	RehomeBeforePierce bool    `toml:"rehome_before_pierce" yaml:"rehome_before_pierce"`
	ZHomeOffset        float64 `toml:"z_home_offset" yaml:"z_home_offset"`
	SafeZ              float64 `toml:"safe_z" yaml:"safe_z"`
}

// FileFrom returns the file form of cfg. Surface is left empty.
func FileFrom(cfg post.Config) File {
	fields := make([]string, len(cfg.Cutter.Fields))
	for i, f := range cfg.Cutter.Fields {
		fields[i] = string(f)
	}
	return File{
		Machine:  string(cfg.Machine),
		Commands: Commands(cfg.Commands),
		Cutter: Cutter{
			Voltage:       cfg.Cutter.Voltage,
			Delay:         cfg.Cutter.Delay,
			CutHeight:     cfg.Cutter.CutHeight,
			InitialHeight: cfg.Cutter.InitialHeight,
			HeightStep:    cfg.Cutter.HeightStep,
			Fields:        fields,
		},
		Speeds:             Speeds(cfg.Speeds),
		Arcs:               Arcs(cfg.Arcs),
		Subdivide:          Subdivide(cfg.Subdivide),
		SplitRapid:         cfg.SplitRapid,
		RehomeBeforePierce: cfg.RehomeBeforePierce,
		ZHomeOffset:        cfg.ZHomeOffset,
		SafeZ:              cfg.SafeZ,
	}
}

// Config converts f. Surface is not loaded; see Load.
func (f File) Config() post.Config {
	fields := make([]post.CutterField, len(f.Cutter.Fields))
	for i, s := range f.Cutter.Fields {
		fields[i] = post.CutterField(s)
	}
	return post.Config{
		Machine:  post.Machine(f.Machine),
		Commands: post.Commands(f.Commands),
		Cutter: post.Cutter{
			Voltage:       f.Cutter.Voltage,
			Delay:         f.Cutter.Delay,
			CutHeight:     f.Cutter.CutHeight,
			InitialHeight: f.Cutter.InitialHeight,
			HeightStep:    f.Cutter.HeightStep,
			Fields:        fields,
		},
		Speeds:             post.Speeds(f.Speeds),
		Arcs:               post.ArcLimits(f.Arcs),
		Subdivide:          post.Subdivide(f.Subdivide),
		SplitRapid:         f.SplitRapid,
		RehomeBeforePierce: f.RehomeBeforePierce,
		ZHomeOffset:        f.ZHomeOffset,
		SafeZ:              f.SafeZ,
	}
}

func decode(data []byte, format Format, v interface{}, strict bool) error {
	switch format {
	case FormatTOML:
		meta, err := toml.Decode(string(data), v)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); strict && len(undecoded) > 0 {
			return errors.Errorf("unknown key '%s'", undecoded[0])
		}
		return nil
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		err := dec.Decode(v)
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.Errorf("unknown config format '%s'", format)
}

// Decode reads a config. The machine named in the file (or def, if it names
// none) selects the preset the rest of the file overrides.
func Decode(r io.Reader, format Format, def post.Machine) (File, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return File{}, errors.Wrap(err, "read config")
	}

	var head struct {
		Machine string `toml:"machine" yaml:"machine"`
	}
	err = decode(data, format, &head, false)
	if err != nil {
		return File{}, errors.Wrap(err, "decode config")
	}
	if head.Machine != "" {
		def = post.Machine(head.Machine)
	}

	preset, err := post.DefaultConfig(def)
	if err != nil {
		return File{}, err
	}
	f := FileFrom(preset)
	err = decode(data, format, &f, true)
	if err != nil {
		return File{}, errors.Wrap(err, "decode config")
	}

	err = f.Config().Validate()
	if err != nil {
		return File{}, errors.Wrap(err, "invalid config")
	}
	return f, nil
}

// Load reads and validates the config file at path, including the surface
// probe file it references.
func Load(path string, def post.Machine) (post.Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return post.Config{}, err
	}
	fd, err := os.Open(path)
	if err != nil {
		return post.Config{}, errors.Wrap(err, "open config")
	}
	defer fd.Close()

	f, err := Decode(fd, format, def)
	if err != nil {
		return post.Config{}, errors.Wrapf(err, "load %s", path)
	}
	cfg := f.Config()

	if f.Surface.Probes != "" {
		probes := f.Surface.Probes
		if !filepath.IsAbs(probes) {
			probes = filepath.Join(filepath.Dir(path), probes)
		}
		cfg.Surface, err = LoadSurface(probes, f.Surface.Reference)
		if err != nil {
			return post.Config{}, err
		}
	}

	return cfg, nil
}
