package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/plasmapost/post"
)

func TestFormatOf(t *testing.T) {
	check := func(path string, exp Format) {
		f, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, exp, f, path)
	}
	check("a.toml", FormatTOML)
	check("dir/a.YAML", FormatYAML)
	check("a.yml", FormatYAML)

	_, err := FormatOf("a.json")
	assert.Error(t, err)
}

func TestDecode_TOML(t *testing.T) {
	f, err := Decode(strings.NewReader(`
machine = "thc"
safe_z = 25

[speeds]
cut = 2500

[cutter]
fields = ["voltage", "delay"]
`), FormatTOML, post.MachinePlain)
	require.NoError(t, err)

	cfg := f.Config()
	assert.Equal(t, post.MachineTHC, cfg.Machine)
	assert.Equal(t, 25.0, cfg.SafeZ)
	assert.Equal(t, 2500.0, cfg.Speeds.Cut)
	assert.Equal(t, 1000.0, cfg.Speeds.TravelZ)
	assert.True(t, cfg.SplitRapid)
	assert.True(t, cfg.RehomeBeforePierce)
	assert.Equal(t, []post.CutterField{post.FieldVoltage, post.FieldDelay}, cfg.Cutter.Fields)
}

func TestDecode_YAML(t *testing.T) {
	f, err := Decode(strings.NewReader(`
split_rapid: true
arcs:
  max_sweep: 90
subdivide:
  enabled: true
  step: 2.5
`), FormatYAML, post.MachinePlain)
	require.NoError(t, err)

	cfg := f.Config()
	assert.Equal(t, post.MachinePlain, cfg.Machine)
	assert.True(t, cfg.SplitRapid)
	assert.False(t, cfg.RehomeBeforePierce)
	assert.Equal(t, 90.0, cfg.Arcs.MaxSweep)
	assert.Equal(t, 0.25, cfg.Arcs.MinChord)
	assert.Equal(t, post.Subdivide{Enabled: true, Step: 2.5}, cfg.Subdivide)
}

func TestDecode_Empty(t *testing.T) {
	f, err := Decode(strings.NewReader(""), FormatYAML, post.MachineTHC)
	require.NoError(t, err)

	exp, err := post.DefaultConfig(post.MachineTHC)
	require.NoError(t, err)
	assert.Equal(t, exp, f.Config())
}

func TestDecode_Errors(t *testing.T) {
	check := func(name, data string, format Format, msg string) {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(data), format, post.MachinePlain)
			require.Error(t, err)
			assert.Contains(t, err.Error(), msg)
		})
	}

	check("toml unknown key", "safe_height = 3\n", FormatTOML, "unknown key 'safe_height'")
	check("yaml unknown key", "speeds:\n  rapid: 3\n", FormatYAML, "rapid")
	check("machine", "machine = \"laser\"\n", FormatTOML, "unknown machine 'laser'")
	check("invalid", "[speeds]\ncut = 0\n", FormatTOML, "cut speed must be positive")
	check("field", "cutter:\n  fields: [amps]\n", FormatYAML, "unknown cutter field 'amps'")
	check("syntax", "speeds = [", FormatTOML, "decode config")
}

func TestFileFrom(t *testing.T) {
	for _, m := range []post.Machine{post.MachinePlain, post.MachineTHC} {
		cfg, err := post.DefaultConfig(m)
		require.NoError(t, err)
		assert.Equal(t, cfg, FileFrom(cfg).Config(), m)
	}
}

const probes = `[
	{"X": 0, "Y": 0, "Z": -4, "Valid": true},
	{"X": 100, "Y": 0, "Z": -3},
	{"X": 0, "Y": 100, "Z": -4},
	{"X": 100, "Y": 100, "Z": -3},
	{"X": 50, "Y": 50, "Z": 9, "Valid": false}
]`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "probes.json"), []byte(probes), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "table.toml"), []byte(`
machine = "thc"

[surface]
probes = "probes.json"
`), 0644))

	cfg, err := Load(filepath.Join(dir, "table.toml"), post.MachinePlain)
	require.NoError(t, err)
	assert.Equal(t, post.MachineTHC, cfg.Machine)
	require.NotNil(t, cfg.Surface)

	ok, z := cfg.Surface.OffsetZ(50, 50)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, z, 0.0001)

	ok, _ = cfg.Surface.OffsetZ(200, 50)
	assert.False(t, ok)
}

func TestLoadSurface_Reference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probes.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(probes), 0644))

	ref := -3.0
	mesh, err := LoadSurface(path, &ref)
	require.NoError(t, err)

	ok, z := mesh.OffsetZ(0, 0)
	assert.True(t, ok)
	assert.InDelta(t, -1, z, 0.0001)

	_, err = LoadSurface(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)
}
