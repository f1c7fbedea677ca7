package meshlevel

import (
	"bytes"
	"testing"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probes indicate a rise of 30mm over 100mm or .3mmZ for every 1mm X
var probes = []coord.Point{
	{X: -700, Y: -450, Z: -80},
	{X: -700, Y: -550, Z: -80},

	{X: -600, Y: -450, Z: -50},
	{X: -600, Y: -550, Z: -50},
}

func TestMesh_OffsetZ(t *testing.T) {
	mesh, err := NewMesh(probes)
	require.NoError(t, err)

	ok, z := mesh.OffsetZ(-650, -500)
	assert.True(t, ok)
	assert.InDelta(t, -65, z, 1e-9)

	ok, z = mesh.OffsetZ(-700, -450)
	assert.True(t, ok, "corner is inside")
	assert.InDelta(t, -80, z, 1e-9)

	ok, _ = mesh.OffsetZ(0, 0)
	assert.False(t, ok)
}

func TestNewMesh_TooFew(t *testing.T) {
	_, err := NewMesh(probes[:2])
	assert.Error(t, err)
}

func TestRelative(t *testing.T) {
	res := Relative(probes, nil)
	assert.Equal(t, 0.0, res[0].Z)
	assert.Equal(t, 30.0, res[2].Z)
	assert.Equal(t, -80.0, probes[0].Z, "input is not modified")

	ref := -50.0
	res = Relative(probes, &ref)
	assert.Equal(t, -30.0, res[1].Z)
	assert.Equal(t, 0.0, res[3].Z)
	assert.Equal(t, probes[3].X, res[3].X)

	assert.Empty(t, Relative(nil, nil))
}

func TestReadProbes(t *testing.T) {
	data := `[{"X":1,"Y":2,"Z":3,"Valid":true},{"X":4,"Y":5,"Z":6,"Valid":false},{"X":7,"Y":8,"Z":9}]`
	pts, err := ReadProbes(bytes.NewBufferString(data))
	require.NoError(t, err)
	assert.Equal(t, []coord.Point{{X: 1, Y: 2, Z: 3}, {X: 7, Y: 8, Z: 9}}, pts)
}

func TestNone(t *testing.T) {
	ok, _ := None.OffsetZ(1, 2)
	assert.False(t, ok)
}

func TestZOffsetFunc(t *testing.T) {
	var z ZOffsetter = ZOffsetFunc(func(x, y float64) (bool, float64) { return x > 0, x / 10 })
	ok, off := z.OffsetZ(5, 0)
	assert.True(t, ok)
	assert.Equal(t, 0.5, off)
	ok, _ = z.OffsetZ(-1, 0)
	assert.False(t, ok)
}
