package gcode

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	require.NoError(t, w.WriteLine(Command("G90")))
	require.NoError(t, w.WriteLine(Comment("done")))

	assert.Equal(t, "G90\n; done\n", buf.String())
	assert.Equal(t, 2, w.Lines())
}

func TestProgram(t *testing.T) {
	var p Program
	assert.Equal(t, "", p.String())

	p.WriteLine(Command("G21"))
	p.WriteLine(Command("M5"))

	assert.Equal(t, []string{"G21", "M5"}, p.Strings())

	data, err := ioutil.ReadAll(p.Reader())
	require.NoError(t, err)
	assert.Equal(t, "G21\nM5\n", string(data))

	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len("G21\nM5\n")), n)
}
