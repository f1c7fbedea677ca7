package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModal_Changed(t *testing.T) {
	m := NewModal()

	tok, ok := m.Changed('X', 10)
	assert.True(t, ok)
	assert.Equal(t, "X10.000", tok.String())

	_, ok = m.Changed('X', 10.0001)
	assert.False(t, ok, "same formatted value")

	tok, ok = m.Changed('X', 10.002)
	assert.True(t, ok)
	assert.Equal(t, "X10.002", tok.String())

	// axes are independent
	tok, ok = m.Changed('Y', 10.002)
	assert.True(t, ok)
	assert.Equal(t, "Y10.002", tok.String())

	tok, ok = m.Changed('F', 3000.2)
	assert.True(t, ok)
	assert.Equal(t, "F3000", tok.String())
	_, ok = m.Changed('F', 2999.9)
	assert.False(t, ok)
}

func TestModal_Zero(t *testing.T) {
	m := NewModal()

	_, ok := m.Changed('Z', 0)
	assert.True(t, ok, "zero is written the first time")

	_, ok = m.Changed('Z', 0)
	assert.False(t, ok, "zero is cached like any other value")
}

func TestModal_Reset(t *testing.T) {
	m := NewModal()
	m.Changed('X', 1)
	m.Changed('Y', 2)

	m.Reset('X')
	assert.True(t, m.Differs('X', 1))
	assert.False(t, m.Differs('Y', 2))

	m.Reset()
	assert.True(t, m.Differs('Y', 2))

	_, ok := m.Changed('Y', 2)
	assert.True(t, ok)
}

func TestModal_Differs(t *testing.T) {
	m := NewModal()
	assert.True(t, m.Differs('Z', 5))
	assert.True(t, m.Differs('Z', 5), "Differs does not commit")
	m.Changed('Z', 5)
	assert.False(t, m.Differs('Z', 5))
}

func TestModal_PendingCommit(t *testing.T) {
	m := NewModal()

	x, ok := m.Pending('X', 4)
	assert.True(t, ok)
	_, ok = m.Pending('X', 4)
	assert.True(t, ok, "pending until committed")

	m.Commit(x, Token{Letter: 'I', Value: "1.000"})
	_, ok = m.Pending('X', 4)
	assert.False(t, ok)
	assert.NotContains(t, m.last, byte('I'))
}
