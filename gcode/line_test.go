package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine_String(t *testing.T) {
	l := Command("G1",
		PositionFormat.Token('X', 10),
		PositionFormat.Token('Y', -2.5),
		FeedFormat.Token('F', 3000),
	)
	assert.Equal(t, "G1 X10.000 Y-2.500 F3000", l.String())

	assert.Equal(t, "G90", Command("G90").String())
	assert.Equal(t, "; Section: profile1", Comment("Section: (profile1)").String())
	assert.Equal(t, ";", Comment("()").String())
	assert.Equal(t, "M117 Cutting part 1", Message("M117", "Cutting (part 1)").String())
	assert.Equal(t, "G28 Z", Command("G28", Token{Letter: 'Z'}).String())
}

func TestLine_IsEmpty(t *testing.T) {
	assert.True(t, Line{}.IsEmpty())
	assert.False(t, Command("M5").IsEmpty())
	assert.False(t, Comment("x").IsEmpty())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize("a\nb (c)"))
}
