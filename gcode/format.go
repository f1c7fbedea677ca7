package gcode

import (
	"strconv"
	"strings"
)

// Formatter renders numbers with a fixed number of decimals.
type Formatter struct {
	Decimals int
}

var (
	// PositionFormat is used for coordinates and heights.
	PositionFormat = Formatter{Decimals: 3}

	// FeedFormat is used for feed rates and voltages.
	FeedFormat = Formatter{Decimals: 0}
)

// Format renders v with exactly f.Decimals fraction digits. Values that round
// to zero are written without a sign.
func (f Formatter) Format(v float64) string {
	s := strconv.FormatFloat(v, 'f', f.Decimals, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		s = s[1:]
	}
	return s
}

// Token returns a word for letter with v formatted by f.
func (f Formatter) Token(letter byte, v float64) Token {
	return Token{Letter: letter, Value: f.Format(v)}
}
