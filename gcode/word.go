package gcode

import "strings"

// Word is a parsed letter and number pair, like G1 or X10.5.
type Word struct {
	W   byte
	Arg float64
}

// IsAxis reports if w is a linear axis word.
func (w Word) IsAxis() bool { return w.W == 'X' || w.W == 'Y' || w.W == 'Z' }

// IsCommand reports if w is a G or M code.
func (w Word) IsCommand() bool { return w.W == 'G' || w.W == 'M' }

func (w Word) IsValid() bool { return w.W >= 'A' && w.W <= 'Z' }

// Is reports if w is the command letter+code, e.g. Is('G', 1).
func (w Word) Is(letter byte, code float64) bool {
	return w.W == letter && w.Arg == code
}

// String writes the shortest form of w, without trailing zeros.
func (w Word) String() string {
	s := PositionFormat.Format(w.Arg)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return string(w.W) + s
}
