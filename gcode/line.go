package gcode

import (
	"strings"
)

// CommentMarker starts every comment line.
const CommentMarker = ';'

// Token is a single output word, e.g. X12.000.
type Token struct {
	Letter byte
	Value  string
}

func (t Token) String() string { return string(t.Letter) + t.Value }

// Line is one output line. Cmd is written first, then every token with a
// leading space, then Text. A line with only a Comment is a comment line.
type Line struct {
	Cmd     string
	Tokens  []Token
	Text    string
	Comment string
}

// Command returns a line for cmd with the given tokens.
func Command(cmd string, tokens ...Token) Line {
	return Line{Cmd: cmd, Tokens: tokens}
}

// Comment returns a comment line.
func Comment(text string) Line {
	return Line{Comment: text}
}

// Message returns cmd followed by free text, e.g. a status display update.
func Message(cmd, text string) Line {
	return Line{Cmd: cmd, Text: text}
}

var sanitizer = strings.NewReplacer("(", "", ")", "", "\r", " ", "\n", " ")

// Sanitize removes characters the controller cannot take in free text.
func Sanitize(s string) string {
	return strings.TrimSpace(sanitizer.Replace(s))
}

// IsEmpty reports if the line would produce no output.
func (l Line) IsEmpty() bool {
	return l.Cmd == "" && len(l.Tokens) == 0 && l.Text == "" && l.Comment == ""
}

func (l Line) String() string {
	var b strings.Builder
	b.WriteString(l.Cmd)
	for _, t := range l.Tokens {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	if text := Sanitize(l.Text); text != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	if l.Comment != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(CommentMarker)
		if c := Sanitize(l.Comment); c != "" {
			b.WriteByte(' ')
			b.WriteString(c)
		}
	}
	return b.String()
}
