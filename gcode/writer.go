package gcode

import (
	"bytes"
	"io"
	"strings"
)

// Writer receives output lines in program order.
type Writer interface {
	WriteLine(Line) error
}

// TextWriter writes each line followed by a newline.
type TextWriter struct {
	w io.Writer
	n int
}

var _ Writer = &TextWriter{}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (t *TextWriter) WriteLine(l Line) error {
	_, err := io.WriteString(t.w, l.String()+"\n")
	if err == nil {
		t.n++
	}
	return err
}

// Lines returns the number of lines written so far.
func (t *TextWriter) Lines() int { return t.n }

// Program keeps lines in memory.
type Program struct {
	Lines []Line
}

var _ Writer = &Program{}

func (p *Program) WriteLine(l Line) error {
	p.Lines = append(p.Lines, l)
	return nil
}

// Strings returns the text of every line.
func (p *Program) Strings() []string {
	res := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		res[i] = l.String()
	}
	return res
}

func (p *Program) String() string {
	if len(p.Lines) == 0 {
		return ""
	}
	return strings.Join(p.Strings(), "\n") + "\n"
}

// Reader returns the program text for streaming.
func (p *Program) Reader() io.Reader {
	return bytes.NewBufferString(p.String())
}

// WriteTo implements io.WriterTo.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.String())
	return int64(n), err
}
