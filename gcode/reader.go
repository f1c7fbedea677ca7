package gcode

import (
	"io"
	"strings"
)

// A Reader returns blocks in program order and io.EOF after the last one.
type Reader interface {
	Read() (Block, error)
}

// BlocksReader replays parsed blocks. Line numbers count from 1.
type BlocksReader struct {
	Blocks []Block
	n      int
}

func (b *BlocksReader) Read() (Block, error) {
	if b.n >= len(b.Blocks) {
		return nil, io.EOF
	}
	b.n++
	return b.Blocks[b.n-1], nil
}

// Line is the number of the block last returned by Read.
func (b *BlocksReader) Line() int { return b.n }

// ReadAll collects every block from r.
func ReadAll(r Reader) ([]Block, error) {
	var res []Block
	for {
		b, err := r.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
}

// Parse parses a whole program held in memory.
func Parse(data string) ([]Block, error) {
	return ReadAll(NewParser(strings.NewReader(data)))
}
