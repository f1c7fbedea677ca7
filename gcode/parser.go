package gcode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Parser reads blocks from G-code text. Comments are dropped; the free
// text of message commands (M117) is available from Text.
type Parser struct {
	br   *bufio.Reader
	text string
	line int
}

var _ Reader = &Parser{}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rx      = regexp.MustCompile(`^([A-Z][0-9.\-]*)+$`)
	rxSplit = regexp.MustCompile(`[A-Z][0-9.\-]*`)
)

var messageCommands = map[string]bool{
	"M117": true,
}

// Text returns the message text of the last block read.
func (p *Parser) Text() string { return p.text }

// Line returns the line number of the last block read.
func (p *Parser) Line() int { return p.line }

func splitMessage(s string) (cmd, text string, ok bool) {
	fields := strings.SplitN(s, " ", 2)
	if !messageCommands[strings.ToUpper(fields[0])] {
		return "", "", false
	}
	if len(fields) == 2 {
		text = strings.TrimSpace(fields[1])
	}
	return fields[0], text, true
}

func (p *Parser) Read() (ln Block, err error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return nil, err
		}
		p.line++

		s = strings.SplitN(s, string(CommentMarker), 2)[0]
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		p.text = ""
		if cmd, text, ok := splitMessage(s); ok {
			s, p.text = cmd, text
		}

		s = strings.Replace(s, " ", "", -1)
		s = strings.ToUpper(s)

		if !rx.MatchString(s) {
			return nil, errors.Errorf("line %d: invalid or unhandled line: %s", p.line, s)
		}

		codes := rxSplit.FindAllString(s, -1)
		res := make([]Word, len(codes))

		for i, c := range codes {
			res[i].W = c[0]
			if len(c) == 1 {
				continue
			}
			_, err = fmt.Sscanf(c[1:], "%f", &res[i].Arg)
			if err != nil {
				return nil, errors.Errorf("line %d: invalid number in '%s'", p.line, c)
			}
		}

		return res, nil
	}
}
