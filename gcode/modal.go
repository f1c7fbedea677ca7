package gcode

// Modal remembers the last value written for each letter so unchanged
// values can be left out.
type Modal struct {
	formats map[byte]Formatter
	last    map[byte]string
}

// NewModal returns a tracker for X, Y and Z with PositionFormat and F with
// FeedFormat.
func NewModal() *Modal {
	return &Modal{
		formats: map[byte]Formatter{
			'X': PositionFormat,
			'Y': PositionFormat,
			'Z': PositionFormat,
			'F': FeedFormat,
		},
		last: make(map[byte]string, 4),
	}
}

func (m *Modal) format(letter byte) Formatter {
	if f, ok := m.formats[letter]; ok {
		return f
	}
	return PositionFormat
}

// Differs reports if v would be written for letter, without updating the cache.
func (m *Modal) Differs(letter byte, v float64) bool {
	last, ok := m.last[letter]
	return !ok || last != m.format(letter).Format(v)
}

// Pending returns the token for v if it differs from the last value written
// for letter. Nothing is recorded until Commit.
func (m *Modal) Pending(letter byte, v float64) (Token, bool) {
	if !m.Differs(letter, v) {
		return Token{}, false
	}
	return m.format(letter).Token(letter, v), true
}

// Commit records tokens as written. Letters without a format are ignored.
func (m *Modal) Commit(tokens ...Token) {
	for _, t := range tokens {
		if _, ok := m.formats[t.Letter]; ok {
			m.last[t.Letter] = t.Value
		}
	}
}

// Changed is Pending followed by Commit.
func (m *Modal) Changed(letter byte, v float64) (Token, bool) {
	t, ok := m.Pending(letter, v)
	if ok {
		m.Commit(t)
	}
	return t, ok
}

// Reset forgets the given letters, or all of them if none are given.
func (m *Modal) Reset(letters ...byte) {
	if len(letters) == 0 {
		for k := range m.last {
			delete(m.last, k)
		}
		return
	}
	for _, l := range letters {
		delete(m.last, l)
	}
}
