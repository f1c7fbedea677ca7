// Package toolpath reads CAM event documents and drives a translator with
// them.
package toolpath

import (
	"bufio"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/post"
)

// Format is the syntax of an event document.
type Format string

const (
	// FormatYAML is a stream of YAML documents, each a list of records.
	FormatYAML Format = "yaml"

	// FormatJSONLines is one JSON record per line. Blank lines and lines
	// starting with '#' are skipped.
	FormatJSONLines Format = "jsonl"
)

func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, nil
	}
	return "", errors.Errorf("unknown toolpath format for '%s'", path)
}

// Decode reads every event from r.
func Decode(r io.Reader, format Format) ([]post.Event, error) {
	var (
		pos    coord.Point
		events []post.Event
	)
	add := func(rec Record) error {
		ev, err := rec.Event(&pos)
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		for doc := 1; ; doc++ {
			var recs []Record
			err := dec.Decode(&recs)
			if err == io.EOF {
				return events, nil
			}
			if err != nil {
				return nil, errors.Wrapf(err, "document %d", doc)
			}
			for i, rec := range recs {
				err = add(rec)
				if err != nil {
					return nil, errors.Wrapf(err, "document %d record %d", doc, i+1)
				}
			}
		}
	case FormatJSONLines:
		s := bufio.NewScanner(r)
		for n := 1; s.Scan(); n++ {
			line := strings.TrimSpace(s.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			var rec Record
			dec := json.NewDecoder(strings.NewReader(line))
			dec.DisallowUnknownFields()
			err := dec.Decode(&rec)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", n)
			}
			err = add(rec)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", n)
			}
		}
		if err := s.Err(); err != nil {
			return nil, errors.Wrap(err, "read toolpath")
		}
		return events, nil
	}

	return nil, errors.Errorf("unknown toolpath format '%s'", format)
}
