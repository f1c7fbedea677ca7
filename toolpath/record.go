package toolpath

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/post"
)

// Record is one event as written in a toolpath document. Axes that are
// left out keep their previous value.
type Record struct {
	Type string `json:"type" yaml:"type"`

	X *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Z *float64 `json:"z,omitempty" yaml:"z,omitempty"`

	// arc center
	CX *float64 `json:"cx,omitempty" yaml:"cx,omitempty"`
	CY *float64 `json:"cy,omitempty" yaml:"cy,omitempty"`
	CZ *float64 `json:"cz,omitempty" yaml:"cz,omitempty"`

	Clockwise bool    `json:"clockwise,omitempty" yaml:"clockwise,omitempty"`
	Plane     string  `json:"plane,omitempty" yaml:"plane,omitempty"`
	Feed      float64 `json:"feed,omitempty" yaml:"feed,omitempty"`

	On      bool    `json:"on,omitempty" yaml:"on,omitempty"`
	Seconds float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`

	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// section bounds, [x, y, z]
	Min []float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max []float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func parsePlane(s string) (coord.Plane, error) {
	switch strings.ToLower(s) {
	case "", "xy":
		return coord.PlaneXY, nil
	case "xz":
		return coord.PlaneXZ, nil
	case "yz":
		return coord.PlaneYZ, nil
	}
	return 0, errors.Errorf("unknown plane '%s'", s)
}

func withAxes(p coord.Point, x, y, z *float64) coord.Point {
	if x != nil {
		p.X = *x
	}
	if y != nil {
		p.Y = *y
	}
	if z != nil {
		p.Z = *z
	}
	return p
}

func vector(v []float64) (coord.Point, error) {
	var p coord.Point
	switch len(v) {
	case 3:
		p.Z = v[2]
		fallthrough
	case 2:
		p.X, p.Y = v[0], v[1]
	default:
		return p, errors.Errorf("expected 2 or 3 values, got %d", len(v))
	}
	return p, nil
}

// Event converts r. pos is the position before the event and is updated
// for motion events.
func (r Record) Event(pos *coord.Point) (post.Event, error) {
	switch strings.ToLower(r.Type) {
	case "open":
		return post.Open{}, nil
	case "close":
		return post.Close{}, nil
	case "section_start":
		ev := post.SectionStart{Name: r.Name}
		if r.Min == nil && r.Max == nil {
			return ev, nil
		}
		min, err := vector(r.Min)
		if err != nil {
			return nil, errors.Wrap(err, "min")
		}
		max, err := vector(r.Max)
		if err != nil {
			return nil, errors.Wrap(err, "max")
		}
		ev.Bounds = coord.NewBounds(min, max)
		return ev, nil
	case "section_end":
		return post.SectionEnd{}, nil
	case "rapid":
		*pos = withAxes(*pos, r.X, r.Y, r.Z)
		return post.Rapid{Target: *pos}, nil
	case "linear":
		*pos = withAxes(*pos, r.X, r.Y, r.Z)
		return post.Linear{Target: *pos, Feed: r.Feed}, nil
	case "circular":
		plane, err := parsePlane(r.Plane)
		if err != nil {
			return nil, err
		}
		if r.CX == nil && r.CY == nil && r.CZ == nil {
			return nil, errors.New("arc center is required")
		}
		center := withAxes(*pos, r.CX, r.CY, r.CZ)
		*pos = withAxes(*pos, r.X, r.Y, r.Z)
		return post.Circular{
			Clockwise: r.Clockwise,
			Plane:     plane,
			Center:    center,
			End:       *pos,
			Feed:      r.Feed,
		}, nil
	case "power":
		return post.Power{On: r.On}, nil
	case "dwell":
		return post.Dwell{Seconds: r.Seconds}, nil
	case "parameter":
		if r.Name == "" {
			return nil, errors.New("parameter name is required")
		}
		return post.Parameter{Name: r.Name, Value: r.Value}, nil
	}
	return nil, errors.Errorf("unknown event type '%s'", r.Type)
}
