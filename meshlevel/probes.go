package meshlevel

import (
	"encoding/json"
	"io"

	"github.com/mastercactapus/plasmapost/coord"
)

// probePoint matches the probe result shape: a point and a validity flag.
type probePoint struct {
	coord.Point
	Valid *bool
}

// ReadProbes decodes a JSON array of probe results, skipping invalid ones.
// A result without a Valid field counts as valid.
func ReadProbes(r io.Reader) ([]coord.Point, error) {
	var raw []probePoint
	err := json.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, err
	}
	res := make([]coord.Point, 0, len(raw))
	for _, p := range raw {
		if p.Valid != nil && !*p.Valid {
			continue
		}
		res = append(res, p.Point)
	}
	return res, nil
}

// Relative returns a copy of points with heights measured from ref. With a
// nil ref the first point is the zero height.
func Relative(points []coord.Point, ref *float64) []coord.Point {
	res := make([]coord.Point, len(points))
	if len(points) == 0 {
		return res
	}
	z := points[0].Z
	if ref != nil {
		z = *ref
	}
	for i, p := range points {
		res[i] = p.WithZ(p.Z - z)
	}
	return res
}
