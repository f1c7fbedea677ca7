package config

import (
	"os"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/meshlevel"
)

// LoadSurface builds a height mesh from a probe result file. Heights are made
// relative to reference, or to the first probe if reference is nil.
func LoadSurface(path string, reference *float64) (*meshlevel.Mesh, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open probes")
	}
	defer fd.Close()

	points, err := meshlevel.ReadProbes(fd)
	if err != nil {
		return nil, errors.Wrapf(err, "read probes %s", path)
	}
	if len(points) == 0 {
		return nil, errors.Errorf("no valid probes in %s", path)
	}

	mesh, err := meshlevel.NewMesh(meshlevel.Relative(points, reference))
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %s", path)
	}
	return mesh, nil
}
