package meshlevel

import (
	"github.com/fogleman/delaunay"
	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
)

// Mesh is a triangulated height map of the sheet surface.
type Mesh struct {
	bounds    coord.Bounds
	triangles []triangle
}

var _ ZOffsetter = &Mesh{}

func NewMesh(points []coord.Point) (*Mesh, error) {
	if len(points) < 3 {
		return nil, errors.New("need at least 3 points to create a mesh")
	}

	points2d := make([]delaunay.Point, len(points))
	byXY := make(map[delaunay.Point]coord.Point, len(points))
	for i, p := range points {
		d := delaunay.Point{X: p.X, Y: p.Y}
		byXY[d] = p
		points2d[i] = d
	}

	tri, err := delaunay.Triangulate(points2d)
	if err != nil {
		return nil, errors.Wrap(err, "triangulate probes")
	}
	if len(tri.Triangles) == 0 {
		return nil, errors.New("probe points are collinear")
	}

	mesh := &Mesh{
		bounds:    coord.NewBounds(points...),
		triangles: make([]triangle, 0, len(tri.Triangles)/3),
	}
	for i := 0; i < len(tri.Triangles); i += 3 {
		mesh.triangles = append(mesh.triangles, triangle{
			a: byXY[tri.Points[tri.Triangles[i]]],
			b: byXY[tri.Points[tri.Triangles[i+1]]],
			c: byXY[tri.Points[tri.Triangles[i+2]]],
		})
	}

	return mesh, nil
}

// Bounds returns the XY area covered by the mesh.
func (m Mesh) Bounds() coord.Bounds { return m.bounds }

func (m Mesh) OffsetZ(x, y float64) (bool, float64) {
	if x < m.bounds.Min.X-coordEpsilon || m.bounds.Max.X+coordEpsilon < x ||
		y < m.bounds.Min.Y-coordEpsilon || m.bounds.Max.Y+coordEpsilon < y {
		return false, 0
	}
	for _, t := range m.triangles {
		if !t.containsXY(x, y) {
			continue
		}
		return true, t.z(x, y)
	}

	return false, 0
}

const coordEpsilon = 0.001
