package meshlevel

import (
	"github.com/mastercactapus/plasmapost/coord"
)

// epsilon is the barycentric slack allowed for points on an edge.
const epsilon = 1e-9

type triangle struct{ a, b, c coord.Point }

// weights returns the barycentric weights of (x,y) in the XY projection.
func (t triangle) weights(x, y float64) (w1, w2, w3 float64, ok bool) {
	d := (t.b.Y-t.c.Y)*(t.a.X-t.c.X) + (t.c.X-t.b.X)*(t.a.Y-t.c.Y)
	if d == 0 {
		return 0, 0, 0, false
	}
	w1 = ((t.b.Y-t.c.Y)*(x-t.c.X) + (t.c.X-t.b.X)*(y-t.c.Y)) / d
	w2 = ((t.c.Y-t.a.Y)*(x-t.c.X) + (t.a.X-t.c.X)*(y-t.c.Y)) / d
	return w1, w2, 1 - w1 - w2, true
}

func (t triangle) containsXY(x, y float64) bool {
	w1, w2, w3, ok := t.weights(x, y)
	return ok && w1 >= -epsilon && w2 >= -epsilon && w3 >= -epsilon
}

// z is the height of the triangle's plane at (x,y).
func (t triangle) z(x, y float64) float64 {
	w1, w2, w3, _ := t.weights(x, y)
	return w1*t.a.Z + w2*t.b.Z + w3*t.c.Z
}
