package coord

import "math"

// Plane selects the two axes an arc turns in.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneXZ:
		return "XZ"
	case PlaneYZ:
		return "YZ"
	}
	return "unknown"
}

// Arc is a circular move from Start to End around Center.
type Arc struct {
	Plane     Plane
	Start     Point
	Center    Point
	End       Point
	Clockwise bool
}

// project returns the two in-plane coordinates and the remaining (helical) one.
func (p Plane) project(pt Point) (a, b, h float64) {
	switch p {
	case PlaneXZ:
		return pt.X, pt.Z, pt.Y
	case PlaneYZ:
		return pt.Y, pt.Z, pt.X
	}
	return pt.X, pt.Y, pt.Z
}

func (p Plane) unproject(a, b, h float64) Point {
	switch p {
	case PlaneXZ:
		return Point{X: a, Y: h, Z: b}
	case PlaneYZ:
		return Point{X: h, Y: a, Z: b}
	}
	return Point{X: a, Y: b, Z: h}
}

// Radius is the in-plane distance from Start to Center.
func (a Arc) Radius() float64 {
	sa, sb, _ := a.Plane.project(a.Start)
	ca, cb, _ := a.Plane.project(a.Center)
	return math.Hypot(sa-ca, sb-cb)
}

// Chord is the in-plane distance from Start to End.
func (a Arc) Chord() float64 {
	sa, sb, _ := a.Plane.project(a.Start)
	ea, eb, _ := a.Plane.project(a.End)
	return math.Hypot(ea-sa, eb-sb)
}

// Sweep returns the angle travelled in radians, in (0, 2*Pi].
// Coincident Start and End is a full circle.
func (a Arc) Sweep() float64 {
	sa, sb, _ := a.Plane.project(a.Start)
	ea, eb, _ := a.Plane.project(a.End)
	ca, cb, _ := a.Plane.project(a.Center)

	start := math.Atan2(sb-cb, sa-ca)
	end := math.Atan2(eb-cb, ea-ca)

	sweep := end - start
	if a.Clockwise {
		sweep = -sweep
	}
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	for sweep > 2*math.Pi {
		sweep -= 2 * math.Pi
	}
	return sweep
}

// Length is the distance travelled along the arc, including helical travel.
func (a Arc) Length() float64 {
	_, _, sh := a.Plane.project(a.Start)
	_, _, eh := a.Plane.project(a.End)
	return math.Hypot(a.Radius()*a.Sweep(), eh-sh)
}

// Segment approximates the arc with straight moves no longer than maxLen.
// The returned points exclude Start and end exactly on End.
func (a Arc) Segment(maxLen float64) []Point {
	n := 1
	if maxLen > 0 {
		n = int(math.Max(1, math.Ceil(a.Length()/maxLen)))
	}

	sa, sb, sh := a.Plane.project(a.Start)
	ca, cb, _ := a.Plane.project(a.Center)
	_, _, eh := a.Plane.project(a.End)

	radius := a.Radius()
	theta := math.Atan2(sb-cb, sa-ca)
	step := a.Sweep() / float64(n)
	if a.Clockwise {
		step = -step
	}
	rise := (eh - sh) / float64(n)

	res := make([]Point, n)
	for i := 1; i < n; i++ {
		t := theta + step*float64(i)
		res[i-1] = a.Plane.unproject(
			ca+radius*math.Cos(t),
			cb+radius*math.Sin(t),
			sh+rise*float64(i),
		)
	}
	res[n-1] = a.End

	return res
}
