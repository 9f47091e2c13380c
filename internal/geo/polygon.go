package geo

import "github.com/paulmach/orb"

// maxSlope stands in for the slope of a vertical segment.
const maxSlope = 1e10

// Segment is a straight line between two points.
type Segment struct {
	A, B orb.Point
}

// SegmentsIntersect reports whether s1 and s2 cross. Each segment is turned
// into its line equation y = a*x + c and the endpoints of the other segment
// must fall on opposite sides of it.
func SegmentsIntersect(s1, s2 Segment) bool {
	a1, c1 := line(s1)
	a2, c2 := line(s2)

	f1a := sign(a1*s2.A.X() - s2.A.Y() + c1)
	f1b := sign(a1*s2.B.X() - s2.B.Y() + c1)
	f2a := sign(a2*s1.A.X() - s1.A.Y() + c2)
	f2b := sign(a2*s1.B.X() - s1.B.Y() + c2)

	return f1a != f1b && f2a != f2b
}

func line(s Segment) (slope, intercept float64) {
	if s.A.X() == s.B.X() {
		slope = maxSlope
	} else {
		slope = (s.A.Y() - s.B.Y()) / (s.A.X() - s.B.X())
	}
	return slope, s.A.Y() - slope*s.A.X()
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// PointInRing reports whether p lies inside ring using a ray cast due east
// (180 degrees of longitude) from p. The ring does not need to be closed.
func PointInRing(p orb.Point, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	ray := Segment{A: p, B: orb.Point{p.Lon() + 180, p.Lat()}}
	crossings := 0
	for i := 0; i < n; i++ {
		e := Segment{A: ring[(i+n-1)%n], B: ring[i]}

		// Only edges reaching east of p whose latitude span covers p can cross the ray.
		if e.A.Lon() < p.Lon() && e.B.Lon() < p.Lon() {
			continue
		}
		if !between(p.Lat(), e.A.Lat(), e.B.Lat()) {
			continue
		}
		if SegmentsIntersect(ray, e) {
			crossings++
		}
	}
	return crossings%2 == 1
}

// PointInRings reports whether p lies inside any of rings. Rings are
// independent regions, not holes.
func PointInRings(p orb.Point, rings []orb.Ring) bool {
	for _, r := range rings {
		if PointInRing(p, r) {
			return true
		}
	}
	return false
}

func between(v, a, b float64) bool {
	return (a <= v && v <= b) || (b <= v && v <= a)
}
