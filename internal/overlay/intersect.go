package overlay

import (
	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// IntersectionArea returns the area shared by a buffer and a zone geometry.
// Only polygonal zones can contribute; points and lines yield 0.
func IntersectionArea(buffer orb.Polygon, zone orb.Geometry) float64 {
	if len(buffer) == 0 || zone == nil {
		return 0
	}
	if !buffer.Bound().Intersects(zone.Bound()) {
		return 0
	}

	switch z := zone.(type) {
	case orb.Polygon:
		return polygonIntersectionArea(buffer, z)
	case orb.MultiPolygon:
		total := 0.0
		for _, p := range z {
			total += polygonIntersectionArea(buffer, p)
		}
		return total
	case orb.Bound:
		return boxIntersectionArea(buffer, z)
	case orb.Collection:
		total := 0.0
		for _, g := range z {
			total += IntersectionArea(buffer, g)
		}
		return total
	default:
		return 0
	}
}

func polygonIntersectionArea(buffer, zone orb.Polygon) float64 {
	if len(zone) == 0 {
		return 0
	}
	if box, ok := rectangle(zone); ok {
		return boxIntersectionArea(buffer, box)
	}

	subject := toContours(zone)
	if len(subject) == 0 {
		return 0
	}
	return contoursArea(subject.Construct(polyclip.INTERSECTION, toContours(buffer)))
}

// boxIntersectionArea clips the buffer to an axis-aligned box.
func boxIntersectionArea(buffer orb.Polygon, box orb.Bound) float64 {
	clipped := clip.Polygon(box, buffer.Clone())
	if clipped == nil {
		return 0
	}
	return planar.Area(clipped)
}

// rectangle reports whether p is a single axis-aligned rectangle ring.
func rectangle(p orb.Polygon) (orb.Bound, bool) {
	if len(p) != 1 || len(p[0]) != 5 || !p[0].Closed() {
		return orb.Bound{}, false
	}
	b := p[0].Bound()
	for _, pt := range p[0] {
		onX := pt[0] == b.Min[0] || pt[0] == b.Max[0]
		onY := pt[1] == b.Min[1] || pt[1] == b.Max[1]
		if !onX || !onY {
			return orb.Bound{}, false
		}
	}
	return b, true
}

// toContours converts rings to open polyclip contours. Rings with fewer than
// three distinct points are dropped.
func toContours(p orb.Polygon) polyclip.Polygon {
	out := make(polyclip.Polygon, 0, len(p))
	for _, r := range p {
		pts := openRing(r)
		if len(pts) < 3 {
			continue
		}
		c := make(polyclip.Contour, len(pts))
		for i, pt := range pts {
			c[i] = polyclip.Point{X: pt[0], Y: pt[1]}
		}
		out = append(out, c)
	}
	return out
}

// contoursArea sums a polyclip result under the even-odd rule. Contours come
// back without hole flags, so a contour nested inside an odd number of others
// is subtracted.
func contoursArea(p polyclip.Polygon) float64 {
	rings := make([]orb.Ring, len(p))
	for i, c := range p {
		r := make(orb.Ring, 0, len(c)+1)
		for _, pt := range c {
			r = append(r, orb.Point{pt.X, pt.Y})
		}
		if len(r) > 0 {
			r = append(r, r[0])
		}
		rings[i] = r
	}

	total := 0.0
	for i, r := range rings {
		if len(r) < 4 {
			continue
		}
		mid := orb.Point{(r[0][0] + r[1][0]) / 2, (r[0][1] + r[1][1]) / 2}
		depth := 0
		for j, other := range rings {
			if j != i && len(other) >= 4 && other.Bound().Contains(mid) && planar.RingContains(other, mid) {
				depth++
			}
		}
		if depth%2 == 0 {
			total += ringArea(r)
		} else {
			total -= ringArea(r)
		}
	}
	return max(total, 0)
}

func ringArea(r orb.Ring) float64 {
	if len(r) < 4 {
		return 0
	}
	_, a := planar.CentroidArea(r)
	if a < 0 {
		a = -a
	}
	return a
}

// openRing drops the closing point of a ring.
func openRing(r orb.Ring) []orb.Point {
	pts := []orb.Point(r)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return append([]orb.Point(nil), pts...)
}

// CountPOIs returns how many points lie inside the buffer or on its boundary.
func CountPOIs(buffer orb.Polygon, points []orb.Point) int {
	if len(buffer) == 0 {
		return 0
	}
	bound := buffer.Bound()
	n := 0
	for _, p := range points {
		if bound.Contains(p) && planar.PolygonContains(buffer, p) {
			n++
		}
	}
	return n
}
