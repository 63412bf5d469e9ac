package overlay

import (
	"math"
	"testing"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
)

func box(xMin, yMin, xMax, yMax float64) orb.Polygon {
	return orb.Polygon{BBoxRing(xMin, yMin, xMax, yMax)}
}

func TestIntersectionArea_BufferInsideZone(t *testing.T) {
	buf := Buffer(orb.Point{500, 500}, 100, 16)
	area := IntersectionArea(buf, box(0, 0, 1000, 1000))
	assert.Greater(t, area, 0.0)
	assert.LessOrEqual(t, area, math.Pi*100*100)
	assert.InDelta(t, planar.Area(buf), area, 1e-6)
}

func TestIntersectionArea_HalfCovered(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 10, 16)
	area := IntersectionArea(buf, box(0, -50, 50, 50))
	assert.InDelta(t, planar.Area(buf)/2, area, 1e-6)
}

func TestIntersectionArea_Disjoint(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 10, 16)
	assert.Equal(t, 0.0, IntersectionArea(buf, box(100, 100, 200, 200)))
}

func TestIntersectionArea_ZoneInsideBuffer(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 100, 16)
	assert.InDelta(t, 100.0, IntersectionArea(buf, box(-5, -5, 5, 5)), 1e-6)
}

func TestIntersectionArea_PointAndLineZones(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 100, 16)
	assert.Equal(t, 0.0, IntersectionArea(buf, orb.Point{0, 0}))
	assert.Equal(t, 0.0, IntersectionArea(buf, orb.LineString{{-10, 0}, {10, 0}}))
	assert.Equal(t, 0.0, IntersectionArea(nil, box(0, 0, 1, 1)))
}

func TestIntersectionArea_GeneralPolygon(t *testing.T) {
	// Triangle fully inside the buffer.
	tri := orb.Polygon{{{0, 0}, {10, 0}, {0, 10}, {0, 0}}}
	buf := Buffer(orb.Point{0, 0}, 100, 16)
	assert.InDelta(t, 50.0, IntersectionArea(buf, tri), 1e-6)

	// Clockwise triangle containing the whole buffer.
	big := orb.Polygon{{{-1000, -1000}, {-1000, 1000}, {1000, 0}, {-1000, -1000}}}
	small := Buffer(orb.Point{0, 0}, 1, 16)
	assert.InDelta(t, planar.Area(small), IntersectionArea(small, big), 1e-6)
}

func TestIntersectionArea_PolygonWithHole(t *testing.T) {
	zone := orb.Polygon{
		{{-50, -50}, {50, -50}, {50, 50}, {-50, 50}, {-50, -50}},
		{{-5, -5}, {-5, 5}, {5, 5}, {5, -5}, {-5, -5}},
	}
	buf := Buffer(orb.Point{0, 0}, 20, 16)
	assert.InDelta(t, planar.Area(buf)-100, IntersectionArea(buf, zone), 1e-6)
}

func TestIntersectionArea_MultiPolygonAndBound(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 100, 16)
	mp := orb.MultiPolygon{box(0, 0, 10, 10), box(20, 20, 30, 30)}
	assert.InDelta(t, 200.0, IntersectionArea(buf, mp), 1e-6)
	assert.InDelta(t, 100.0, IntersectionArea(buf, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}), 1e-6)
}

func TestCountPOIs(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 10, 16)
	pois := []orb.Point{
		{0, 0},
		{10, 0}, // on a vertex of the boundary
		{5, 5},
		{20, 0},
		{9.99, 9.99},
	}
	assert.Equal(t, 3, CountPOIs(buf, pois))
	assert.Equal(t, 0, CountPOIs(nil, pois))
}

func TestIntersectionArea_ConcaveZones(t *testing.T) {
	buf := Buffer(orb.Point{5, 5}, 12, 16)

	// L shape made of two boxes; orb/clip on each box gives the reference.
	lshape := orb.Polygon{{{0, 0}, {20, 0}, {20, 10}, {10, 10}, {10, 20}, {0, 20}, {0, 0}}}
	want := boxIntersectionArea(buf, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 10}}) +
		boxIntersectionArea(buf, orb.Bound{Min: orb.Point{0, 10}, Max: orb.Point{10, 20}})
	assert.InDelta(t, want, IntersectionArea(buf, lshape), 1e-6)

	// U shape: a square with a notch cut from the top edge down past the center.
	center := Buffer(orb.Point{0, 0}, 20, 16)
	ushape := orb.Polygon{{{-30, -30}, {30, -30}, {30, 30}, {10, 30}, {10, 1}, {-10, 1}, {-10, 30}, {-30, 30}, {-30, -30}}}
	want = boxIntersectionArea(center, orb.Bound{Min: orb.Point{-30, -30}, Max: orb.Point{30, 30}}) -
		boxIntersectionArea(center, orb.Bound{Min: orb.Point{-10, 1}, Max: orb.Point{10, 30}})
	assert.InDelta(t, want, IntersectionArea(center, ushape), 1e-6)
}

func TestIntersectionArea_ConcaveDisjoint(t *testing.T) {
	buf := Buffer(orb.Point{0, 0}, 1, 4)
	tri := orb.Polygon{{{100, 100}, {110, 100}, {110, 110}, {100, 100}}}
	assert.Equal(t, 0.0, IntersectionArea(buf, tri))
}

func TestContoursArea_Hole(t *testing.T) {
	outer := polyclip.Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	hole := polyclip.Contour{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}}
	assert.InDelta(t, 96.0, contoursArea(polyclip.Polygon{outer, hole}), 1e-9)
	assert.Equal(t, 0.0, contoursArea(nil))
}
