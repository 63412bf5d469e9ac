// Package overlay builds zone polygons and critical-node buffers, aligns
// their coordinate reference systems and measures what each buffer covers.
package overlay

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/sells-group/chokepoint/internal/model"
)

// GeometryError reports a row whose geometry could not be built.
type GeometryError struct {
	Table model.Table
	ID    int64
	Err   error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s %d: invalid geometry: %v", e.Table, e.ID, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// ZoneGeometry returns the shape of a zone. The centroid WKT is used when
// present; otherwise the bounding box becomes a closed 5-point ring visiting
// (min,min), (min,max), (max,max), (max,min) and back to (min,min).
func ZoneGeometry(z model.Zone) (orb.Geometry, error) {
	if z.Centroid != "" {
		g, err := wkt.Unmarshal(z.Centroid)
		if err != nil {
			return nil, &GeometryError{Table: model.TableZones, ID: z.ZoneID, Err: err}
		}
		return g, nil
	}
	if !z.HasBBox() {
		return nil, &GeometryError{Table: model.TableZones, ID: z.ZoneID, Err: fmt.Errorf("no centroid or bounding box")}
	}
	return orb.Polygon{BBoxRing(*z.XMin, *z.YMin, *z.XMax, *z.YMax)}, nil
}

// BBoxRing returns the closed ring of a bounding box.
func BBoxRing(xMin, yMin, xMax, yMax float64) orb.Ring {
	return orb.Ring{
		{xMin, yMin},
		{xMin, yMax},
		{xMax, yMax},
		{xMax, yMin},
		{xMin, yMin},
	}
}

// DefaultQuadSegs is the number of segments used per quarter circle.
const DefaultQuadSegs = 16

// Buffer approximates the disk of the given radius around center with a
// regular polygon of 4×quadSegs vertices. The radius is in the units of the
// point's coordinates.
func Buffer(center orb.Point, radius float64, quadSegs int) orb.Polygon {
	if quadSegs < 1 {
		quadSegs = DefaultQuadSegs
	}
	n := 4 * quadSegs
	ring := make(orb.Ring, 0, n+1)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, orb.Point{
			center[0] + radius*math.Cos(a),
			center[1] + radius*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}
