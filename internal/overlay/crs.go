package overlay

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Supported coordinate reference systems.
const (
	CRSWGS84       = "EPSG:4326"
	CRSWebMercator = "EPSG:3857"
)

// UnsupportedCRSError reports a transform between CRSs this tool cannot do.
type UnsupportedCRSError struct {
	From, To string
}

func (e *UnsupportedCRSError) Error() string {
	return fmt.Sprintf("overlay: unsupported CRS transform %q -> %q", e.From, e.To)
}

func normalizeCRS(crs string) string {
	return strings.ToUpper(strings.TrimSpace(crs))
}

// SameCRS reports whether two CRS strings are identical. Strings that differ
// only in case or surrounding space are not the same here; Transform maps
// them onto each other with a nil projection.
func SameCRS(a, b string) bool {
	return a == b
}

// Transform returns the projection that maps coordinates from one CRS to
// another, or nil when both name the same system. A side without a CRS cannot
// be transformed to or from one that has it.
func Transform(from, to string) (orb.Projection, error) {
	f, t := normalizeCRS(from), normalizeCRS(to)
	switch {
	case f == t:
		return nil, nil
	case f == CRSWGS84 && t == CRSWebMercator:
		return project.WGS84.ToMercator, nil
	case f == CRSWebMercator && t == CRSWGS84:
		return project.Mercator.ToWGS84, nil
	}
	return nil, &UnsupportedCRSError{From: from, To: to}
}

// ProjectPolygons applies proj to every polygon in place. A nil proj is a no-op.
func ProjectPolygons(polys []orb.Polygon, proj orb.Projection) {
	if proj == nil {
		return
	}
	for i, p := range polys {
		if p != nil {
			polys[i] = project.Polygon(p, proj)
		}
	}
}

// ProjectPoints applies proj to every point in place. A nil proj is a no-op.
func ProjectPoints(points []orb.Point, proj orb.Projection) {
	if proj == nil {
		return
	}
	for i, p := range points {
		points[i] = project.Point(p, proj)
	}
}
