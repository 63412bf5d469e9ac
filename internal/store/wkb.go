package store

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

// SRID extracts the numeric code of an "EPSG:<code>" CRS string. Unknown or
// empty strings yield 0.
func SRID(crs string) int {
	code, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(crs)), "EPSG:")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}

// EncodeBuffer converts a buffer polygon to EWKB bytes. Returns nil, nil for
// an empty polygon.
func EncodeBuffer(p orb.Polygon, srid int) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(srid)
	for i, r := range p {
		flat := make([]float64, 0, 2*len(r))
		for _, pt := range r {
			flat = append(flat, pt[0], pt[1])
		}
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("store: skipping malformed ring", zap.Int("ring", i), zap.Error(err))
			continue
		}
	}
	if poly.NumLinearRings() == 0 {
		return nil, nil
	}

	data, err := ewkb.Marshal(poly, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode WKB")
	}
	return data, nil
}

// DecodeBuffer parses EWKB polygon bytes written by EncodeBuffer.
func DecodeBuffer(data []byte) (orb.Polygon, int, error) {
	if len(data) == 0 {
		return nil, 0, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: decode WKB")
	}
	poly, ok := g.(*geom.Polygon)
	if !ok {
		return nil, 0, eris.Errorf("store: expected polygon, got %T", g)
	}

	out := make(orb.Polygon, 0, poly.NumLinearRings())
	for i := 0; i < poly.NumLinearRings(); i++ {
		coords := poly.LinearRing(i).Coords()
		ring := make(orb.Ring, len(coords))
		for j, c := range coords {
			ring[j] = orb.Point{c.X(), c.Y()}
		}
		out = append(out, ring)
	}
	return out, poly.SRID(), nil
}
