package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/model"
)

// Attribute fields of the buffer shapefile, in column order.
var bufferFields = []shp.Field{
	shp.NumberField("NODE_ID", 18),
	shp.NumberField("DEGREE", 10),
	shp.FloatField("ZONE_AREA", 24, 4),
	shp.NumberField("POI_COUNT", 10),
}

// shpRing converts an orb ring to shapefile points, clockwise as the
// shapefile format expects for outer rings.
func shpRing(r orb.Ring, outer bool) []shp.Point {
	pts := make([]shp.Point, len(r))
	for i, p := range r {
		pts[i] = shp.Point{X: p[0], Y: p[1]}
	}
	ccw := r.Orientation() == orb.CCW
	if ccw == outer {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// dbfNumber renders a numeric attribute right-justified to the field width
// with space padding. go-shp pads short values with NULs, which dBASE
// readers do not accept in numeric fields.
func dbfNumber(f shp.Field, v any) string {
	var s string
	switch n := v.(type) {
	case int:
		s = strconv.Itoa(n)
	case float64:
		s = strconv.FormatFloat(n, 'f', int(f.Precision), 64)
	}
	return fmt.Sprintf("%*s", int(f.Size), s)
}

// WriteShapefile writes the buffers of located critical nodes as a polygon
// shapefile (.shp, .shx, .dbf) with NODE_ID, DEGREE, ZONE_AREA and POI_COUNT
// attributes. It returns the number of records written.
func WriteShapefile(path string, res *model.ProximityResult) (int, error) {
	base := path
	if strings.HasSuffix(strings.ToLower(path), ".shp") {
		base = path[:len(path)-4]
	}

	w, err := shp.Create(base+".shp", shp.POLYGON)
	if err != nil {
		return 0, eris.Wrapf(err, "render: create shapefile %s", path)
	}
	if err := w.SetFields(bufferFields); err != nil {
		w.Close()
		return 0, eris.Wrap(err, "render: set shapefile fields")
	}

	n := 0
	var writeErr error
	if res != nil {
		for _, np := range res.Nodes {
			if len(np.Buffer) == 0 {
				continue
			}
			parts := make([][]shp.Point, len(np.Buffer))
			for i, r := range np.Buffer {
				parts[i] = shpRing(r, i == 0)
			}
			poly := shp.Polygon(*shp.NewPolyLine(parts))
			row := int(w.Write(&poly))

			for field, value := range []any{int(np.NodeID), np.Degree, np.ZoneArea, np.POICount} {
				if err := w.WriteAttribute(row, field, dbfNumber(bufferFields[field], value)); err != nil && writeErr == nil {
					writeErr = eris.Wrapf(err, "render: node %d attribute %d", np.NodeID, field)
				}
			}
			n++
		}
	}
	w.Close()

	// go-shp v0.1.1 names the table "<base>dbf"; move it beside the .shp.
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return n, eris.Wrap(err, "render: place dbf")
	}
	if writeErr != nil {
		return n, writeErr
	}

	zap.L().Debug("wrote shapefile", zap.String("path", base+".shp"), zap.Int("records", n))
	return n, nil
}
