package render

import (
	"encoding/json"
	"io"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/chokepoint/internal/model"
)

// Feature kinds set in the "kind" property.
const (
	KindOverloadedLink = "overloaded_link"
	KindCriticalNode   = "critical_node"
	KindNodeBuffer     = "critical_node_buffer"
)

func lineCoords(ls orb.LineString) [][]float64 {
	out := make([][]float64, len(ls))
	for i, p := range ls {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

func polygonCoords(p orb.Polygon) [][][]float64 {
	out := make([][][]float64, len(p))
	for i, r := range p {
		out[i] = lineCoords(orb.LineString(r))
	}
	return out
}

// OverloadFeatures builds a feature collection of the overloaded links and
// the critical nodes of an overload analysis. A link loaded by several
// demand groups appears once with its highest utilization.
func OverloadFeatures(links []model.Link, nodes []model.Node, res *model.OverloadResult) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if res == nil {
		return fc, nil
	}

	peak := make(map[int64]model.LinkLoad)
	for _, l := range res.Overloaded {
		if cur, ok := peak[l.LinkID]; !ok || l.Utilization > cur.Utilization {
			peak[l.LinkID] = l
		}
	}

	for _, l := range links {
		load, ok := peak[l.LinkID]
		if !ok {
			continue
		}
		mls, err := LinkGeometry(l)
		if err != nil {
			return nil, eris.Wrap(err, "render: geojson links")
		}

		var f *geojson.Feature
		if len(mls) == 1 {
			f = geojson.NewLineStringFeature(lineCoords(mls[0]))
		} else {
			lines := make([][][]float64, len(mls))
			for i, ls := range mls {
				lines[i] = lineCoords(ls)
			}
			f = geojson.NewMultiLineStringFeature(lines...)
		}
		f.SetProperty("kind", KindOverloadedLink)
		f.SetProperty("link_id", l.LinkID)
		f.SetProperty("from_node_id", l.FromNodeID)
		f.SetProperty("to_node_id", l.ToNodeID)
		f.SetProperty("capacity", load.Capacity)
		f.SetProperty("volume", load.Volume)
		f.SetProperty("utilization", load.Utilization)
		fc.AddFeature(f)
		delete(peak, l.LinkID)
	}

	coords := make(map[int64]model.Node, len(nodes))
	for _, n := range nodes {
		coords[n.NodeID] = n
	}
	for _, c := range res.CriticalNodes {
		n, ok := coords[c.NodeID]
		if !ok {
			continue
		}
		f := geojson.NewPointFeature([]float64{n.X, n.Y})
		f.SetProperty("kind", KindCriticalNode)
		f.SetProperty("node_id", c.NodeID)
		f.SetProperty("overloaded_count", c.OverloadedCount)
		fc.AddFeature(f)
	}
	return fc, nil
}

// ProximityFeatures builds a feature collection of critical-node buffers
// with their degree, zone area and POI count. Nodes without a buffer are
// written as a null-geometry feature so their statistics are kept.
func ProximityFeatures(res *model.ProximityResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if res == nil {
		return fc
	}
	for _, n := range res.Nodes {
		var f *geojson.Feature
		if len(n.Buffer) > 0 {
			f = geojson.NewPolygonFeature(polygonCoords(n.Buffer))
		} else {
			f = geojson.NewFeature(nil)
		}
		f.SetProperty("kind", KindNodeBuffer)
		f.SetProperty("node_id", n.NodeID)
		f.SetProperty("degree", n.Degree)
		f.SetProperty("zone_area", n.ZoneArea)
		f.SetProperty("poi_count", n.POICount)
		fc.AddFeature(f)
	}
	return fc
}

// WriteGeoJSON encodes fc to w.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "render: encode geojson")
	}
	return nil
}

// SaveGeoJSON writes fc to a file at path.
func SaveGeoJSON(path string, fc *geojson.FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	if err := WriteGeoJSON(f, fc); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "render: close %s", path)
}
