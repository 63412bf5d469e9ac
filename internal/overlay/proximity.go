package overlay

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/model"
	"github.com/sells-group/chokepoint/internal/network"
)

// Options configures AnalyzeProximity.
type Options struct {
	BufferRadius   float64
	QuadSegs       int
	CriticalDegree int
	NodesCRS       string
	ZonesCRS       string
	POIsCRS        string
}

// DefaultOptions returns a 100-unit buffer around nodes of degree above 3.
func DefaultOptions() Options {
	return Options{
		BufferRadius:   100,
		QuadSegs:       DefaultQuadSegs,
		CriticalDegree: 3,
	}
}

// OptionsFromConfig builds Options from configuration.
func OptionsFromConfig(ov config.OverlayConfig, an config.AnalysisConfig) Options {
	return Options{
		BufferRadius:   ov.BufferRadius,
		QuadSegs:       ov.QuadSegs,
		CriticalDegree: an.CriticalDegree,
		NodesCRS:       ov.NodesCRS,
		ZonesCRS:       ov.ZonesCRS,
		POIsCRS:        ov.POIsCRS,
	}
}

// AnalyzeProximity finds nodes whose out-degree exceeds the critical degree,
// buffers them, and sums per node the zone area and the number of POIs each
// buffer covers. Buffers are reprojected to the zones' CRS and POIs to the
// buffers' CRS when the CRS strings differ. A critical node absent from the
// node table gets no buffer and zero statistics.
func AnalyzeProximity(tables *model.Tables, opts Options) (*model.ProximityResult, error) {
	if tables == nil {
		return nil, eris.New("overlay: no input tables")
	}
	log := zap.L().With(zap.String("analysis", "proximity"))

	critical := network.CriticalByDegree(network.NodeDegrees(tables.Links), opts.CriticalDegree)

	coords := make(map[int64]model.Node, len(tables.Nodes))
	for _, n := range tables.Nodes {
		if _, dup := coords[n.NodeID]; !dup {
			coords[n.NodeID] = n
		}
	}

	res := &model.ProximityResult{Nodes: make([]model.NodeProximity, 0, len(critical))}
	buffers := make([]orb.Polygon, len(critical))
	for i, c := range critical {
		np := model.NodeProximity{NodeID: c.NodeID, Degree: c.Degree}
		if n, ok := coords[c.NodeID]; ok {
			np.Located = true
			np.X, np.Y = n.X, n.Y
			buffers[i] = Buffer(orb.Point{n.X, n.Y}, opts.BufferRadius, opts.QuadSegs)
		} else {
			log.Warn("critical node missing from node table", zap.Int64("node_id", c.NodeID))
		}
		res.Nodes = append(res.Nodes, np)
	}

	bufferCRS := opts.NodesCRS
	if !SameCRS(bufferCRS, opts.ZonesCRS) {
		proj, err := Transform(bufferCRS, opts.ZonesCRS)
		if err != nil {
			return nil, eris.Wrap(err, "overlay: align buffers to zones")
		}
		ProjectPolygons(buffers, proj)
		bufferCRS = opts.ZonesCRS
	}

	pois := make([]orb.Point, len(tables.POIs))
	for i, p := range tables.POIs {
		pois[i] = orb.Point{p.X, p.Y}
	}
	if !SameCRS(opts.POIsCRS, bufferCRS) {
		proj, err := Transform(opts.POIsCRS, bufferCRS)
		if err != nil {
			return nil, eris.Wrap(err, "overlay: align POIs to buffers")
		}
		ProjectPoints(pois, proj)
	}

	zones := make([]orb.Geometry, 0, len(tables.Zones))
	for _, z := range tables.Zones {
		g, err := ZoneGeometry(z)
		if err != nil {
			return nil, eris.Wrap(err, "overlay: build zone geometry")
		}
		zones = append(zones, g)
	}

	for i := range res.Nodes {
		buf := buffers[i]
		if buf == nil {
			continue
		}
		res.Nodes[i].Buffer = buf
		for _, z := range zones {
			res.Nodes[i].ZoneArea += IntersectionArea(buf, z)
		}
		res.Nodes[i].POICount = CountPOIs(buf, pois)
	}

	log.Info("proximity analysis complete",
		zap.Int("critical_nodes", len(res.Nodes)),
		zap.Int("zones", len(zones)),
		zap.Int("pois", len(pois)),
	)
	return res, nil
}
