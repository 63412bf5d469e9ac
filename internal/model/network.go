// Package model defines the typed records read from the planning tables and
// the derived rows produced by the choke-point analyses.
package model

// Link is a directed road segment from link.csv.
type Link struct {
	LinkID     int64    `csv:"link_id" json:"link_id"`
	FromNodeID int64    `csv:"from_node_id" json:"from_node_id"`
	ToNodeID   int64    `csv:"to_node_id" json:"to_node_id"`
	Lanes      *float64 `csv:"lanes" json:"lanes"`
	FreeSpeed  *float64 `csv:"free_speed" json:"free_speed"`
	Geometry   string   `csv:"geometry" json:"geometry"` // WKT
}

// Node is an intersection or endpoint from node.csv.
type Node struct {
	NodeID int64   `csv:"node_id" json:"node_id"`
	X      float64 `csv:"x_coord" json:"x_coord"`
	Y      float64 `csv:"y_coord" json:"y_coord"`
}

// Demand is one origin/destination volume row from demand.csv.
type Demand struct {
	OriginZoneID      int64    `csv:"o_zone_id" json:"o_zone_id"`
	DestinationZoneID int64    `csv:"d_zone_id" json:"d_zone_id"`
	Volume            *float64 `csv:"volume" json:"volume"`
}

// Zone is a row from zone.csv. Either Centroid (WKT) or all four bounding
// box corners are populated, depending on which columns the file carries.
type Zone struct {
	ZoneID   int64    `csv:"zone_id" json:"zone_id"`
	Centroid string   `csv:"centroid" json:"centroid,omitempty"`
	XMin     *float64 `csv:"x_min" json:"x_min,omitempty"`
	YMin     *float64 `csv:"y_min" json:"y_min,omitempty"`
	XMax     *float64 `csv:"x_max" json:"x_max,omitempty"`
	YMax     *float64 `csv:"y_max" json:"y_max,omitempty"`
}

// HasBBox reports whether all bounding box corners are present.
func (z Zone) HasBBox() bool {
	return z.XMin != nil && z.YMin != nil && z.XMax != nil && z.YMax != nil
}

// POI is a point of interest from poi.csv.
type POI struct {
	POIID int64   `csv:"poi_id" json:"poi_id"`
	X     float64 `csv:"x_coord" json:"x_coord"`
	Y     float64 `csv:"y_coord" json:"y_coord"`
}

// ZoneSource tells how zone geometries were provided.
type ZoneSource string

const (
	ZoneSourceCentroid ZoneSource = "centroid"
	ZoneSourceBBox     ZoneSource = "bbox"
)

// Tables bundles the input tables of a single analysis run. Tables that were
// not requested are nil.
type Tables struct {
	Links      []Link
	Nodes      []Node
	Demand     []Demand
	Zones      []Zone
	ZoneSource ZoneSource
	POIs       []POI
}

// Float returns a pointer to v. Handy for building optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
