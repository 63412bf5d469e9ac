package model

import "github.com/paulmach/orb"

// DemandGroup is demand summed over one (origin, destination) pair.
type DemandGroup struct {
	OriginZoneID      int64   `json:"o_zone_id" yaml:"o_zone_id"`
	DestinationZoneID int64   `json:"d_zone_id" yaml:"d_zone_id"`
	Volume            float64 `json:"volume" yaml:"volume"`
	Rows              int     `json:"rows" yaml:"rows"`
}

// LinkLoad is one link paired with the demand assigned to it.
type LinkLoad struct {
	LinkID            int64   `json:"link_id" yaml:"link_id"`
	FromNodeID        int64   `json:"from_node_id" yaml:"from_node_id"`
	ToNodeID          int64   `json:"to_node_id" yaml:"to_node_id"`
	DestinationZoneID *int64  `json:"d_zone_id,omitempty" yaml:"d_zone_id,omitempty"`
	Capacity          float64 `json:"capacity" yaml:"capacity"`
	Volume            float64 `json:"volume" yaml:"volume"`
	Utilization       float64 `json:"utilization" yaml:"utilization"`
	Overloaded        bool    `json:"overloaded" yaml:"overloaded"`
}

// CriticalNode is a node with more overloaded outgoing link rows than allowed.
type CriticalNode struct {
	NodeID          int64 `json:"from_node_id" yaml:"from_node_id"`
	OverloadedCount int   `json:"overloaded_count" yaml:"overloaded_count"`
}

// NodeDegree is the out-degree of a node.
type NodeDegree struct {
	NodeID int64 `json:"node_id" yaml:"node_id"`
	Degree int   `json:"degree" yaml:"degree"`
}

// NodeProximity is a high-degree node with the zone area and POIs its buffer
// covers.
type NodeProximity struct {
	NodeID   int64       `json:"node_id" yaml:"node_id"`
	Degree   int         `json:"degree" yaml:"degree"`
	Located  bool        `json:"located" yaml:"located"`
	X        float64     `json:"x_coord" yaml:"x_coord"`
	Y        float64     `json:"y_coord" yaml:"y_coord"`
	Buffer   orb.Polygon `json:"-" yaml:"-"`
	ZoneArea float64     `json:"zone_area" yaml:"zone_area"`
	POICount int         `json:"poi_count" yaml:"poi_count"`
}

// OverloadResult is the outcome of the link overload analysis.
type OverloadResult struct {
	Loads           []LinkLoad     `json:"loads" yaml:"loads"`
	Overloaded      []LinkLoad     `json:"overloaded_links" yaml:"overloaded_links"`
	CriticalNodes   []CriticalNode `json:"critical_nodes" yaml:"critical_nodes"`
	UnmatchedDemand int            `json:"unmatched_demand_groups" yaml:"unmatched_demand_groups"`
}

// ProximityResult is the outcome of the degree, zone and POI analysis.
type ProximityResult struct {
	Nodes []NodeProximity `json:"critical_nodes" yaml:"critical_nodes"`
}
