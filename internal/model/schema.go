package model

// Table names the input tables.
type Table string

const (
	TableLinks  Table = "link"
	TableNodes  Table = "node"
	TableDemand Table = "demand"
	TableZones  Table = "zone"
	TablePOIs   Table = "poi"
)

// RequiredColumns lists the header columns each table must carry. Zones are
// validated separately since they accept two alternative column sets.
var RequiredColumns = map[Table][]string{
	TableLinks:  {"link_id", "from_node_id", "to_node_id", "lanes", "free_speed", "geometry"},
	TableNodes:  {"node_id", "x_coord", "y_coord"},
	TableDemand: {"o_zone_id", "d_zone_id", "volume"},
	TablePOIs:   {"poi_id", "x_coord", "y_coord"},
}

// ZoneCentroidColumn is preferred over the bounding box when present.
const ZoneCentroidColumn = "centroid"

// ZoneBBoxColumns is the bounding box alternative for zone.csv.
var ZoneBBoxColumns = []string{"x_min", "y_min", "x_max", "y_max"}
