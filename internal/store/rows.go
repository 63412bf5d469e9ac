package store

import (
	"fmt"
	"strings"

	"github.com/sells-group/chokepoint/internal/model"
)

var (
	linkLoadColumns     = []string{"run_id", "link_id", "from_node_id", "to_node_id", "d_zone_id", "capacity", "volume", "utilization", "overloaded"}
	criticalNodeColumns = []string{"run_id", "node_id", "overloaded_count"}
	proximityColumns    = []string{"run_id", "node_id", "degree", "located", "x_coord", "y_coord", "buffer", "zone_area", "poi_count"}
)

func linkLoadRow(runID string, l model.LinkLoad) []any {
	var dZone any
	if l.DestinationZoneID != nil {
		dZone = *l.DestinationZoneID
	}
	return []any{runID, l.LinkID, l.FromNodeID, l.ToNodeID, dZone, l.Capacity, l.Volume, l.Utilization, l.Overloaded}
}

func criticalNodeRow(runID string, n model.CriticalNode) []any {
	return []any{runID, n.NodeID, n.OverloadedCount}
}

func proximityRow(runID string, n model.NodeProximity, crs string) ([]any, error) {
	wkb, err := EncodeBuffer(n.Buffer, SRID(crs))
	if err != nil {
		return nil, err
	}
	var buf, x, y any
	if wkb != nil {
		buf = wkb
	}
	if n.Located {
		x, y = n.X, n.Y
	}
	return []any{runID, n.NodeID, n.Degree, n.Located, x, y, buf, n.ZoneArea, n.POICount}, nil
}

// insertSQL builds a single-row SQLite INSERT.
func insertSQL(table string, columns []string) string {
	params := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), params)
}
