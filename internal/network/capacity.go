// Package network estimates link capacity, assigns aggregated demand to links
// and classifies overloaded links and critical nodes.
package network

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sells-group/chokepoint/internal/model"
)

// DefaultCapacityFactor converts lanes × free speed into vehicles per period.
const DefaultCapacityFactor = 10

// Capacity returns lanes × freeSpeed × factor, or nil when either input is
// missing. Negative and zero inputs are passed through unchanged.
func Capacity(lanes, freeSpeed *float64, factor float64) *float64 {
	if lanes == nil || freeSpeed == nil {
		return nil
	}
	c := *lanes * *freeSpeed * factor
	return &c
}

// AggregateDemand sums volume per (origin, destination) pair. A missing
// volume contributes 0. Groups are returned in ascending (origin,
// destination) order.
func AggregateDemand(rows []model.Demand) []model.DemandGroup {
	type key struct{ o, d int64 }
	index := make(map[key]int)
	var groups []model.DemandGroup

	for _, r := range rows {
		k := key{r.OriginZoneID, r.DestinationZoneID}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, model.DemandGroup{
				OriginZoneID:      r.OriginZoneID,
				DestinationZoneID: r.DestinationZoneID,
			})
		}
		if r.Volume != nil {
			groups[i].Volume += *r.Volume
		}
		groups[i].Rows++
	}

	slices.SortFunc(groups, func(a, b model.DemandGroup) int {
		if c := cmp.Compare(a.OriginZoneID, b.OriginZoneID); c != 0 {
			return c
		}
		return cmp.Compare(a.DestinationZoneID, b.DestinationZoneID)
	})
	return groups
}

// JoinedRow is a link paired with one demand group whose origin zone id equals
// the link's from-node id. Group is nil for a link that matched nothing.
type JoinedRow struct {
	Link  model.Link
	Group *model.DemandGroup
}

// Join is the result of JoinDemand.
type Join struct {
	Rows []JoinedRow
	// UnmatchedGroups counts demand groups whose origin matched no link.
	UnmatchedGroups int
}

// JoinDemand attaches demand groups to links where
// group.OriginZoneID == link.FromNodeID, producing one row per (link, group)
// match. Zone ids and node ids are assumed to share one id space; nothing
// checks that they do. Links without a match are kept with a nil Group when
// keepUnmatched is set and dropped otherwise. Groups that match no link never
// become rows, so they cannot surface as load rows without a link; they are
// only counted in UnmatchedGroups.
func JoinDemand(links []model.Link, groups []model.DemandGroup, keepUnmatched bool) Join {
	byOrigin := make(map[int64][]int)
	for i, g := range groups {
		byOrigin[g.OriginZoneID] = append(byOrigin[g.OriginZoneID], i)
	}

	matched := make([]bool, len(groups))
	var out Join
	for _, l := range links {
		idx := byOrigin[l.FromNodeID]
		if len(idx) == 0 {
			if keepUnmatched {
				out.Rows = append(out.Rows, JoinedRow{Link: l})
			}
			continue
		}
		for _, i := range idx {
			matched[i] = true
			out.Rows = append(out.Rows, JoinedRow{Link: l, Group: &groups[i]})
		}
	}

	for _, m := range matched {
		if !m {
			out.UnmatchedGroups++
		}
	}
	return out
}

// NodeDegrees counts outgoing links per from-node, ordered by node id.
func NodeDegrees(links []model.Link) []model.NodeDegree {
	counts := make(map[int64]int)
	for _, l := range links {
		counts[l.FromNodeID]++
	}
	out := make([]model.NodeDegree, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.NodeDegree{NodeID: id, Degree: n})
	}
	slices.SortFunc(out, func(a, b model.NodeDegree) int { return cmp.Compare(a.NodeID, b.NodeID) })
	return out
}

// CriticalByDegree keeps nodes whose degree is strictly greater than minDegree.
func CriticalByDegree(degrees []model.NodeDegree, minDegree int) []model.NodeDegree {
	var out []model.NodeDegree
	for _, d := range degrees {
		if d.Degree > minDegree {
			out = append(out, d)
		}
	}
	return out
}

// ZeroCapacityError is returned under the fail policy for a link whose
// capacity is missing or zero.
type ZeroCapacityError struct {
	LinkID  int64
	Missing bool
}

func (e *ZeroCapacityError) Error() string {
	if e.Missing {
		return fmt.Sprintf("network: link %d has no capacity (lanes or free_speed missing)", e.LinkID)
	}
	return fmt.Sprintf("network: link %d has zero capacity", e.LinkID)
}
