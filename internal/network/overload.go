package network

import (
	"cmp"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/model"
)

// ZeroCapacityPolicy decides what happens to a link whose capacity is missing
// or exactly zero.
type ZeroCapacityPolicy string

const (
	// ZeroCapacityDefault substitutes a capacity of 1 for both a missing and
	// an exactly zero capacity, so no utilization is ever infinite.
	ZeroCapacityDefault ZeroCapacityPolicy = "default"
	// ZeroCapacitySkip drops the link from the load table.
	ZeroCapacitySkip ZeroCapacityPolicy = "skip"
	// ZeroCapacityFail aborts the analysis.
	ZeroCapacityFail ZeroCapacityPolicy = "fail"
)

// fallbackCapacity replaces a missing or zero capacity under the default policy.
const fallbackCapacity = 1.0

// Options configures AnalyzeOverload.
type Options struct {
	CapacityFactor        float64
	OverloadThreshold     float64
	CriticalOverloadCount int
	ZeroCapacity          ZeroCapacityPolicy
	// Strict drops links that no demand group reaches instead of loading
	// them with zero volume.
	Strict bool
}

// DefaultOptions returns the lenient analysis with the standard constants.
func DefaultOptions() Options {
	return Options{
		CapacityFactor:        DefaultCapacityFactor,
		OverloadThreshold:     1,
		CriticalOverloadCount: 1,
		ZeroCapacity:          ZeroCapacityDefault,
	}
}

// OptionsFromConfig builds Options from the analysis configuration.
func OptionsFromConfig(cfg config.AnalysisConfig, strict bool) Options {
	return Options{
		CapacityFactor:        cfg.CapacityFactor,
		OverloadThreshold:     cfg.OverloadThreshold,
		CriticalOverloadCount: cfg.CriticalOverloadCount,
		ZeroCapacity:          ZeroCapacityPolicy(cfg.ZeroCapacity),
		Strict:                strict,
	}
}

// Utilization returns volume / capacity.
func Utilization(volume, capacity float64) float64 {
	return volume / capacity
}

// Overloaded reports whether utilization strictly exceeds threshold.
func Overloaded(utilization, threshold float64) bool {
	return utilization > threshold
}

// ClassifyLoads computes capacity, utilization and the overload flag for each
// joined row, applying the zero-capacity policy.
func ClassifyLoads(rows []JoinedRow, opts Options) ([]model.LinkLoad, error) {
	loads := make([]model.LinkLoad, 0, len(rows))
	skipped := 0

	for _, r := range rows {
		c := Capacity(r.Link.Lanes, r.Link.FreeSpeed, opts.CapacityFactor)
		capacity := 0.0
		if c != nil {
			capacity = *c
		}

		if capacity == 0 {
			switch opts.ZeroCapacity {
			case ZeroCapacitySkip:
				skipped++
				zap.L().Debug("skipping link without capacity", zap.Int64("link_id", r.Link.LinkID))
				continue
			case ZeroCapacityFail:
				return nil, &ZeroCapacityError{LinkID: r.Link.LinkID, Missing: c == nil}
			default:
				capacity = fallbackCapacity
			}
		}

		load := model.LinkLoad{
			LinkID:     r.Link.LinkID,
			FromNodeID: r.Link.FromNodeID,
			ToNodeID:   r.Link.ToNodeID,
			Capacity:   capacity,
		}
		if r.Group != nil {
			d := r.Group.DestinationZoneID
			load.DestinationZoneID = &d
			load.Volume = r.Group.Volume
		}
		load.Utilization = Utilization(load.Volume, load.Capacity)
		load.Overloaded = Overloaded(load.Utilization, opts.OverloadThreshold)
		loads = append(loads, load)
	}

	if skipped > 0 {
		zap.L().Warn("skipped links with missing or zero capacity", zap.Int("skipped", skipped))
	}
	return loads, nil
}

// CriticalByOverload counts overloaded load rows per from-node and keeps
// nodes whose count is strictly greater than minCount, ordered by node id.
// A link loaded by several demand groups counts once per overloaded row.
func CriticalByOverload(loads []model.LinkLoad, minCount int) []model.CriticalNode {
	counts := make(map[int64]int)
	for _, l := range loads {
		if l.Overloaded {
			counts[l.FromNodeID]++
		}
	}

	var out []model.CriticalNode
	for id, n := range counts {
		if n > minCount {
			out = append(out, model.CriticalNode{NodeID: id, OverloadedCount: n})
		}
	}
	slices.SortFunc(out, func(a, b model.CriticalNode) int { return cmp.Compare(a.NodeID, b.NodeID) })
	return out
}

// AnalyzeOverload runs capacity estimation, demand aggregation, the
// demand-to-link join, overload classification and the overload-count
// critical node rule over tables.
func AnalyzeOverload(tables *model.Tables, opts Options) (*model.OverloadResult, error) {
	if tables == nil {
		return nil, eris.New("network: no input tables")
	}
	log := zap.L().With(zap.String("analysis", "overload"), zap.Bool("strict", opts.Strict))

	groups := AggregateDemand(tables.Demand)
	log.Debug("joining demand on origin zone id = link from_node_id; zone and node ids are assumed to share one id space",
		zap.Int("groups", len(groups)),
		zap.Int("links", len(tables.Links)),
	)

	join := JoinDemand(tables.Links, groups, !opts.Strict)
	if join.UnmatchedGroups > 0 {
		log.Warn("demand groups matched no link", zap.Int("unmatched", join.UnmatchedGroups))
	}

	loads, err := ClassifyLoads(join.Rows, opts)
	if err != nil {
		return nil, eris.Wrap(err, "network: classify loads")
	}

	res := &model.OverloadResult{
		Loads:           loads,
		Overloaded:      []model.LinkLoad{},
		UnmatchedDemand: join.UnmatchedGroups,
	}
	for _, l := range loads {
		if l.Overloaded {
			res.Overloaded = append(res.Overloaded, l)
		}
	}
	res.CriticalNodes = CriticalByOverload(loads, opts.CriticalOverloadCount)
	if res.CriticalNodes == nil {
		res.CriticalNodes = []model.CriticalNode{}
	}

	log.Info("overload analysis complete",
		zap.Int("loads", len(res.Loads)),
		zap.Int("overloaded", len(res.Overloaded)),
		zap.Int("critical_nodes", len(res.CriticalNodes)),
	)
	return res, nil
}
