package model

import "time"

// RunKind is the analysis a run performed.
type RunKind string

const (
	RunKindOverload  RunKind = "overload"
	RunKindProximity RunKind = "proximity"
)

// RunStatus is the lifecycle state of a stored run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary holds the headline counts of a finished run.
type RunSummary struct {
	Links           int `json:"links" yaml:"links"`
	Nodes           int `json:"nodes" yaml:"nodes"`
	DemandRows      int `json:"demand_rows,omitempty" yaml:"demand_rows,omitempty"`
	LinkLoads       int `json:"link_loads,omitempty" yaml:"link_loads,omitempty"`
	OverloadedLinks int `json:"overloaded_links,omitempty" yaml:"overloaded_links,omitempty"`
	CriticalNodes   int `json:"critical_nodes" yaml:"critical_nodes"`
	UnmatchedDemand int `json:"unmatched_demand_groups,omitempty" yaml:"unmatched_demand_groups,omitempty"`
	Zones           int `json:"zones,omitempty" yaml:"zones,omitempty"`
	POIs            int `json:"pois,omitempty" yaml:"pois,omitempty"`
}

// Run is one recorded analysis invocation.
type Run struct {
	ID          string      `json:"id"`
	Kind        RunKind     `json:"kind"`
	Source      string      `json:"source"`
	Status      RunStatus   `json:"status"`
	Summary     *RunSummary `json:"summary,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
