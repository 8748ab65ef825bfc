package models

import "time"

// VirtualUserLoad describes the traffic shape applied by the load generators
type VirtualUserLoad struct {
	VirtualUsers int           `json:"virtual_users" yaml:"virtualUsers"`
	Ramp         time.Duration `json:"ramp" yaml:"ramp"`
	Flat         time.Duration `json:"flat" yaml:"flat"`

	// Requests per second across all virtual users, 0 means unthrottled
	MaxOverallLoad float64 `json:"max_overall_load" yaml:"maxOverallLoad"`
}

// Total returns how long the load runs, ramp included
func (l VirtualUserLoad) Total() time.Duration {
	return l.Ramp + l.Flat
}

// WorkloadScale represents the fixed workload every trial of an exploration runs.
// It is created once per exploration and never mutated afterwards.
type WorkloadScale struct {
	// Label identifies the workload in cache keys and reports
	Label   string          `json:"label" yaml:"label"`
	Dataset string          `json:"dataset" yaml:"dataset"`
	Load    VirtualUserLoad `json:"load" yaml:"load"`
	VUNodes int             `json:"vu_nodes" yaml:"vuNodes"`
}
